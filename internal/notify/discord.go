package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DiscordSink delivers events to a Discord webhook as rich embeds.
type DiscordSink struct {
	webhookURL string
	http       *http.Client
}

func NewDiscordSink(webhookURL string) (*DiscordSink, error) {
	if strings.TrimSpace(webhookURL) == "" {
		return nil, errors.New("discord webhook url is empty")
	}
	return &DiscordSink{
		webhookURL: webhookURL,
		http:       &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (d *DiscordSink) Name() string { return "discord" }

type discordPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds,omitempty"`
}

type discordEmbed struct {
	Title       string              `json:"title,omitempty"`
	Type        string              `json:"type"`
	Description string              `json:"description,omitempty"`
	URL         string              `json:"url,omitempty"`
	Color       int                 `json:"color,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
	Footer      *discordFooter      `json:"footer,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
	Image       *discordImage       `json:"image,omitempty"`
}

type discordFooter struct {
	Text string `json:"text"`
}

type discordImage struct {
	URL string `json:"url"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

func (d *DiscordSink) Send(ctx context.Context, ev Event) error {
	payload := discordPayload{Content: ev.Content}
	if ev.Embed != nil {
		e := discordEmbed{
			Title:       ev.Embed.Title,
			Type:        "rich",
			Description: ev.Embed.Description,
			URL:         ev.Embed.URL,
			Color:       ev.Embed.Color,
		}
		if !ev.Embed.Timestamp.IsZero() {
			e.Timestamp = ev.Embed.Timestamp.UTC().Format(time.RFC3339)
		}
		if ev.Embed.FooterText != "" {
			e.Footer = &discordFooter{Text: ev.Embed.FooterText}
		}
		for _, f := range ev.Embed.Fields {
			e.Fields = append(e.Fields, discordEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
		}
		if ev.Embed.ImageURL != "" {
			e.Image = &discordImage{URL: ev.Embed.ImageURL}
		}
		payload.Embeds = []discordEmbed{e}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.http.Do(req)
	if err != nil {
		return fmt.Errorf("discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return fmt.Errorf("discord webhook: %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}
	return nil
}
