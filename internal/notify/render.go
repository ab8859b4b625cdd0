package notify

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"livenotify/internal/twitch"
)

const (
	defaultTemplate = "🔴 **LIVE NOW!** {streamer} is streaming {game}"
	defaultColor    = 0xFF0000
	footerText      = "Twitch Stream Notification"
)

// RenderConfig controls how stream info becomes a notification.
type RenderConfig struct {
	MessageTemplate    string
	ContentText        string
	IncludeTitle       bool
	IncludeGame        bool
	IncludeViewerCount bool
	IncludeThumbnail   bool
	EmbedColor         string
}

// RenderTemplate substitutes the {streamer} {title} {game} {viewers} {url}
// placeholders with stream data.
func RenderTemplate(tmpl string, s *twitch.StreamInfo) string {
	r := strings.NewReplacer(
		"{streamer}", s.UserName,
		"{title}", s.Title,
		"{game}", s.GameName,
		"{viewers}", strconv.Itoa(s.ViewerCount),
		"{url}", s.URL(),
	)
	return r.Replace(tmpl)
}

// Uptime renders elapsed stream time as "3h 25m".
func Uptime(started, now time.Time) string {
	if started.IsZero() || now.Before(started) {
		return "0h 0m"
	}
	d := now.Sub(started)
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

// Live renders a go-live (or game-change) notification.
func Live(cfg RenderConfig, s *twitch.StreamInfo, now time.Time) Event {
	tmpl := cfg.MessageTemplate
	if strings.TrimSpace(tmpl) == "" {
		tmpl = defaultTemplate
	}
	ev := Event{
		Kind:  "live",
		Embed: embed(cfg, s, RenderTemplate(tmpl, s), now),
	}
	if strings.TrimSpace(cfg.ContentText) != "" {
		ev.Content = RenderTemplate(cfg.ContentText, s)
	}
	return ev
}

// Milestone renders a viewer-threshold notification.
func Milestone(cfg RenderConfig, s *twitch.StreamInfo, threshold int, now time.Time) Event {
	desc := fmt.Sprintf("🎉 **Milestone reached!** %d viewers watching %s", s.ViewerCount, s.UserName)
	e := embed(cfg, s, desc, now)
	// Lead with the crossed threshold so a multi-milestone tick stays readable.
	e.Fields = append([]EmbedField{{Name: "Milestone", Value: fmt.Sprintf("%d viewers", threshold), Inline: true}}, e.Fields...)
	return Event{Kind: "milestone", Embed: e}
}

func embed(cfg RenderConfig, s *twitch.StreamInfo, description string, now time.Time) *Embed {
	title := fmt.Sprintf("%s is live on Twitch!", s.UserName)
	if cfg.IncludeTitle && s.Title != "" {
		title = s.Title
	}

	e := &Embed{
		Title:       title,
		Description: description,
		URL:         s.URL(),
		Color:       parseColor(cfg.EmbedColor),
		Timestamp:   now,
		FooterText:  footerText,
	}

	if cfg.IncludeGame && s.GameName != "" {
		e.Fields = append(e.Fields, EmbedField{Name: "Game", Value: s.GameName, Inline: true})
	}
	if cfg.IncludeViewerCount {
		e.Fields = append(e.Fields, EmbedField{Name: "Viewers", Value: strconv.Itoa(s.ViewerCount), Inline: true})
	}
	e.Fields = append(e.Fields, EmbedField{Name: "Uptime", Value: Uptime(s.Started(), now), Inline: true})

	if cfg.IncludeThumbnail && s.ThumbnailURL != "" {
		e.ImageURL = s.Thumbnail(1280, 720, now)
	}
	return e
}

func parseColor(hex string) int {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if hex == "" {
		return defaultColor
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return defaultColor
	}
	return int(n)
}

// Text flattens an event for plain-text transports.
func (ev Event) Text() string {
	var b strings.Builder
	if ev.Content != "" {
		b.WriteString(ev.Content)
		b.WriteString("\n")
	}
	if ev.Embed != nil {
		if ev.Embed.Description != "" {
			b.WriteString(stripMarkdown(ev.Embed.Description))
			b.WriteString("\n")
		}
		for _, f := range ev.Embed.Fields {
			fmt.Fprintf(&b, "%s: %s\n", f.Name, f.Value)
		}
		if ev.Embed.URL != "" {
			b.WriteString(ev.Embed.URL)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func stripMarkdown(s string) string {
	return strings.ReplaceAll(s, "**", "")
}
