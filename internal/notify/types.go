package notify

import "time"

// Event is one fully rendered notification. Sinks deliver it as-is; no
// formatting decisions are left to the transport beyond what its wire
// format requires.
type Event struct {
	Kind string // "live" or "milestone"

	// Content is the plain-text message (above the embed on Discord,
	// the whole message on Telegram).
	Content string

	Embed *Embed
}

// Embed is a rich notification body in Discord's shape; other sinks
// flatten it to text.
type Embed struct {
	Title       string
	Description string
	URL         string
	Color       int
	Timestamp   time.Time
	Fields      []EmbedField
	ImageURL    string
	FooterText  string
}

type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

// HistoryItem records a recent dispatch for operator visibility.
type HistoryItem struct {
	At   time.Time
	Kind string
	Text string
	Err  string
}
