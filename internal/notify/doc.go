// Package notify renders stream events into chat notifications and delivers
// them through one or more sinks (Discord webhook, Telegram bot).
//
// Rendering and transport are separate: render.go turns stream info into a
// transport-neutral Event, each sink maps that onto its wire format, and the
// Dispatcher fans events out under a shared rate limit.
package notify
