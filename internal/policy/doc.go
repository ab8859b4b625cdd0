// Package policy decides when stream state changes are worth announcing.
//
// It is a pure state machine: the poll loop feeds it one snapshot per tick
// (or nil when the channel is offline) and it emits zero or more notification
// intents, subject to a cooldown between "live" announcements and one-shot
// viewer milestones per online session. It performs no I/O; persistence and
// delivery belong to the caller.
package policy
