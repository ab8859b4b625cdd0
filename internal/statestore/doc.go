// Package statestore persists the notification policy state across restarts
// plus a per-session history consumed by the digest.
package statestore
