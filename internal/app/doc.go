// Package app wires the Twitch provider, notification policy, sinks and
// state store into the single-threaded polling loop, and applies config
// hot-reloads to the running loop.
package app
