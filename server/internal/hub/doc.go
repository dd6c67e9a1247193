// Package hub fans canvas events out to every live session.
//
// Each Subscription owns a bounded queue (capacity set by New; 100 in the
// default config). Publish never blocks: when a subscriber's queue is full
// its oldest unread event is discarded and counted, and the new event is
// queued. Other subscribers are unaffected.
//
// Publish holds the hub lock for the whole fan-out, so every subscriber sees
// the same global order. A Subscription only receives events published after
// Subscribe returned. There is no replay and no acknowledgement.
//
// Close shuts the hub down: every subscription channel is closed, and later
// Subscribe calls return subscriptions that are already closed.
package hub
