// Copyright 2024-2026 Aiku AI

// Package relay implements the fan-out engine at the heart of the global
// chat: a message posted in one guild's reserved channel is re-posted,
// through a per-channel webhook impersonating the original author, into
// every other guild's channel of the same name.
//
// # Core Types
//
// [Engine] orchestrates one message's relay: eligibility filtering,
// attachment fetching, destination enumeration, and per-destination
// dispatch with isolated failures reported as [Delivery] values inside a
// [Summary].
//
// [WebhookResolver] implements the get-or-create protocol for the reserved
// relay webhook on a destination channel.
//
// [IdentityDeriver] computes the spoofed display name and avatar URL shown
// on each relayed copy.
//
// [AttachmentFetcher] downloads source attachments for re-upload.
//
// # Echo Prevention
//
// Relayed copies are posted by webhooks, and webhook posts arrive back on
// the gateway as bot-authored messages. The eligibility filter rejects bot
// authors and webhook posts before any I/O, which is the only thing
// standing between the relay and an infinite loop. It must not be
// weakened.
package relay
