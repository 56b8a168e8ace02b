// Copyright 2024-2026 Aiku AI

package relay

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/aiku/globalchat/pkg/directory"
	"github.com/aiku/globalchat/pkg/metrics"
	"github.com/aiku/globalchat/pkg/store"
)

// Delivery is the outcome of one destination's dispatch. Either MessageID
// is set (delivered) or Err is. RecordErr reports a mapping write failure
// for an otherwise delivered copy; the copy stays delivered.
type Delivery struct {
	ChannelID string
	MessageID string
	Err       error
	RecordErr error
}

// Delivered reports whether the destination received the message.
func (d Delivery) Delivered() bool {
	return d.Err == nil
}

// Summary aggregates the per-destination outcomes of one message's fan-out.
type Summary struct {
	OriginalID string
	Deliveries []Delivery
}

// Delivered counts destinations that received the message.
func (s *Summary) Delivered() int {
	n := 0
	for _, d := range s.Deliveries {
		if d.Delivered() {
			n++
		}
	}
	return n
}

// Failed counts destinations that did not receive the message.
func (s *Summary) Failed() int {
	return len(s.Deliveries) - s.Delivered()
}

// Engine fans a qualifying inbound message out to every other channel
// carrying the reserved relay name. Destinations are processed sequentially
// and in isolation: one destination's failure never blocks or rolls back
// delivery to another.
type Engine struct {
	dir      *directory.Directory
	api      WebhookAPI
	store    store.Store
	resolver *WebhookResolver
	fetcher  *AttachmentFetcher
	identity IdentityDeriver

	channelName string
	log         zerolog.Logger
}

// NewEngine wires a relay engine for the given reserved channel name.
// attachmentTimeout bounds each attachment download; zero disables the
// bound.
func NewEngine(dir *directory.Directory, api WebhookAPI, st store.Store, channelName string, attachmentTimeout time.Duration, log zerolog.Logger) *Engine {
	return &Engine{
		dir:         dir,
		api:         api,
		store:       st,
		resolver:    NewWebhookResolver(api, channelName),
		fetcher:     NewAttachmentFetcher(attachmentTimeout),
		channelName: channelName,
		log:         log.With().Str("component", "relay").Logger(),
	}
}

// Eligible reports whether the message qualifies for relaying: a non-bot
// author posting in a known channel carrying the reserved name. Webhook
// posts, including the relay's own, carry a bot author and are rejected
// here, which is what breaks the relay loop.
func (e *Engine) Eligible(msg *discordgo.Message) bool {
	if msg == nil || msg.Author == nil {
		return false
	}
	if msg.Author.Bot || msg.WebhookID != "" {
		return false
	}
	ch, ok := e.dir.Lookup(msg.ChannelID)
	return ok && ch.Name == e.channelName
}

// Relay processes one inbound message end to end. It returns (nil, nil)
// for ineligible messages, an error when the whole relay was aborted
// (attachment fetch failure), and otherwise a summary holding one Delivery
// per destination.
func (e *Engine) Relay(ctx context.Context, msg *discordgo.Message) (*Summary, error) {
	if !e.Eligible(msg) {
		return nil, nil
	}
	metrics.MessagesRelayed.Inc()

	// All attachments are fetched once, up front. Any failure drops the
	// whole message rather than delivering it partially.
	attachments, err := e.fetcher.FetchAll(ctx, msg.Attachments)
	if err != nil {
		metrics.AttachmentFailures.Inc()
		return nil, fmt.Errorf("fetch attachments for message %s: %w", msg.ID, err)
	}

	summary := &Summary{OriginalID: msg.ID}
	for _, dest := range e.dir.Match(e.channelName, msg.ChannelID) {
		summary.Deliveries = append(summary.Deliveries, e.deliver(ctx, msg, dest, attachments))
	}
	return summary, nil
}

// deliver relays the message to a single destination: webhook resolve,
// identity derive, dispatch, record. Errors are captured in the returned
// Delivery, never propagated.
func (e *Engine) deliver(ctx context.Context, msg *discordgo.Message, dest directory.Channel, attachments []Attachment) Delivery {
	out := Delivery{ChannelID: dest.ID}
	log := e.log.With().
		Str("message_id", msg.ID).
		Str("destination_channel_id", dest.ID).
		Str("destination_guild_id", dest.GuildID).
		Logger()

	hook, err := e.resolver.Resolve(ctx, dest.ID)
	if err != nil {
		out.Err = err
		metrics.Deliveries.WithLabelValues(metrics.StatusFailed).Inc()
		log.Err(err).Msg("Webhook resolution failed, skipping destination")
		return out
	}

	ident := e.identity.Derive(msg.Author)

	// Fresh readers per destination; a File reader is consumed by the
	// upload that carries it.
	files := make([]*discordgo.File, 0, len(attachments))
	for _, att := range attachments {
		files = append(files, &discordgo.File{
			Name:   att.Filename,
			Reader: bytes.NewReader(att.Data),
		})
	}

	sent, err := e.api.WebhookExecute(hook.ID, hook.Token, true, &discordgo.WebhookParams{
		Content:   msg.Content,
		Username:  ident.DisplayName,
		AvatarURL: ident.AvatarURL,
		Files:     files,
		// No mention types parse on the relayed copy, so relayed text
		// cannot re-ping users, roles or everyone in remote guilds.
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	}, discordgo.WithContext(ctx))
	if err != nil {
		out.Err = fmt.Errorf("execute webhook %s: %w", hook.ID, err)
		metrics.Deliveries.WithLabelValues(metrics.StatusFailed).Inc()
		log.Err(err).Str("webhook_id", hook.ID).Msg("Webhook dispatch failed, skipping destination")
		return out
	}
	out.MessageID = sent.ID
	metrics.Deliveries.WithLabelValues(metrics.StatusDelivered).Inc()

	// A failed mapping write must not undo the delivered copy, but it
	// silently breaks future edit/delete propagation, so it is surfaced
	// loudly here and in the Delivery.
	if err := e.store.Record(ctx, msg.ID, sent.ID, dest.ID); err != nil {
		out.RecordErr = err
		metrics.MappingFailures.Inc()
		log.Err(err).Str("relayed_message_id", sent.ID).Msg("Failed to record relay mapping")
	}
	return out
}
