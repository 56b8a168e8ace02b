// Copyright 2024-2026 Aiku AI

package relay

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// WebhookAPI is the slice of the Discord REST surface the relay touches.
// *discordgo.Session satisfies it; tests inject a recording fake.
type WebhookAPI interface {
	ChannelWebhooks(channelID string, options ...discordgo.RequestOption) ([]*discordgo.Webhook, error)
	WebhookCreate(channelID, name, avatar string, options ...discordgo.RequestOption) (*discordgo.Webhook, error)
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

var _ WebhookAPI = (*discordgo.Session)(nil)

// WebhookResolver implements the get-or-create protocol for relay webhooks:
// the first webhook on the destination channel carrying the reserved name
// wins; if none exists, one is created.
//
// The protocol is not atomic under concurrency. Two racing resolutions on a
// webhook-less channel can both create, leaving duplicate webhooks with the
// reserved name. Duplicates still deliver correctly; later resolutions pick
// some first match, not a canonical one.
type WebhookResolver struct {
	api  WebhookAPI
	name string
}

func NewWebhookResolver(api WebhookAPI, name string) *WebhookResolver {
	return &WebhookResolver{api: api, name: name}
}

// Resolve returns the relay webhook for the destination channel, creating
// it if absent. The returned webhook carries the token needed to post
// without channel-management permission.
func (r *WebhookResolver) Resolve(ctx context.Context, channelID string) (*discordgo.Webhook, error) {
	hooks, err := r.api.ChannelWebhooks(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("list webhooks for channel %s: %w", channelID, err)
	}
	for _, hook := range hooks {
		if hook.Name == r.name {
			return hook, nil
		}
	}
	hook, err := r.api.WebhookCreate(channelID, r.name, "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("create webhook on channel %s: %w", channelID, err)
	}
	return hook, nil
}
