// Copyright 2024-2026 Aiku AI

package relay

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/aiku/globalchat/pkg/directory"
	"github.com/aiku/globalchat/pkg/store"
)

// execution records one WebhookExecute call for test assertions.
type execution struct {
	WebhookID string
	Token     string
	Wait      bool
	Params    *discordgo.WebhookParams
}

// fakeDiscord is a recording WebhookAPI fake. Webhook IDs are derived from
// the channel ID ("hook-<channel>") so assertions can tie an execution
// back to its destination.
type fakeDiscord struct {
	mu sync.Mutex

	// Webhooks maps channel ID to installed webhooks.
	Webhooks map[string][]*discordgo.Webhook
	// FailList, FailCreate and FailExecute inject per-channel failures.
	FailList    map[string]bool
	FailCreate  map[string]bool
	FailExecute map[string]bool

	listCalls  []string
	created    []string
	executions []execution
	nextMsgID  int
}

var _ WebhookAPI = (*fakeDiscord)(nil)

func newFakeDiscord() *fakeDiscord {
	return &fakeDiscord{
		Webhooks:    make(map[string][]*discordgo.Webhook),
		FailList:    make(map[string]bool),
		FailCreate:  make(map[string]bool),
		FailExecute: make(map[string]bool),
	}
}

func (f *fakeDiscord) ChannelWebhooks(channelID string, _ ...discordgo.RequestOption) ([]*discordgo.Webhook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls = append(f.listCalls, channelID)
	if f.FailList[channelID] {
		return nil, fmt.Errorf("simulated list failure for %s", channelID)
	}
	return f.Webhooks[channelID], nil
}

func (f *fakeDiscord) WebhookCreate(channelID, name, _ string, _ ...discordgo.RequestOption) (*discordgo.Webhook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailCreate[channelID] {
		return nil, fmt.Errorf("simulated create failure for %s", channelID)
	}
	hook := &discordgo.Webhook{
		ID:        "hook-" + channelID,
		ChannelID: channelID,
		Name:      name,
		Token:     "token-" + channelID,
	}
	f.Webhooks[channelID] = append(f.Webhooks[channelID], hook)
	f.created = append(f.created, channelID)
	return hook, nil
}

func (f *fakeDiscord) WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	channelID := channelOfHook(webhookID)
	if f.FailExecute[channelID] {
		return nil, fmt.Errorf("simulated execute failure for %s", channelID)
	}
	f.executions = append(f.executions, execution{
		WebhookID: webhookID,
		Token:     token,
		Wait:      wait,
		Params:    data,
	})
	f.nextMsgID++
	return &discordgo.Message{ID: fmt.Sprintf("relayed-%d", f.nextMsgID), ChannelID: channelID}, nil
}

func channelOfHook(webhookID string) string {
	if len(webhookID) > len("hook-") {
		return webhookID[len("hook-"):]
	}
	return webhookID
}

func (f *fakeDiscord) ListCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.listCalls...)
}

func (f *fakeDiscord) Created() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.created...)
}

func (f *fakeDiscord) Executions() []execution {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]execution(nil), f.executions...)
}

// seedWebhook installs an existing relay webhook on a channel.
func (f *fakeDiscord) seedWebhook(channelID, name string) *discordgo.Webhook {
	hook := &discordgo.Webhook{
		ID:        "hook-" + channelID,
		ChannelID: channelID,
		Name:      name,
		Token:     "token-" + channelID,
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Webhooks[channelID] = append(f.Webhooks[channelID], hook)
	return hook
}

// mappingRow is one recorded relay mapping.
type mappingRow struct {
	OriginalID string
	MessageID  string
	ChannelID  string
}

// fakeStore is an in-memory Store with per-channel failure injection.
type fakeStore struct {
	mu sync.Mutex

	FailChannels map[string]bool
	rows         []mappingRow
}

var _ store.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{FailChannels: make(map[string]bool)}
}

func (s *fakeStore) Record(_ context.Context, originalID, messageID, channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailChannels[channelID] {
		return fmt.Errorf("simulated record failure for %s", channelID)
	}
	s.rows = append(s.rows, mappingRow{OriginalID: originalID, MessageID: messageID, ChannelID: channelID})
	return nil
}

func (s *fakeStore) LookupAll(_ context.Context, originalID string) ([]store.Relayed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []store.Relayed
	for _, r := range s.rows {
		if r.OriginalID == originalID {
			out = append(out, store.Relayed{MessageID: r.MessageID, ChannelID: r.ChannelID})
		}
	}
	return out, nil
}

func (s *fakeStore) Rows() []mappingRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mappingRow(nil), s.rows...)
}

// newTestEngine wires an engine over the fakes with the reserved name
// "globalchat-rs" and a directory pre-loaded with the given channels.
func newTestEngine(fd *fakeDiscord, fs *fakeStore, channels ...directory.Channel) *Engine {
	dir := directory.New()
	for _, ch := range channels {
		dir.Upsert(ch)
	}
	return NewEngine(dir, fd, fs, "globalchat-rs", 0, zerolog.Nop())
}

// humanMessage builds an eligible inbound message from a non-bot author.
func humanMessage(id, channelID string) *discordgo.Message {
	return &discordgo.Message{
		ID:        id,
		ChannelID: channelID,
		Content:   "hi",
		Author: &discordgo.User{
			ID:            "7",
			Username:      "alice",
			Discriminator: "0",
		},
	}
}
