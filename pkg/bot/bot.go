// Copyright 2024-2026 Aiku AI

// Package bot wires the relay engine to the Discord gateway: session
// construction, intent selection, directory maintenance from guild and
// channel events, and one relay task per inbound message.
package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/aiku/globalchat/pkg/directory"
	"github.com/aiku/globalchat/pkg/relay"
)

// NewSession builds a gateway session with the intents the relay needs:
// guilds for channel discovery, guild messages plus message content for
// the relayed text and attachments.
func NewSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent
	return session, nil
}

// Bot owns the gateway lifecycle and event handlers.
type Bot struct {
	session *discordgo.Session
	dir     *directory.Directory
	engine  *relay.Engine
	version string
	log     zerolog.Logger

	// ctx is set before the session opens and governs in-flight relay
	// tasks; cancelling it abandons them on shutdown.
	ctx context.Context
}

// New registers the relay's event handlers on the session.
func New(session *discordgo.Session, dir *directory.Directory, engine *relay.Engine, version string, log zerolog.Logger) *Bot {
	b := &Bot{
		session: session,
		dir:     dir,
		engine:  engine,
		version: version,
		log:     log.With().Str("component", "bot").Logger(),
	}
	session.AddHandler(b.onReady)
	session.AddHandler(b.onGuildCreate)
	session.AddHandler(b.onGuildDelete)
	session.AddHandler(b.onChannelCreate)
	session.AddHandler(b.onChannelUpdate)
	session.AddHandler(b.onChannelDelete)
	session.AddHandler(b.onMessageCreate)
	session.AddHandler(b.onDisconnect)
	return b
}

// Run opens the gateway connection and blocks until ctx is cancelled. A
// failed open is fatal; transient gateway drops are handled by the
// session's own reconnect loop.
func (b *Bot) Run(ctx context.Context) error {
	b.ctx = ctx
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	b.log.Info().Msg("Gateway connected")
	<-ctx.Done()
	b.log.Info().Msg("Shutting down")
	if err := b.session.Close(); err != nil {
		return fmt.Errorf("close gateway: %w", err)
	}
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	if err := s.UpdateGameStatus(0, "v"+b.version); err != nil {
		b.log.Warn().Err(err).Msg("Failed to set presence")
	}
	b.log.Info().Int("guilds", len(r.Guilds)).Msg("The bot is ready")
}

func (b *Bot) onGuildCreate(_ *discordgo.Session, g *discordgo.GuildCreate) {
	b.dir.ApplyGuild(g.Guild)
	b.log.Debug().
		Str("guild_id", g.ID).
		Int("channels", len(g.Channels)).
		Msg("Guild channels indexed")
}

func (b *Bot) onGuildDelete(_ *discordgo.Session, g *discordgo.GuildDelete) {
	// Covers both leaving a guild and a guild outage; an outage ends with
	// a fresh GuildCreate that re-indexes the channels.
	b.dir.RemoveGuild(g.ID)
	b.log.Debug().Str("guild_id", g.ID).Msg("Guild channels dropped")
}

func (b *Bot) onChannelCreate(_ *discordgo.Session, c *discordgo.ChannelCreate) {
	b.dir.Upsert(directory.Channel{ID: c.ID, GuildID: c.GuildID, Name: c.Name})
}

func (b *Bot) onChannelUpdate(_ *discordgo.Session, c *discordgo.ChannelUpdate) {
	b.dir.Upsert(directory.Channel{ID: c.ID, GuildID: c.GuildID, Name: c.Name})
}

func (b *Bot) onChannelDelete(_ *discordgo.Session, c *discordgo.ChannelDelete) {
	b.dir.Remove(c.ID)
}

func (b *Bot) onDisconnect(_ *discordgo.Session, _ *discordgo.Disconnect) {
	b.log.Warn().Msg("Gateway disconnected, reconnecting")
}

func (b *Bot) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	// One independent task per inbound event; distinct messages relay
	// concurrently with no ordering guarantee between them.
	go b.handleMessage(m.Message)
}

func (b *Bot) handleMessage(msg *discordgo.Message) {
	summary, err := b.engine.Relay(b.ctx, msg)
	if err != nil {
		b.log.Err(err).Str("message_id", msg.ID).Msg("Relay aborted")
		return
	}
	if summary == nil {
		return
	}
	b.log.Info().
		Str("message_id", summary.OriginalID).
		Int("delivered", summary.Delivered()).
		Int("failed", summary.Failed()).
		Msg("Message relayed")
}
