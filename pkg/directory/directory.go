// Copyright 2024-2026 Aiku AI

// Package directory maintains a read-mostly view of every channel the bot
// can see, keyed by channel ID. It is written only by gateway event
// handlers and read concurrently by relay tasks.
package directory

import (
	"sync"

	"github.com/bwmarrin/discordgo"
)

// Channel is the subset of channel metadata the relay needs.
type Channel struct {
	ID      string
	GuildID string
	Name    string
}

// Directory is a concurrency-safe channel index. The zero value is not
// usable; call New.
type Directory struct {
	mu       sync.RWMutex
	channels map[string]Channel
}

func New() *Directory {
	return &Directory{channels: make(map[string]Channel)}
}

// Lookup returns the channel with the given ID, if known.
func (d *Directory) Lookup(id string) (Channel, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ch, ok := d.channels[id]
	return ch, ok
}

// Match returns every known channel whose name equals name, excluding the
// channel with ID excludeID. Order is unspecified.
func (d *Directory) Match(name, excludeID string) []Channel {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []Channel
	for _, ch := range d.channels {
		if ch.Name != name || ch.ID == excludeID {
			continue
		}
		out = append(out, ch)
	}
	return out
}

// Upsert inserts or replaces a channel entry.
func (d *Directory) Upsert(ch Channel) {
	if ch.ID == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.channels[ch.ID] = ch
}

// Remove drops a channel entry. Unknown IDs are a no-op.
func (d *Directory) Remove(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.channels, id)
}

// ApplyGuild bulk-loads all channels carried by a guild payload, as
// delivered in GuildCreate events.
func (d *Directory) ApplyGuild(guild *discordgo.Guild) {
	if guild == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, ch := range guild.Channels {
		if ch == nil || ch.ID == "" {
			continue
		}
		gid := ch.GuildID
		if gid == "" {
			gid = guild.ID
		}
		d.channels[ch.ID] = Channel{ID: ch.ID, GuildID: gid, Name: ch.Name}
	}
}

// RemoveGuild drops every channel belonging to the given guild, as needed
// when the bot leaves or a guild becomes unavailable.
func (d *Directory) RemoveGuild(guildID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, ch := range d.channels {
		if ch.GuildID == guildID {
			delete(d.channels, id)
		}
	}
}

// Len reports the number of known channels.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.channels)
}
