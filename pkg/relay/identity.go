// Copyright 2024-2026 Aiku AI

package relay

import (
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"
)

// avatarURLTemplate is the CDN template used for both custom avatar hashes
// and derived default-avatar indexes, matching the upstream relay behavior.
const avatarURLTemplate = "https://cdn.discordapp.com/avatars/%s/%s.png"

// Identity is the presented name and avatar for one relayed copy. It is
// derived fresh per relay attempt and never stored.
type Identity struct {
	DisplayName string
	AvatarURL   string
}

// IdentityDeriver computes the spoofed webhook identity for a relayed
// message. Derivation is pure; it performs no network calls.
type IdentityDeriver struct {
	// NoDiscriminatorIndex overrides the default-avatar index used for
	// accounts on the unique-username scheme (discriminator 0). The
	// platform's true selection rule is undocumented; the default here is
	// id >> 4 and duplicates upstream behavior rather than verified
	// arithmetic.
	NoDiscriminatorIndex func(authorID uint64) uint64
}

// Derive computes the identity to present for the given author.
func (d IdentityDeriver) Derive(author *discordgo.User) Identity {
	return Identity{
		DisplayName: author.Username,
		AvatarURL:   fmt.Sprintf(avatarURLTemplate, author.ID, d.avatarValue(author)),
	}
}

// avatarValue resolves the path component of the avatar URL: a custom
// avatar hash wins, otherwise a default-avatar index derived from the
// legacy discriminator scheme.
func (d IdentityDeriver) avatarValue(author *discordgo.User) string {
	if author.Avatar != "" {
		return author.Avatar
	}
	disc, err := strconv.ParseUint(author.Discriminator, 10, 64)
	if err != nil {
		disc = 0
	}
	if disc == 0 {
		id, err := strconv.ParseUint(author.ID, 10, 64)
		if err != nil {
			return "0"
		}
		idx := d.NoDiscriminatorIndex
		if idx == nil {
			idx = defaultAvatarIndex
		}
		return strconv.FormatUint(idx(id), 10)
	}
	return strconv.FormatUint(disc%5, 10)
}

func defaultAvatarIndex(authorID uint64) uint64 {
	return authorID >> 4
}
