// Copyright 2024-2026 Aiku AI

package relay

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Attachment is a source attachment downloaded into memory, ready for
// re-upload through a destination webhook.
type Attachment struct {
	ID       string
	Filename string
	Data     []byte
}

// AttachmentFetcher downloads source attachments from their hosted URLs.
type AttachmentFetcher struct {
	client *http.Client
}

// NewAttachmentFetcher returns a fetcher whose HTTP calls are bounded by
// timeout. A zero timeout leaves the client defaults in place.
func NewAttachmentFetcher(timeout time.Duration) *AttachmentFetcher {
	return &AttachmentFetcher{client: &http.Client{Timeout: timeout}}
}

// FetchAll downloads every attachment in order. Any failure aborts the
// whole fetch; partial results are never returned, so a message is either
// relayed with all of its attachments or not at all.
func (f *AttachmentFetcher) FetchAll(ctx context.Context, attachments []*discordgo.MessageAttachment) ([]Attachment, error) {
	if len(attachments) == 0 {
		return nil, nil
	}
	out := make([]Attachment, 0, len(attachments))
	for _, att := range attachments {
		data, err := f.fetch(ctx, att.URL)
		if err != nil {
			return nil, fmt.Errorf("attachment %s (%s): %w", att.ID, att.Filename, err)
		}
		out = append(out, Attachment{ID: att.ID, Filename: att.Filename, Data: data})
	}
	return out, nil
}

func (f *AttachmentFetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}
