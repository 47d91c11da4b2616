package chatclient

import (
	"context"
	"time"

	"crm-chat-server/internal/chat"
)

// DefaultPollInterval matches the reference cadence of the web client.
const DefaultPollInterval = 3 * time.Second

// Poller re-fetches one conversation on a fixed interval to approximate
// real-time delivery without a persistent connection. A zero Interval falls
// back to DefaultPollInterval. Fetch failures are swallowed; the loop simply
// tries again on the next tick.
type Poller struct {
	Client   *Client
	Interval time.Duration

	// OnSnapshot receives each successfully fetched page. Snapshots always
	// arrive in fetch-completion order from a single goroutine, so the last
	// delivered page is the freshest completed fetch.
	OnSnapshot func(*chat.MessagePage)
}

// Run polls the conversation with otherUserID until ctx is cancelled. The
// first fetch happens immediately, then once per interval. Switching
// conversations is done by cancelling and starting a new Run.
func (p *Poller) Run(ctx context.Context, otherUserID string, page, limit int) {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	p.poll(ctx, otherUserID, page, limit)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx, otherUserID, page, limit)
		}
	}
}

func (p *Poller) poll(ctx context.Context, otherUserID string, page, limit int) {
	result, err := p.Client.Messages(ctx, otherUserID, page, limit)
	if err != nil {
		// Transient failures are not surfaced; the next tick retries.
		return
	}
	if p.OnSnapshot != nil {
		p.OnSnapshot(result)
	}
}
