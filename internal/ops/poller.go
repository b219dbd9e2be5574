package ops

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/mediafabric/fabric-client/pkg/logger"
)

// DefaultMaxChecks is the poll iteration budget: one feed check per second,
// so roughly five minutes of waiting.
const DefaultMaxChecks = 300

// PollResult is the outcome of a poll loop. Complete=false after the budget
// is exhausted is a timeout, not an error: the remote operation may still
// finish, and the caller must resubmit explicitly if it wants to retry.
type PollResult struct {
	Complete bool
	Checks   int
	Entry    *StatusEntry
	Parsed   *ParsedOp
}

// Matcher reports whether a decoded feed entry is the caller's operation.
type Matcher func(parsed *ParsedOp, entry *StatusEntry) bool

// Poller drives the status-feed side of the act/poll protocol. Polling is
// sequential: one feed request per tick, paced by a rate limiter. Distinct
// operations may run their own poll loops concurrently without coordination
// since each is addressed by its own correlation fields.
type Poller struct {
	client    *Client
	maxChecks int
	limiter   *rate.Limiter
	log       *logger.Logger
}

// PollerOption adjusts a Poller.
type PollerOption func(*Poller)

// WithMaxChecks overrides the iteration budget.
func WithMaxChecks(n int) PollerOption {
	return func(p *Poller) {
		if n > 0 {
			p.maxChecks = n
		}
	}
}

// WithLimit overrides the tick pacing.
func WithLimit(limit rate.Limit) PollerOption {
	return func(p *Poller) { p.limiter = rate.NewLimiter(limit, 1) }
}

// NewPoller creates a poller over the operations client.
func NewPoller(client *Client, opts ...PollerOption) *Poller {
	p := &Poller{
		client:    client,
		maxChecks: DefaultMaxChecks,
		limiter:   rate.NewLimiter(rate.Every(pollInterval), 1),
		log:       client.log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// pollInterval is the pacing of feed checks: one per second.
const pollInterval = time.Second

// Poll scans the tenant's status feed once per tick until a completed entry
// matches, the iteration budget runs out, or the context is canceled.
// Entries whose op string fails its opcode schema are skipped. Canceling the
// context only stops waiting; the remote operation keeps running.
func (p *Poller) Poll(ctx context.Context, tenantID string, match Matcher) (PollResult, error) {
	for check := 1; check <= p.maxChecks; check++ {
		if err := p.limiter.Wait(ctx); err != nil {
			return PollResult{Checks: check - 1}, err
		}

		entries, err := p.client.StatusFeed(ctx, tenantID)
		if err != nil {
			return PollResult{Checks: check}, err
		}
		for i := range entries {
			entry := &entries[i]
			if entry.Status != StatusComplete {
				continue
			}
			parsed, err := ParseOp(entry.Op)
			if err != nil {
				p.log.WithError(err).Debug("skipping unparseable status entry")
				continue
			}
			if match(parsed, entry) {
				p.log.WithField("op", entry.Op).WithField("checks", check).Info("operation complete")
				return PollResult{Complete: true, Checks: check, Entry: entry, Parsed: parsed}, nil
			}
		}
	}
	p.log.WithField("max_checks", p.maxChecks).Warn("poll budget exhausted without completion")
	return PollResult{Checks: p.maxChecks}, nil
}
