package mediahost

import (
	"context"
	"log/slog"
	"time"
)

// VerificationOutcome is the terminal result of a verification attempt.
type VerificationOutcome string

const (
	// VerificationReady means the remote host confirmed receipt. Transcoding
	// may still be running; confirmed receipt is enough to unblock the user.
	VerificationReady VerificationOutcome = "ready"
	// VerificationFailed means receipt was never confirmed within the budget.
	VerificationFailed VerificationOutcome = "permanent_failure"
)

// AssetStatusFetcher is the slice of the host client the poller needs.
type AssetStatusFetcher interface {
	AssetStatus(ctx context.Context, assetRef string) (AssetStatus, error)
}

// Poller repeatedly queries the remote host until an uploaded asset is
// confirmed received or the attempt budget runs out. Each poll is stateless
// aside from the attempt counter; transient errors consume budget but do not
// fail early.
type Poller struct {
	host     AssetStatusFetcher
	interval time.Duration
	attempts int
	logger   *slog.Logger
}

// NewPoller constructs a verification poller. The defaults give a 10 second
// interval with 30 attempts, roughly five minutes of patience.
func NewPoller(host AssetStatusFetcher, interval time.Duration, attempts int, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if attempts <= 0 {
		attempts = 30
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{host: host, interval: interval, attempts: attempts, logger: logger}
}

// Verify polls until the asset is received or the budget is exhausted. The
// returned error is ErrVerificationDeadline on budget exhaustion and the
// context error on cancellation; VerificationReady always comes with nil.
func (p *Poller) Verify(ctx context.Context, assetRef string) (VerificationOutcome, error) {
	for attempt := 1; attempt <= p.attempts; attempt++ {
		status, err := p.host.AssetStatus(ctx, assetRef)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return VerificationFailed, ctx.Err()
			}
			p.logger.Warn("verification poll failed", "assetRef", assetRef, "attempt", attempt, "error", err)
		case status.Received:
			return VerificationReady, nil
		}

		if attempt == p.attempts {
			break
		}
		if err := sleep(ctx, p.interval); err != nil {
			return VerificationFailed, err
		}
	}

	return VerificationFailed, ErrVerificationDeadline
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
