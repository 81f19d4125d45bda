package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/storefront-tools/demo-provisioner/internal/application/errs"
)

type Policy struct {
	MaxAttempts       int
	BaseDelay         time.Duration
	RetryableStatuses []int
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:       3,
		BaseDelay:         time.Second,
		RetryableStatuses: []int{http.StatusServiceUnavailable, http.StatusGatewayTimeout},
	}
}

type Executor struct {
	policy Policy
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewExecutor(policy Policy) *Executor {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 3
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = time.Second
	}
	return &Executor{policy: policy, sleep: sleepCtx}
}

// Do runs op up to MaxAttempts times. Rate-limited responses honor the
// server's retry-after exactly; other transient failures back off as
// base * attempt. Non-retryable errors surface immediately. Operations passed
// here must not retry internally.
func (e *Executor) Do(ctx context.Context, name string, op func(ctx context.Context) error) error {
	var last *errs.OrchestratorError
	for attempt := 1; attempt <= e.policy.MaxAttempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		oe := errs.As(err)
		if !e.retryable(oe) {
			return oe
		}
		last = oe
		if attempt == e.policy.MaxAttempts {
			break
		}
		delay := e.policy.BaseDelay * time.Duration(attempt)
		if oe.Code == errs.CodeRateLimited && oe.RetryAfter > 0 {
			delay = oe.RetryAfter
		}
		slog.Warn("retrying operation", "op", name, "attempt", attempt, "delay", delay, "err", oe)
		if err := e.sleep(ctx, delay); err != nil {
			return errs.Network(err)
		}
	}
	if last.Code == errs.CodeRateLimited {
		return last
	}
	return &errs.OrchestratorError{
		Code:    errs.CodeNetwork,
		Message: fmt.Sprintf("giving up after %d attempts", e.policy.MaxAttempts),
		Err:     last,
	}
}

func (e *Executor) retryable(err *errs.OrchestratorError) bool {
	if err.Code == errs.CodeRateLimited {
		return true
	}
	if err.Code != errs.CodeNetwork {
		return false
	}
	if err.Status == 0 {
		// transport-level failure or timeout, no status to inspect
		return true
	}
	for _, status := range e.policy.RetryableStatuses {
		if err.Status == status {
			return true
		}
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsCancelled reports whether an error chain ends in context cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
