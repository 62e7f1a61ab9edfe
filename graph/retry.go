package graph

import (
	"context"
	"strings"
	"time"
)

func (r *StateRunnable[S]) executeWithRetry(ctx context.Context, node Node[S], state S) (S, error) {
	policy := r.graph.retryPolicy
	attempts := 1
	if policy != nil {
		attempts += policy.MaxRetries
	}

	var (
		out S
		err error
	)
	for attempt := 0; attempt < attempts; attempt++ {
		out, err = node.Function(ctx, state)
		if err == nil {
			return out, nil
		}
		if attempt == attempts-1 || !policy.retryable(err) {
			break
		}
		select {
		case <-time.After(policy.delay(attempt)):
		case <-ctx.Done():
			var zero S
			return zero, ctx.Err()
		}
	}
	return out, err
}

func (p *RetryPolicy) retryable(err error) bool {
	if p == nil {
		return false
	}
	if len(p.RetryableErrors) == 0 {
		return true
	}
	msg := err.Error()
	for _, pattern := range p.RetryableErrors {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// delay returns the wait before retry number attempt+1.
func (p *RetryPolicy) delay(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	switch p.BackoffStrategy {
	case ExponentialBackoff:
		return base * time.Duration(1<<attempt)
	case LinearBackoff:
		return base * time.Duration(attempt+1)
	default:
		return base
	}
}
