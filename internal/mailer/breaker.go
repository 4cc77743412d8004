package mailer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type BreakerState string

const (
	StateClosed   BreakerState = "closed"
	StateOpen     BreakerState = "open"
	StateHalfOpen BreakerState = "half-open"
)

// ErrBreakerOpen is returned without contacting the backend while the
// breaker is open.
var ErrBreakerOpen = errors.New("mail delivery suspended after repeated failures")

// Breaker stops calling a failing backend for resetTimeout after
// maxFailures consecutive errors, then lets one probe through.
type Breaker struct {
	next         Mailer
	maxFailures  int
	resetTimeout time.Duration
	now          func() time.Time

	mu          sync.Mutex
	state       BreakerState
	failures    int
	lastFailure time.Time
	probing     bool
}

func NewBreaker(next Mailer, maxFailures int, resetTimeout time.Duration) *Breaker {
	if maxFailures < 1 {
		maxFailures = 1
	}
	return &Breaker{
		next:         next,
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		now:          time.Now,
		state:        StateClosed,
	}
}

func (b *Breaker) Send(ctx context.Context, msg Message) error {
	b.mu.Lock()
	if b.state == StateOpen {
		if b.now().Sub(b.lastFailure) <= b.resetTimeout {
			b.mu.Unlock()
			return ErrBreakerOpen
		}
		b.state = StateHalfOpen
		b.probing = false
	}
	if b.state == StateHalfOpen {
		if b.probing {
			b.mu.Unlock()
			return ErrBreakerOpen
		}
		b.probing = true
	}
	b.mu.Unlock()

	err := b.next.Send(ctx, msg)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.failures++
		b.lastFailure = b.now()
		if b.state == StateHalfOpen || b.failures >= b.maxFailures {
			if b.state != StateOpen {
				logrus.WithError(err).Warn("mail breaker opened")
			}
			b.state = StateOpen
		}
		return err
	}
	b.state = StateClosed
	b.failures = 0
	b.probing = false
	return nil
}

// State returns the current breaker state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
