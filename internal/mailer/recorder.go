package mailer

import (
	"context"
	"sync"
)

// Recorder keeps sent messages in memory and optionally fails every send.
// Tests use it in place of a real backend.
type Recorder struct {
	mu   sync.Mutex
	Err  error
	sent []Message
}

func (r *Recorder) Send(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.sent = append(r.sent, msg)
	return nil
}

// Sent returns a copy of the delivered messages.
func (r *Recorder) Sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.sent...)
}
