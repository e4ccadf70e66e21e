package webhook

import (
	"context"
	"sync"
)

// Fake answers every Send with a canned reply or error and remembers what it was sent.
type Fake struct {
	mu    sync.Mutex
	reply string
	err   error
	calls []string
}

func NewFake(reply string, err error) *Fake {
	return &Fake{reply: reply, err: err}
}

func (f *Fake) Send(_ context.Context, text string) (Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, text)
	if f.err != nil {
		return Reply{}, f.err
	}
	return Reply{Text: f.reply, StatusCode: 200, Metrics: &NetworkMetrics{}}, nil
}

func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}
