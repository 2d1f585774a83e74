package notifier

import (
	"context"
	"log"
	"sync"
)

// Notifier delivers a rendered run summary.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// LogNotifier writes summaries to the process log.
type LogNotifier struct{}

// NewLogNotifier creates a new LogNotifier.
func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (n *LogNotifier) Send(_ context.Context, text string) error {
	log.Printf("[INFO] summary:\n%s", text)
	return nil
}

// MemoryNotifier keeps every summary it is sent.
type MemoryNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *MemoryNotifier) Send(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, text)
	return nil
}

// Messages returns a copy of the received summaries.
func (n *MemoryNotifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}
