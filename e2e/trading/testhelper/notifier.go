package testhelper

import (
	"context"
	"strings"
	"sync"

	"github.com/rxtech-lab/argo-scalper/internal/notify"
)

// RecordingNotifier keeps every message it is asked to send.
type RecordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

var _ notify.Notifier = (*RecordingNotifier)(nil)

// NewRecordingNotifier creates an empty RecordingNotifier.
func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{
		mu:       sync.Mutex{},
		messages: nil,
	}
}

// Send implements notify.Notifier.
func (n *RecordingNotifier) Send(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.messages = append(n.messages, text)

	return nil
}

// Messages returns a copy of the sent messages.
func (n *RecordingNotifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]string(nil), n.messages...)
}

// Count returns how many messages start with prefix.
func (n *RecordingNotifier) Count(prefix string) int {
	count := 0

	for _, m := range n.Messages() {
		if strings.HasPrefix(m, prefix) {
			count++
		}
	}

	return count
}
