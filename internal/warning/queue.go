package warning

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// PendingQueue holds warnings whose recipient was offline at submission
// time, keyed by recipient identity. Entries append, never overwrite, and
// stay queued until drained or the process ends. No upper bound is
// enforced; the recipient population bounds it operationally.
type PendingQueue struct {
	logger *zap.Logger
	mu     sync.Mutex

	pending map[string][]Warning
}

func NewPendingQueue(
	logger *zap.Logger,
) *PendingQueue {
	return &PendingQueue{
		logger:  logger,
		pending: make(map[string][]Warning),
	}
}

func (q *PendingQueue) Enqueue(recipient string, w Warning) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.pending[recipient] = append(q.pending[recipient], w)

	q.logger.Debug("warning queued",
		zap.String("recipient", recipient),
		zap.String("warningId", w.Id),
		zap.Int("queueDepth", len(q.pending[recipient])))
}

// Drain removes and returns all warnings for a recipient in enqueue
// order. An empty result means nothing was pending; that is a normal
// outcome, not an error.
func (q *PendingQueue) Drain(recipient string) []Warning {
	q.mu.Lock()
	defer q.mu.Unlock()

	warnings := q.pending[recipient]
	delete(q.pending, recipient)

	return warnings
}

// Peek returns a copy of the pending warnings for a recipient without
// consuming them.
func (q *PendingQueue) Peek(recipient string) []Warning {
	q.mu.Lock()
	defer q.mu.Unlock()

	warnings := make([]Warning, len(q.pending[recipient]))
	copy(warnings, q.pending[recipient])

	return warnings
}

func (q *PendingQueue) HasPending(recipient string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.pending[recipient]) > 0
}

// Recipients lists every identity with at least one pending warning.
func (q *PendingQueue) Recipients() []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	recipients := make([]string, 0, len(q.pending))
	for recipient := range q.pending {
		recipients = append(recipients, recipient)
	}
	sort.Strings(recipients)

	return recipients
}

// Len returns the total number of queued warnings across recipients.
func (q *PendingQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	total := 0
	for _, warnings := range q.pending {
		total += len(warnings)
	}

	return total
}
