package repository

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lib/pq"
)

// taskChannel is the NOTIFY channel raised by the tasks table trigger
// (see migrations). The notification payload is the owner's user id.
const taskChannel = "task_changed"

// TaskListener converts Postgres NOTIFY traffic into a stream of owner
// ids whose task collections changed. An empty owner id is a resync
// signal: the underlying connection was re-established and notifications
// may have been missed, so every standing query must be refreshed.
//
// Reconnection is handled by pq.Listener; this type never terminates the
// stream on a transport error.
type TaskListener struct {
	listener *pq.Listener
	logger   *slog.Logger
	changes  chan string
	done     chan struct{}
	once     sync.Once
}

func NewTaskListener(dsn string, minReconnect, maxReconnect time.Duration, logger *slog.Logger) (*TaskListener, error) {
	l := &TaskListener{
		logger:  logger,
		changes: make(chan string, 16),
		done:    make(chan struct{}),
	}

	l.listener = pq.NewListener(dsn, minReconnect, maxReconnect, l.logEvent)
	if err := l.listener.Listen(taskChannel); err != nil {
		l.listener.Close()
		return nil, fmt.Errorf("failed to listen on %q: %w", taskChannel, err)
	}

	go l.run()
	return l, nil
}

func (l *TaskListener) logEvent(ev pq.ListenerEventType, err error) {
	if err != nil {
		l.logger.Warn("task listener connection event", "event", int(ev), "error", err)
	}
}

func (l *TaskListener) run() {
	for {
		select {
		case n, ok := <-l.listener.Notify:
			if !ok {
				return
			}
			// A nil notification means the connection dropped and came
			// back; emit a resync so no subscriber is left stale.
			owner := ""
			if n != nil {
				owner = n.Extra
			}
			select {
			case l.changes <- owner:
			case <-l.done:
				return
			}
		case <-l.done:
			return
		}
	}
}

// Changes is the stream of owner ids with changed task collections.
func (l *TaskListener) Changes() <-chan string {
	return l.changes
}

func (l *TaskListener) Close() error {
	l.once.Do(func() { close(l.done) })
	return l.listener.Close()
}
