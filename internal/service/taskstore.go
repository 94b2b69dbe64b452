package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/jaekwang-park/task-sync/internal/model"
	"github.com/jaekwang-park/task-sync/internal/repository"
)

// ChangeFeed is the push channel of the document store: a stream of
// owner ids whose task collections changed. An empty owner id is a
// resync signal — every standing query must be refreshed.
type ChangeFeed interface {
	Changes() <-chan string
}

// TaskStore owns the live task list for each subscribed owner and all
// mutation operations on it. Every emission is the complete current
// result set for that owner, never a diff.
type TaskStore struct {
	repo   repository.TaskRepository
	feed   ChangeFeed
	logger *slog.Logger

	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

func NewTaskStore(repo repository.TaskRepository, feed ChangeFeed, logger *slog.Logger) *TaskStore {
	return &TaskStore{
		repo:   repo,
		feed:   feed,
		logger: logger,
		subs:   make(map[*Subscription]struct{}),
	}
}

// Run dispatches change-feed events to standing subscriptions until ctx
// is cancelled or the feed closes.
func (s *TaskStore) Run(ctx context.Context) {
	for {
		select {
		case owner, ok := <-s.feed.Changes():
			if !ok {
				return
			}
			s.refresh(ctx, owner)
		case <-ctx.Done():
			return
		}
	}
}

func (s *TaskStore) refresh(ctx context.Context, owner string) {
	s.mu.Lock()
	targets := make([]*Subscription, 0, len(s.subs))
	for sub := range s.subs {
		if owner == "" || sub.owner == owner {
			targets = append(targets, sub)
		}
	}
	s.mu.Unlock()

	for _, sub := range targets {
		s.emit(ctx, sub)
	}
}

// emit queries the current result set and pushes it to sub. On a query
// failure nothing is emitted: the subscriber keeps its last known-good
// snapshot until the next successful refresh.
func (s *TaskStore) emit(ctx context.Context, sub *Subscription) {
	tasks, err := s.repo.ListByOwner(ctx, sub.owner)
	if err != nil {
		s.logger.Warn("task snapshot query failed", "owner", sub.owner, "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[sub]; !ok {
		return
	}
	sendLatest(sub.ch, tasks)
}

// Subscription is a standing live query over one owner's tasks. Close
// must be called when the owning scope is torn down; an unclosed
// subscription is a leaked resource, not a harmless idle stream.
type Subscription struct {
	owner string
	store *TaskStore
	ch    chan []model.Task
	done  chan struct{}
	once  sync.Once
}

// C carries complete snapshots. Only the latest undelivered snapshot is
// retained for a slow consumer. The channel closes on Close.
func (sub *Subscription) C() <-chan []model.Task {
	return sub.ch
}

func (sub *Subscription) Close() {
	sub.once.Do(func() {
		sub.store.mu.Lock()
		delete(sub.store.subs, sub)
		sub.store.mu.Unlock()
		close(sub.done)
		close(sub.ch)
	})
}

// Subscribe opens a live query for the given owner's tasks. The initial
// full snapshot is delivered before any change event. The subscription
// closes when ctx is cancelled or Close is called.
func (s *TaskStore) Subscribe(ctx context.Context, owner string) (*Subscription, error) {
	if owner == "" {
		return nil, fmt.Errorf("%w: subscription requires a signed-in owner", ErrNotAuthenticated)
	}

	sub := &Subscription{
		owner: owner,
		store: s,
		ch:    make(chan []model.Task, 1),
		done:  make(chan struct{}),
	}

	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()

	s.emit(ctx, sub)

	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.done:
		}
	}()

	return sub, nil
}

// Follow keeps one task stream aligned with a changing identity: each
// new identity replaces the inner subscription, and a nil identity tears
// it down and yields an empty list. The returned channel closes when ctx
// is cancelled or the identity stream closes.
func (s *TaskStore) Follow(ctx context.Context, identities <-chan *model.Identity) <-chan []model.Task {
	out := make(chan []model.Task, 1)

	go func() {
		defer close(out)

		var sub *Subscription
		closeSub := func() {
			if sub != nil {
				sub.Close()
				sub = nil
			}
		}
		defer closeSub()

		var snapshots <-chan []model.Task
		for {
			select {
			case id, ok := <-identities:
				if !ok {
					return
				}
				closeSub()
				snapshots = nil
				if id == nil {
					sendLatest(out, []model.Task{})
					continue
				}
				next, err := s.Subscribe(ctx, id.UserID)
				if err != nil {
					s.logger.Warn("follow resubscribe failed", "user_id", id.UserID, "error", err)
					continue
				}
				sub = next
				snapshots = next.C()
			case tasks, ok := <-snapshots:
				if !ok {
					snapshots = nil
					continue
				}
				sendLatest(out, tasks)
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// List returns the complete current result set for the owner, identical
// to what a fresh subscription would emit first.
func (s *TaskStore) List(ctx context.Context, owner string) ([]model.Task, error) {
	if owner == "" {
		return nil, fmt.Errorf("%w: sign in to view tasks", ErrNotAuthenticated)
	}

	tasks, err := s.repo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// Create writes a new task through to the store. The caller's visible
// list updates only via the next subscription emission.
func (s *TaskStore) Create(ctx context.Context, owner, title string) (model.Task, error) {
	if owner == "" {
		return model.Task{}, fmt.Errorf("%w: sign in to add tasks", ErrNotAuthenticated)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Task{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	created, err := s.repo.Create(ctx, model.Task{UserID: owner, Title: title})
	if err != nil {
		return model.Task{}, fmt.Errorf("failed to create task: %w", err)
	}
	return created, nil
}

// Update applies a partial overwrite of title and/or completion.
func (s *TaskStore) Update(ctx context.Context, owner, taskID string, patch model.TaskPatch) (model.Task, error) {
	if owner == "" {
		return model.Task{}, fmt.Errorf("%w: sign in to edit tasks", ErrNotAuthenticated)
	}
	if patch.IsEmpty() {
		return model.Task{}, fmt.Errorf("%w: patch has no fields", ErrInvalidInput)
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return model.Task{}, fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
		}
		patch.Title = &title
	}

	updated, err := s.repo.Patch(ctx, owner, taskID, patch)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// A row the caller cannot see and a row that does not exist
			// are indistinguishable under owner-scoped writes.
			return model.Task{}, fmt.Errorf("%w: task %s", ErrPermissionDenied, taskID)
		}
		return model.Task{}, fmt.Errorf("failed to update task: %w", err)
	}
	return updated, nil
}

// Delete removes a task. Deleting an id that is already gone is success,
// not an error.
func (s *TaskStore) Delete(ctx context.Context, owner, taskID string) error {
	if owner == "" {
		return fmt.Errorf("%w: sign in to delete tasks", ErrNotAuthenticated)
	}

	found, err := s.repo.Delete(ctx, owner, taskID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if !found {
		s.logger.Debug("delete of absent task", "owner", owner, "task_id", taskID)
	}
	return nil
}
