// Package tasks owns the background-worker task records: units of AI
// analysis work created by capture actions and driven through their
// lifecycle by the worker. Tasks live under a single key in the local
// partition, separate from every record type the storage manager owns.
package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/tabvault/tabvault/internal/errors"
	"github.com/tabvault/tabvault/internal/kv"
	"github.com/tabvault/tabvault/internal/record"
	"github.com/tabvault/tabvault/internal/store"
)

// Store persists task records in the local partition. The mutex
// serializes read-modify-write sequences within this process, same
// discipline as the storage manager.
type Store struct {
	local kv.Partition
	mu    sync.Mutex
}

// NewStore creates a task store over the local partition.
func NewStore(local kv.Partition) *Store {
	return &Store{local: local}
}

// CreateInput contains parameters for Create.
type CreateInput struct {
	Type        string
	WorkspaceID string
	Content     string
	URL         string
	Title       string
}

// Create appends a new task in the queued state and returns it.
func (s *Store) Create(ctx context.Context, input CreateInput) (*record.Task, error) {
	if input.Type == "" {
		return nil, errors.NewInvalidRequest("task type is required")
	}
	if input.WorkspaceID == "" {
		return nil, errors.NewInvalidRequest("workspaceId is required")
	}

	id, err := record.NewID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	now := record.Now()
	task := record.Task{
		ID:          id,
		Type:        input.Type,
		WorkspaceID: input.WorkspaceID,
		Content:     input.Content,
		URL:         input.URL,
		Title:       input.Title,
		Status:      record.TaskQueued,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.readAll(ctx)
	if err != nil {
		return nil, errors.NewWriteFailed("create task", err)
	}
	list = append(list, task)
	if err := s.writeAll(ctx, list); err != nil {
		return nil, errors.NewWriteFailed("create task", err)
	}
	return &task, nil
}

// List returns every task in storage order.
func (s *Store) List(ctx context.Context) ([]record.Task, error) {
	return s.readAll(ctx)
}

// ListByWorkspace returns the tasks belonging to a workspace.
func (s *Store) ListByWorkspace(ctx context.Context, workspaceID string) ([]record.Task, error) {
	list, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []record.Task
	for _, t := range list {
		if t.WorkspaceID == workspaceID {
			out = append(out, t)
		}
	}
	return out, nil
}

// Get returns the task with the given id, or nil if absent.
func (s *Store) Get(ctx context.Context, id string) (*record.Task, error) {
	list, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range list {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, nil
}

// UpdateInput contains the mutable task fields for Update. Nil fields are
// left untouched.
type UpdateInput struct {
	Status *record.TaskStatus
	Error  *string
	Result *record.TaskResult
}

// Update applies a partial update to a task. Status changes are validated:
// completed and failed are terminal, and the target status must be a known
// one. UpdatedAt is always refreshed.
func (s *Store) Update(ctx context.Context, id string, input UpdateInput) (*record.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.readAll(ctx)
	if err != nil {
		return nil, errors.NewWriteFailed("update task", err)
	}

	idx := -1
	for i := range list {
		if list[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, errors.NewNotFound(id)
	}

	task := &list[idx]
	if input.Status != nil {
		next := *input.Status
		if !record.ValidTaskStatus(next) {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown task status %q", next))
		}
		if (task.Status == record.TaskCompleted || task.Status == record.TaskFailed) && next != task.Status {
			return nil, errors.NewConflict(fmt.Sprintf("task %s is already %s", id, task.Status))
		}
		task.Status = next
	}
	if input.Error != nil {
		task.Error = *input.Error
	}
	if input.Result != nil {
		task.Result = input.Result
	}
	task.UpdatedAt = record.Now()

	if err := s.writeAll(ctx, list); err != nil {
		return nil, errors.NewWriteFailed("update task", err)
	}
	out := *task
	return &out, nil
}

// Delete removes a task. Tasks are deletable at any state.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.readAll(ctx)
	if err != nil {
		return errors.NewWriteFailed("delete task", err)
	}

	kept := list[:0]
	found := false
	for _, t := range list {
		if t.ID == id {
			found = true
			continue
		}
		kept = append(kept, t)
	}
	if !found {
		return errors.NewNotFound(id)
	}

	if err := s.writeAll(ctx, kept); err != nil {
		return errors.NewWriteFailed("delete task", err)
	}
	return nil
}

func (s *Store) readAll(ctx context.Context) ([]record.Task, error) {
	items, err := s.local.Get(ctx, store.KeyTasks)
	if err != nil {
		return nil, err
	}
	raw, ok := items[store.KeyTasks]
	if !ok {
		return nil, nil
	}
	var list []record.Task
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Store) writeAll(ctx context.Context, list []record.Task) error {
	raw, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return s.local.Set(ctx, map[string]json.RawMessage{store.KeyTasks: raw})
}
