// Package controller owns the client-side task collection and runs
// the optimistic-update protocol against the remote store: mutate
// locally first, confirm remotely, roll back on failure. After any
// operation settles the collection is either the server-confirmed
// state or the exact pre-mutation state, never something in between.
package controller

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskdeck/taskdeck/internal/client/api"
)

// ErrEmptyTitle is reported when a create or rename is rejected
// locally; no network call is made in that case.
var ErrEmptyTitle = errors.New("title cannot be empty")

// ErrTaskNotFound is reported for operations on an id that is not in
// the local collection.
var ErrTaskNotFound = errors.New("task not found in collection")

type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// RemoteStore is the slice of the API client the controller needs.
type RemoteStore interface {
	List(ctx context.Context, params api.ListParams) (*api.TaskPage, error)
	Create(ctx context.Context, title string) (*api.Task, error)
	Update(ctx context.Context, id string, update api.TaskUpdate) (*api.Task, error)
	Toggle(ctx context.Context, id string) (*api.Task, error)
	Delete(ctx context.Context, id string) error
}

// UserError is the single user-facing error slot. A new failure
// replaces the previous one. AuthExpired failures deserve a
// re-authenticate action instead of a plain retry.
type UserError struct {
	Message     string
	AuthExpired bool
}

// Controller owns the collection. Views read projections through
// Visible and Counts and never mutate the collection directly.
type Controller struct {
	store RemoteStore

	mu      sync.Mutex
	tasks   []api.Task
	filter  Filter
	lastErr *UserError

	// Mutations to the same task are serialized through a per-id
	// lock so a rollback can never interleave with a later
	// optimistic step on the same entity.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func New(store RemoteStore) *Controller {
	return &Controller{
		store:  store,
		filter: FilterAll,
		locks:  make(map[string]*sync.Mutex),
	}
}

// Load replaces the collection with a full fetch from the remote
// store. Called on view mount.
func (c *Controller) Load(ctx context.Context) error {
	page, err := c.store.List(ctx, api.ListParams{})
	if err != nil {
		c.recordErr(err)
		return err
	}

	c.mu.Lock()
	c.tasks = append([]api.Task(nil), page.Items...)
	c.mu.Unlock()
	return nil
}

// Reset discards the collection, e.g. on view unmount or sign-out.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.tasks = nil
	c.lastErr = nil
	c.mu.Unlock()
}

// Create inserts a placeholder at the head of the collection, then
// asks the store for the authoritative record. On success the
// placeholder is replaced (server id and timestamps win); on failure
// it is removed.
func (c *Controller) Create(ctx context.Context, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}

	now := time.Now()
	placeholder := api.Task{
		ID:        "pending-" + uuid.NewString(),
		Title:     title,
		Completed: false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	c.mu.Lock()
	c.tasks = append([]api.Task{placeholder}, c.tasks...)
	c.mu.Unlock()

	created, err := c.store.Create(ctx, title)
	if err != nil {
		c.mu.Lock()
		c.removeLocked(placeholder.ID)
		c.mu.Unlock()
		c.recordErr(err)
		return err
	}

	c.mu.Lock()
	if !c.replaceLocked(placeholder.ID, *created) {
		// Placeholder vanished (collection was reset mid-flight);
		// adopt the confirmed record anyway.
		c.tasks = append([]api.Task{*created}, c.tasks...)
	}
	c.mu.Unlock()
	return nil
}

// Toggle flips the completion flag locally and confirms with the
// store, reconciling to the server's record on success.
func (c *Controller) Toggle(ctx context.Context, id string) error {
	unlock := c.lockTask(id)
	defer unlock()

	c.mu.Lock()
	snapshot, idx := c.findLocked(id)
	if idx < 0 {
		c.mu.Unlock()
		return ErrTaskNotFound
	}
	c.tasks[idx].Completed = !c.tasks[idx].Completed
	c.mu.Unlock()

	toggled, err := c.store.Toggle(ctx, id)
	if err != nil {
		c.mu.Lock()
		c.replaceLocked(id, snapshot)
		c.mu.Unlock()
		c.recordErr(err)
		return err
	}

	c.mu.Lock()
	c.replaceLocked(id, *toggled)
	c.mu.Unlock()
	return nil
}

// Rename updates the title locally and confirms with the store. An
// empty trimmed title is rejected before any mutation.
func (c *Controller) Rename(ctx context.Context, id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}

	unlock := c.lockTask(id)
	defer unlock()

	c.mu.Lock()
	snapshot, idx := c.findLocked(id)
	if idx < 0 {
		c.mu.Unlock()
		return ErrTaskNotFound
	}
	c.tasks[idx].Title = title
	c.mu.Unlock()

	renamed, err := c.store.Update(ctx, id, api.TaskUpdate{Title: &title})
	if err != nil {
		c.mu.Lock()
		c.replaceLocked(id, snapshot)
		c.mu.Unlock()
		c.recordErr(err)
		return err
	}

	c.mu.Lock()
	c.replaceLocked(id, *renamed)
	c.mu.Unlock()
	return nil
}

// Remove deletes the task locally and confirms with the store. On
// failure the task is re-inserted; its position is restored on a
// best-effort basis, not guaranteed.
func (c *Controller) Remove(ctx context.Context, id string) error {
	unlock := c.lockTask(id)
	defer unlock()

	c.mu.Lock()
	snapshot, idx := c.findLocked(id)
	if idx < 0 {
		c.mu.Unlock()
		return ErrTaskNotFound
	}
	c.tasks = append(c.tasks[:idx], c.tasks[idx+1:]...)
	c.mu.Unlock()

	err := c.store.Delete(ctx, id)
	if err != nil {
		c.mu.Lock()
		at := idx
		if at > len(c.tasks) {
			at = len(c.tasks)
		}
		c.tasks = append(c.tasks[:at], append([]api.Task{snapshot}, c.tasks[at:]...)...)
		c.mu.Unlock()
		c.recordErr(err)
		return err
	}
	return nil
}

// SetFilter changes the projection; the underlying collection is
// never narrowed by it.
func (c *Controller) SetFilter(filter Filter) {
	c.mu.Lock()
	c.filter = filter
	c.mu.Unlock()
}

func (c *Controller) Filter() Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// Visible returns the filtered projection of the collection, order
// preserved. The result is a copy; mutating it has no effect.
func (c *Controller) Visible() []api.Task {
	c.mu.Lock()
	defer c.mu.Unlock()

	visible := make([]api.Task, 0, len(c.tasks))
	for _, task := range c.tasks {
		switch c.filter {
		case FilterActive:
			if task.Completed {
				continue
			}
		case FilterCompleted:
			if !task.Completed {
				continue
			}
		}
		visible = append(visible, task)
	}
	return visible
}

// Tasks returns a copy of the whole collection.
func (c *Controller) Tasks() []api.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]api.Task(nil), c.tasks...)
}

// Counts derives the counters from the collection on every call so
// they can never drift from it.
func (c *Controller) Counts() (total, completed, active int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	total = len(c.tasks)
	for _, task := range c.tasks {
		if task.Completed {
			completed++
		}
	}
	return total, completed, total - completed
}

// Err returns the last surfaced error, if any.
func (c *Controller) Err() *UserError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// ClearErr dismisses the error banner.
func (c *Controller) ClearErr() {
	c.mu.Lock()
	c.lastErr = nil
	c.mu.Unlock()
}

func (c *Controller) recordErr(err error) {
	userErr := &UserError{Message: err.Error()}

	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		userErr.Message = apiErr.Message
		userErr.AuthExpired = apiErr.Unauthenticated
	}

	c.mu.Lock()
	c.lastErr = userErr
	c.mu.Unlock()
}

// findLocked returns a copy of the task and its index, or -1.
func (c *Controller) findLocked(id string) (api.Task, int) {
	for i, task := range c.tasks {
		if task.ID == id {
			return task, i
		}
	}
	return api.Task{}, -1
}

func (c *Controller) replaceLocked(id string, task api.Task) bool {
	for i := range c.tasks {
		if c.tasks[i].ID == id {
			c.tasks[i] = task
			return true
		}
	}
	return false
}

func (c *Controller) removeLocked(id string) {
	for i := range c.tasks {
		if c.tasks[i].ID == id {
			c.tasks = append(c.tasks[:i], c.tasks[i+1:]...)
			return
		}
	}
}

func (c *Controller) lockTask(id string) func() {
	c.locksMu.Lock()
	lock, ok := c.locks[id]
	if !ok {
		lock = new(sync.Mutex)
		c.locks[id] = lock
	}
	c.locksMu.Unlock()

	lock.Lock()
	return lock.Unlock
}
