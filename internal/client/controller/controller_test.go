package controller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/client/api"
)

// fakeStore is a programmable RemoteStore. Set failWith to make the
// next calls fail; calls counts invocations per method.
type fakeStore struct {
	mu       sync.Mutex
	failWith error
	tasks    map[string]api.Task
	calls    map[string]int

	// inFlight tracks concurrent mutation calls so tests can assert
	// per-task serialization.
	inFlight    int32
	maxInFlight int32
	delay       time.Duration
}

func newFakeStore(seed ...api.Task) *fakeStore {
	s := &fakeStore{
		tasks: make(map[string]api.Task),
		calls: make(map[string]int),
	}
	for _, task := range seed {
		s.tasks[task.ID] = task
	}
	return s
}

func (s *fakeStore) record(method string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[method]++
	return s.failWith
}

func (s *fakeStore) track() func() {
	current := atomic.AddInt32(&s.inFlight, 1)
	for {
		max := atomic.LoadInt32(&s.maxInFlight)
		if current <= max || atomic.CompareAndSwapInt32(&s.maxInFlight, max, current) {
			break
		}
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return func() { atomic.AddInt32(&s.inFlight, -1) }
}

func (s *fakeStore) List(ctx context.Context, params api.ListParams) (*api.TaskPage, error) {
	if err := s.record("list"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]api.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		items = append(items, task)
	}
	return &api.TaskPage{Items: items, Total: len(items)}, nil
}

func (s *fakeStore) Create(ctx context.Context, title string) (*api.Task, error) {
	if err := s.record("create"); err != nil {
		return nil, err
	}

	now := time.Now()
	task := api.Task{ID: "server-1", Title: title, CreatedAt: now, UpdatedAt: now}
	s.mu.Lock()
	s.tasks[task.ID] = task
	s.mu.Unlock()
	return &task, nil
}

func (s *fakeStore) Update(ctx context.Context, id string, update api.TaskUpdate) (*api.Task, error) {
	defer s.track()()
	if err := s.record("update"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	task := s.tasks[id]
	if update.Title != nil {
		task.Title = *update.Title
	}
	if update.Completed != nil {
		task.Completed = *update.Completed
	}
	s.tasks[id] = task
	return &task, nil
}

func (s *fakeStore) Toggle(ctx context.Context, id string) (*api.Task, error) {
	defer s.track()()
	if err := s.record("toggle"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	task := s.tasks[id]
	task.Completed = !task.Completed
	s.tasks[id] = task
	return &task, nil
}

func (s *fakeStore) Delete(ctx context.Context, id string) error {
	defer s.track()()
	if err := s.record("delete"); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.tasks, id)
	s.mu.Unlock()
	return nil
}

func seedTasks() []api.Task {
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	return []api.Task{
		{ID: "t1", Title: "first", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "t2", Title: "second", Completed: true, CreatedAt: base.Add(time.Hour)},
		{ID: "t3", Title: "third", CreatedAt: base},
	}
}

func loadedController(t *testing.T, store *fakeStore) *Controller {
	t.Helper()
	ctrl := New(store)
	require.NoError(t, ctrl.Load(context.Background()))
	return ctrl
}

func TestLoadReplacesCollection(t *testing.T) {
	store := newFakeStore(seedTasks()...)
	ctrl := loadedController(t, store)

	assert.Len(t, ctrl.Tasks(), 3)

	total, completed, active := ctrl.Counts()
	assert.Equal(t, 3, total)
	assert.Equal(t, 1, completed)
	assert.Equal(t, 2, active)
}

func TestCreateReplacesPlaceholderWithServerRecord(t *testing.T) {
	store := newFakeStore()
	ctrl := loadedController(t, store)

	require.NoError(t, ctrl.Create(context.Background(), "  buy milk  "))

	tasks := ctrl.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "server-1", tasks[0].ID)
	assert.Equal(t, "buy milk", tasks[0].Title)
	assert.False(t, tasks[0].Completed)
}

func TestCreateFailureRemovesPlaceholder(t *testing.T) {
	store := newFakeStore(seedTasks()...)
	ctrl := loadedController(t, store)
	before := ctrl.Tasks()

	store.failWith = &api.Error{Code: "INTERNAL_ERROR", Message: "boom", Status: 500}
	err := ctrl.Create(context.Background(), "doomed")
	require.Error(t, err)

	assert.Equal(t, before, ctrl.Tasks())
	require.NotNil(t, ctrl.Err())
	assert.Equal(t, "boom", ctrl.Err().Message)
	assert.False(t, ctrl.Err().AuthExpired)
}

func TestCreateRejectsEmptyTitleWithoutCall(t *testing.T) {
	store := newFakeStore()
	ctrl := New(store)

	err := ctrl.Create(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyTitle)
	assert.Zero(t, store.calls["create"])
	assert.Empty(t, ctrl.Tasks())
}

func TestToggleFailureRollsBack(t *testing.T) {
	store := newFakeStore(seedTasks()...)
	ctrl := loadedController(t, store)
	before := ctrl.Tasks()

	store.failWith = errors.New("network down")
	require.Error(t, ctrl.Toggle(context.Background(), "t1"))

	assert.Equal(t, before, ctrl.Tasks())
}

func TestToggleReconcilesToServerRecord(t *testing.T) {
	store := newFakeStore(seedTasks()...)
	ctrl := loadedController(t, store)

	require.NoError(t, ctrl.Toggle(context.Background(), "t1"))

	for _, task := range ctrl.Tasks() {
		if task.ID == "t1" {
			assert.True(t, task.Completed)
			return
		}
	}
	t.Fatal("t1 missing from collection")
}

func TestRenameRejectsEmptyTitleWithoutCall(t *testing.T) {
	store := newFakeStore(seedTasks()...)
	ctrl := loadedController(t, store)
	before := ctrl.Tasks()

	err := ctrl.Rename(context.Background(), "t1", "  ")
	assert.ErrorIs(t, err, ErrEmptyTitle)
	assert.Zero(t, store.calls["update"])
	assert.Equal(t, before, ctrl.Tasks())
}

func TestRenameFailureRollsBack(t *testing.T) {
	store := newFakeStore(seedTasks()...)
	ctrl := loadedController(t, store)
	before := ctrl.Tasks()

	store.failWith = errors.New("network down")
	require.Error(t, ctrl.Rename(context.Background(), "t1", "renamed"))

	assert.Equal(t, before, ctrl.Tasks())
}

func TestRemoveFailureRestoresPosition(t *testing.T) {
	store := newFakeStore()
	ctrl := New(store)
	require.NoError(t, ctrl.Load(context.Background()))

	// Seed through the controller so the order is deterministic.
	for _, task := range seedTasks() {
		ctrl.mu.Lock()
		ctrl.tasks = append(ctrl.tasks, task)
		ctrl.mu.Unlock()
	}
	before := ctrl.Tasks()

	store.failWith = errors.New("network down")
	require.Error(t, ctrl.Remove(context.Background(), "t2"))

	assert.Equal(t, before, ctrl.Tasks())
}

func TestRemoveUnknownTaskReportsNotFound(t *testing.T) {
	store := newFakeStore(seedTasks()...)
	ctrl := loadedController(t, store)

	err := ctrl.Remove(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.Zero(t, store.calls["delete"])
}

func TestFilterNarrowsProjectionNotCollection(t *testing.T) {
	store := newFakeStore(seedTasks()...)
	ctrl := loadedController(t, store)

	ctrl.SetFilter(FilterActive)
	for _, task := range ctrl.Visible() {
		assert.False(t, task.Completed)
	}
	assert.Len(t, ctrl.Tasks(), 3)

	ctrl.SetFilter(FilterCompleted)
	for _, task := range ctrl.Visible() {
		assert.True(t, task.Completed)
	}
	assert.Len(t, ctrl.Tasks(), 3)

	// Counts always derive from the full collection.
	total, completed, active := ctrl.Counts()
	assert.Equal(t, 3, total)
	assert.Equal(t, total, completed+active)
}

func TestVisibleReturnsCopy(t *testing.T) {
	store := newFakeStore(seedTasks()...)
	ctrl := loadedController(t, store)

	visible := ctrl.Visible()
	require.NotEmpty(t, visible)
	visible[0].Title = "mutated"

	for _, task := range ctrl.Tasks() {
		assert.NotEqual(t, "mutated", task.Title)
	}
}

func TestAuthErrorMarksAuthExpired(t *testing.T) {
	store := newFakeStore(seedTasks()...)
	ctrl := loadedController(t, store)

	store.failWith = &api.Error{
		Code:            "TOKEN_EXPIRED",
		Message:         "token has expired",
		Status:          401,
		Unauthenticated: true,
	}
	require.Error(t, ctrl.Toggle(context.Background(), "t1"))

	userErr := ctrl.Err()
	require.NotNil(t, userErr)
	assert.True(t, userErr.AuthExpired)
	assert.Equal(t, "token has expired", userErr.Message)

	ctrl.ClearErr()
	assert.Nil(t, ctrl.Err())
}

func TestMutationsOnSameTaskAreSerialized(t *testing.T) {
	store := newFakeStore(seedTasks()...)
	store.delay = 5 * time.Millisecond
	ctrl := loadedController(t, store)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = ctrl.Toggle(context.Background(), "t1")
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), store.maxInFlight,
		"mutations on one task must never overlap")
	assert.Equal(t, 8, store.calls["toggle"])
}
