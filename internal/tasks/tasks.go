// Package tasks is the ordered task list and its active-task pointer.
package tasks

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sadopc/focusflow/internal/clock"
	"github.com/sadopc/focusflow/internal/domain"
)

// Estimate bounds for new tasks.
const (
	MinEstimate = 1
	MaxEstimate = 10
)

// Task is one entry of the list. CompletedAt is set iff Completed.
type Task struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	EstimatedPomodoros int        `json:"estimatedPomodoros"`
	CompletedPomodoros int        `json:"completedPomodoros"`
	Completed          bool       `json:"completed"`
	CreatedAt          time.Time  `json:"createdAt"`
	CompletedAt        *time.Time `json:"completedAt,omitempty"`
}

// CompletionRecorder receives +1/-1 whenever a task is completed or
// un-completed.
type CompletionRecorder interface {
	RecordTaskCompletionDelta(at time.Time, delta int)
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock sets the clock used for CreatedAt/CompletedAt.
func WithClock(c clock.Clock) Option {
	return func(r *Registry) { r.clock = c }
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(fn func() string) Option {
	return func(r *Registry) { r.newID = fn }
}

// Registry holds tasks newest first. Not safe for concurrent use.
type Registry struct {
	tasks    []Task
	activeID string
	recorder CompletionRecorder
	clock    clock.Clock
	newID    func() string
}

// NewRegistry returns an empty registry. recorder may be nil.
func NewRegistry(recorder CompletionRecorder, opts ...Option) *Registry {
	r := &Registry{
		recorder: recorder,
		clock:    clock.System{},
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AddTask validates and prepends a new task. The task becomes active when
// nothing else is.
func (r *Registry) AddTask(name string, estimated int) (Task, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Task{}, domain.Invalid("name", "must not be empty")
	}
	if estimated < MinEstimate || estimated > MaxEstimate {
		return Task{}, domain.Invalid("estimatedPomodoros", "must be between %d and %d, got %d", MinEstimate, MaxEstimate, estimated)
	}

	t := Task{
		ID:                 r.newID(),
		Name:               name,
		EstimatedPomodoros: estimated,
		CreatedAt:          r.clock.Now(),
	}
	r.tasks = append([]Task{t}, r.tasks...)
	if r.activeID == "" {
		r.activeID = t.ID
	}
	return t, nil
}

// ToggleTask flips the completion flag of id. Completing the active task
// moves the pointer to the first other pending task. Returns false when id
// is unknown.
func (r *Registry) ToggleTask(id string) bool {
	i := r.index(id)
	if i < 0 {
		return false
	}
	now := r.clock.Now()
	t := &r.tasks[i]
	t.Completed = !t.Completed

	if t.Completed {
		t.CompletedAt = &now
		r.record(now, 1)
		if r.activeID == id {
			r.activeID = r.firstPending(id)
		}
	} else {
		t.CompletedAt = nil
		r.record(now, -1)
	}
	return true
}

// DeleteTask removes id. Deleting the active task moves the pointer to the
// first pending task. Returns false when id is unknown.
func (r *Registry) DeleteTask(id string) bool {
	i := r.index(id)
	if i < 0 {
		return false
	}
	r.tasks = append(r.tasks[:i], r.tasks[i+1:]...)
	if r.activeID == id {
		r.activeID = r.firstPending("")
	}
	return true
}

// SetActiveTask points at id. Unknown and completed tasks are ignored.
func (r *Registry) SetActiveTask(id string) bool {
	i := r.index(id)
	if i < 0 || r.tasks[i].Completed {
		return false
	}
	r.activeID = id
	return true
}

// AttributePomodoro credits one completed pomodoro to the active task.
func (r *Registry) AttributePomodoro() bool {
	i := r.index(r.activeID)
	if i < 0 {
		return false
	}
	r.tasks[i].CompletedPomodoros++
	return true
}

// Active returns the active task, if any.
func (r *Registry) Active() (Task, bool) {
	i := r.index(r.activeID)
	if i < 0 {
		return Task{}, false
	}
	return r.tasks[i], true
}

// ActiveID returns the active task id or "".
func (r *Registry) ActiveID() string { return r.activeID }

// Tasks returns a copy of all tasks in display order.
func (r *Registry) Tasks() []Task {
	out := make([]Task, len(r.tasks))
	copy(out, r.tasks)
	return out
}

// Pending returns the tasks that are not completed.
func (r *Registry) Pending() []Task {
	return r.filter(false)
}

// CompletedTasks returns the completed tasks.
func (r *Registry) CompletedTasks() []Task {
	return r.filter(true)
}

// Restore loads persisted tasks. Blank or duplicate entries are dropped,
// CompletedAt is reconciled with Completed and the active pointer is
// repaired.
func (r *Registry) Restore(tasks []Task, activeID string) {
	r.tasks = make([]Task, 0, len(tasks))
	seen := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		t.Name = strings.TrimSpace(t.Name)
		if t.ID == "" || t.Name == "" || seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		t.EstimatedPomodoros = max(t.EstimatedPomodoros, MinEstimate)
		t.CompletedPomodoros = max(t.CompletedPomodoros, 0)
		switch {
		case t.Completed && t.CompletedAt == nil:
			at := t.CreatedAt
			t.CompletedAt = &at
		case !t.Completed:
			t.CompletedAt = nil
		}
		r.tasks = append(r.tasks, t)
	}

	r.activeID = ""
	if i := r.index(activeID); i >= 0 && !r.tasks[i].Completed {
		r.activeID = activeID
	}
}

// Clear removes every task.
func (r *Registry) Clear() {
	r.tasks = nil
	r.activeID = ""
}

func (r *Registry) record(at time.Time, delta int) {
	if r.recorder != nil {
		r.recorder.RecordTaskCompletionDelta(at, delta)
	}
}

func (r *Registry) firstPending(exclude string) string {
	for _, t := range r.tasks {
		if !t.Completed && t.ID != exclude {
			return t.ID
		}
	}
	return ""
}

func (r *Registry) filter(completed bool) []Task {
	var out []Task
	for _, t := range r.tasks {
		if t.Completed == completed {
			out = append(out, t)
		}
	}
	return out
}

func (r *Registry) index(id string) int {
	if id == "" {
		return -1
	}
	for i := range r.tasks {
		if r.tasks[i].ID == id {
			return i
		}
	}
	return -1
}
