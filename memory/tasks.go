package memory

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
)

// TaskList is an in-memory TaskStore. Task numbers start at 1 and follow
// insertion order.
type TaskList struct {
	mu    sync.RWMutex
	level Level
	tasks []Task
}

// NewTaskList creates an empty task list for level.
func NewTaskList(level Level) *TaskList {
	return &TaskList{level: level}
}

// AddTask registers plan as the next task.
func (l *TaskList) AddTask(ctx context.Context, plan *Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.tasks = append(l.tasks, Task{
		Number:      len(l.tasks) + 1,
		Description: plan.Content,
		PlanID:      plan.ID,
		Level:       l.level,
	})
	return nil
}

// Tasks returns a copy of the task list.
func (l *TaskList) Tasks(ctx context.Context) ([]Task, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Task, len(l.tasks))
	copy(out, l.tasks)
	return out, nil
}

// Hierarchy groups the three task stores plans are routed to.
type Hierarchy struct {
	Individual   TaskStore
	Team         TaskStore
	Organization TaskStore
}

// NewHierarchy returns a hierarchy of in-memory task lists.
func NewHierarchy() Hierarchy {
	return Hierarchy{
		Individual:   NewTaskList(LevelIndividual),
		Team:         NewTaskList(LevelTeam),
		Organization: NewTaskList(LevelOrganization),
	}
}

// For returns the task store for level.
func (h Hierarchy) For(level Level) (TaskStore, error) {
	if err := level.Validate(); err != nil {
		return nil, err
	}

	var ts TaskStore
	switch level {
	case LevelIndividual:
		ts = h.Individual
	case LevelTeam:
		ts = h.Team
	case LevelOrganization:
		ts = h.Organization
	}
	if ts == nil {
		return nil, goerr.New("no task store configured for level", goerr.V("level", level))
	}
	return ts, nil
}

// AllTasks flattens the hierarchy: individual, then team, then organization.
func (h Hierarchy) AllTasks(ctx context.Context) ([]Task, error) {
	var all []Task
	for _, level := range Levels {
		ts, err := h.For(level)
		if err != nil {
			return nil, err
		}
		tasks, err := ts.Tasks(ctx)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list tasks", goerr.V("level", level))
		}
		all = append(all, tasks...)
	}
	return all, nil
}
