package out

import (
	"context"

	"mapdirect/internal/modules/route/domain"
	routeout "mapdirect/internal/modules/route/port/out"
)

type Task struct {
	Ctx     context.Context
	Request domain.Request
}

// Run executes the task against router. It blocks and must not run on the
// event loop.
func (t Task) Run(router routeout.Router) domain.Completion {
	res, err := router.Route(t.Ctx, t.Request)
	return domain.Completion{SessionID: t.Request.SessionID, Result: res, Err: err}
}

// QueueLauncher defers launched computations until the event loop drains them.
type QueueLauncher struct {
	tasks []Task
}

var _ routeout.Launcher = (*QueueLauncher)(nil)

func NewQueueLauncher() *QueueLauncher {
	return &QueueLauncher{}
}

func (q *QueueLauncher) Launch(ctx context.Context, req domain.Request) {
	q.tasks = append(q.tasks, Task{Ctx: ctx, Request: req})
}

func (q *QueueLauncher) Drain() []Task {
	out := q.tasks
	q.tasks = nil
	return out
}

func (q *QueueLauncher) Len() int { return len(q.tasks) }
