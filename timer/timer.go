// timer/timer.go
package timer

import (
	"container/heap"
	"time"
)

type Task struct {
	ID       int64
	Execute  time.Time
	Callback func()
	index    int
}

type taskQueue []*Task

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	if q[i].Execute.Equal(q[j].Execute) {
		return q[i].ID < q[j].ID
	}
	return q[i].Execute.Before(q[j].Execute)
}

func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *taskQueue) Push(x any) {
	task := x.(*Task)
	task.index = len(*q)
	*q = append(*q, task)
}

func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	task := old[n-1]
	old[n-1] = nil
	task.index = -1
	*q = old[:n-1]
	return task
}

// Queue holds delayed callbacks for a single loop. It never starts a
// goroutine: callbacks run inside Advance, on the caller's goroutine.
type Queue struct {
	queue  taskQueue
	byID   map[int64]*Task
	nextID int64
}

func NewQueue() *Queue {
	return &Queue{
		byID:   make(map[int64]*Task),
		nextID: 1,
	}
}

// Schedule runs cb on the first Advance at or after at.
func (q *Queue) Schedule(at time.Time, cb func()) int64 {
	task := &Task{ID: q.nextID, Execute: at, Callback: cb}
	q.nextID++
	heap.Push(&q.queue, task)
	q.byID[task.ID] = task
	return task.ID
}

// After is Schedule relative to now.
func (q *Queue) After(now time.Time, d time.Duration, cb func()) int64 {
	return q.Schedule(now.Add(d), cb)
}

// Cancel reports whether the task was still pending.
func (q *Queue) Cancel(id int64) bool {
	task, ok := q.byID[id]
	if !ok {
		return false
	}
	delete(q.byID, id)
	heap.Remove(&q.queue, task.index)
	return true
}

// Advance fires every task due at now, earliest first. Callbacks may schedule
// or cancel other tasks; tasks they schedule for at or before now fire in the
// same call.
func (q *Queue) Advance(now time.Time) int {
	fired := 0
	for q.queue.Len() > 0 {
		task := q.queue[0]
		if task.Execute.After(now) {
			break
		}
		heap.Pop(&q.queue)
		delete(q.byID, task.ID)
		task.Callback()
		fired++
	}
	return fired
}

func (q *Queue) Pending() int {
	return q.queue.Len()
}

// Clear drops every pending task without running it.
func (q *Queue) Clear() {
	q.queue = q.queue[:0]
	clear(q.byID)
}
