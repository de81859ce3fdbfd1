package clock

import (
	"sort"
	"sync"
	"time"
)

// FakeClock is a deterministic Clock for tests. Time only moves when Advance
// is called, and due callbacks run synchronously inside Advance in deadline
// order.
//
// A task scheduled with a zero or negative delay is due immediately but still
// waits for the next Advance (Advance(0) is enough), mirroring the one-tick
// delay of the real clock.
//
// Callbacks must not call Advance themselves.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	seq     uint64
	tasks   []*fakeTask
	changed *sync.Cond
}

type fakeTask struct {
	deadline time.Time
	seq      uint64
	fn       func()
	done     bool
}

// Fake returns a FakeClock set to start.
func Fake(start time.Time) *FakeClock {
	c := &FakeClock{now: start}
	c.changed = sync.NewCond(&c.mu)
	return c
}

// Now returns the fake current time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc registers f to run once the clock has advanced by d.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) *Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	if d < 0 {
		d = 0
	}
	c.seq++
	task := &fakeTask{deadline: c.now.Add(d), seq: c.seq, fn: f}
	c.tasks = append(c.tasks, task)
	c.changed.Broadcast()

	return &Timer{stop: func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		if task.done {
			return false
		}
		task.done = true
		c.removeLocked(task)
		return true
	}}
}

// Advance moves the clock forward by d and runs every task that has come due.
// Tasks scheduled by a callback run in the same call if their deadline is
// within the new time.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	target := c.now
	c.mu.Unlock()

	for {
		task := c.nextDue(target)
		if task == nil {
			return
		}
		task.fn()
	}
}

// Pending returns the number of scheduled tasks that have not run or been
// stopped.
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tasks)
}

// WaitForTimers blocks until at least n tasks are pending. Use it when the
// code under test schedules from another goroutine.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.tasks) < n {
		c.changed.Wait()
	}
}

func (c *FakeClock) nextDue(target time.Time) *fakeTask {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.tasks) == 0 {
		return nil
	}
	sort.Slice(c.tasks, func(i, j int) bool {
		if c.tasks[i].deadline.Equal(c.tasks[j].deadline) {
			return c.tasks[i].seq < c.tasks[j].seq
		}
		return c.tasks[i].deadline.Before(c.tasks[j].deadline)
	})
	task := c.tasks[0]
	if task.deadline.After(target) {
		return nil
	}
	task.done = true
	c.tasks = c.tasks[1:]
	c.changed.Broadcast()
	return task
}

func (c *FakeClock) removeLocked(task *fakeTask) {
	for i, t := range c.tasks {
		if t == task {
			c.tasks = append(c.tasks[:i], c.tasks[i+1:]...)
			c.changed.Broadcast()
			return
		}
	}
}
