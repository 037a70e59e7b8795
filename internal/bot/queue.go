package bot

import "sync"

// userQueues serializes event handling per user id. Events for one user run
// on a single goroutine in arrival order; events for different users run in
// parallel. This is the serialization point that keeps the session table and
// the record append path free of same-user races without locking the store.
type userQueues struct {
	mu     sync.Mutex
	queues map[int64]chan func()
	wg     sync.WaitGroup
	closed bool
}

func newUserQueues() *userQueues {
	return &userQueues{queues: make(map[int64]chan func())}
}

// enqueue schedules a task on the user's queue, creating the queue and its
// worker on first use. It blocks when the queue is full, which preserves
// ordering under backpressure.
func (q *userQueues) enqueue(userID int64, task func()) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	ch, ok := q.queues[userID]
	if !ok {
		ch = make(chan func(), 16)
		q.queues[userID] = ch
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for t := range ch {
				t()
			}
		}()
	}
	q.mu.Unlock()
	ch <- task
}

// close stops accepting tasks and waits for all queued work to finish.
func (q *userQueues) close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	for _, ch := range q.queues {
		close(ch)
	}
	q.mu.Unlock()
	q.wg.Wait()
}
