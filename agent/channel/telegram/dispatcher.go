package telegram

import "sync"

// dispatcher runs jobs for one chat in submission order on a worker that exits
// once the chat's queue drains. Distinct chats run concurrently.
type dispatcher struct {
	mu     sync.Mutex
	queues map[int64][]func()
	wg     sync.WaitGroup
}

func newDispatcher() *dispatcher {
	return &dispatcher{queues: make(map[int64][]func(), 64)}
}

func (d *dispatcher) submit(chatID int64, job func()) {
	d.mu.Lock()
	q, running := d.queues[chatID]
	d.queues[chatID] = append(q, job)
	if running {
		d.mu.Unlock()
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go d.drain(chatID)
}

func (d *dispatcher) drain(chatID int64) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		q := d.queues[chatID]
		if len(q) == 0 {
			delete(d.queues, chatID)
			d.mu.Unlock()
			return
		}
		job := q[0]
		q[0] = nil
		d.queues[chatID] = q[1:]
		d.mu.Unlock()

		job()
	}
}

// wait blocks until every queued job has run.
func (d *dispatcher) wait() {
	d.wg.Wait()
}

func (d *dispatcher) active() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queues)
}
