package bot

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// dispatcher runs jobs one at a time per user, in arrival order. Different
// users run concurrently. A user's worker exits after idle without jobs.
type dispatcher struct {
	mu     sync.Mutex
	queues map[int64]*userQueue
	size   int
	idle   time.Duration
	active prometheus.Gauge
	wg     sync.WaitGroup
	done   chan struct{}
	once   sync.Once
}

type userQueue struct {
	jobs    chan func()
	pending int // guarded by dispatcher.mu
}

func newDispatcher(size int, idle time.Duration, active prometheus.Gauge) *dispatcher {
	if size <= 0 {
		size = 1
	}
	return &dispatcher{
		queues: make(map[int64]*userQueue),
		size:   size,
		idle:   idle,
		active: active,
		done:   make(chan struct{}),
	}
}

// dispatch queues job for userID. It never blocks: when that user's queue is
// full the job is dropped and dispatch returns false.
func (d *dispatcher) dispatch(userID int64, job func()) bool {
	d.mu.Lock()
	q, ok := d.queues[userID]
	if !ok {
		q = &userQueue{jobs: make(chan func(), d.size)}
		d.queues[userID] = q
		d.wg.Add(1)
		if d.active != nil {
			d.active.Inc()
		}
		go d.run(userID, q)
	}
	q.pending++
	d.mu.Unlock()

	select {
	case q.jobs <- job:
		return true
	default:
		d.mu.Lock()
		q.pending--
		d.mu.Unlock()
		return false
	}
}

func (d *dispatcher) run(userID int64, q *userQueue) {
	defer d.wg.Done()
	timer := time.NewTimer(d.idle)
	defer timer.Stop()

	for {
		select {
		case job := <-q.jobs:
			d.runJob(q, job)
		case <-timer.C:
			if d.exitIfIdle(userID, q) {
				return
			}
		case <-d.done:
			if d.exitIfIdle(userID, q) {
				return
			}
			d.runJob(q, <-q.jobs)
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(d.idle)
	}
}

func (d *dispatcher) runJob(q *userQueue, job func()) {
	job()
	d.mu.Lock()
	q.pending--
	d.mu.Unlock()
}

func (d *dispatcher) exitIfIdle(userID int64, q *userQueue) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if q.pending > 0 {
		return false
	}
	delete(d.queues, userID)
	if d.active != nil {
		d.active.Dec()
	}
	return true
}

// workers returns the number of running user workers.
func (d *dispatcher) workers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queues)
}

// shutdown lets every worker drain its queue, then waits for them to exit.
// No jobs may be dispatched after shutdown.
func (d *dispatcher) shutdown() {
	d.once.Do(func() { close(d.done) })
	d.wg.Wait()
}
