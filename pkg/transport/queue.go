package transport

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/jonesrussell/north-cloud/usage-tracker/pkg/logger"
)

// DefaultQueueCapacity is the number of beacons QueueBeacon holds before refusing.
const DefaultQueueCapacity = 64

type beacon struct {
	url         string
	contentType string
	body        []byte
}

// QueueBeacon is an in-process Beaconer for hosts without a native one.
// SendBeacon never blocks: it enqueues on a bounded channel and a single
// goroutine POSTs each beacon independently with no headers beyond the
// content type. Close stops accepting beacons and delivers what was queued.
type QueueBeacon struct {
	client *http.Client
	log    logger.Logger
	queue  chan beacon
	closed chan struct{}
	mu     sync.RWMutex
	done   bool
	once   sync.Once
	wg     sync.WaitGroup
}

// NewQueueBeacon creates and starts a beacon queue. A capacity <= 0 uses
// DefaultQueueCapacity; a nil client uses NewClient(nil).
func NewQueueBeacon(client *http.Client, capacity int, log logger.Logger) *QueueBeacon {
	if client == nil {
		client = NewClient(nil)
	}
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	if log == nil {
		log = logger.NewNop()
	}

	q := &QueueBeacon{
		client: client,
		log:    log,
		queue:  make(chan beacon, capacity),
		closed: make(chan struct{}),
	}
	q.wg.Add(1)
	go q.sendLoop()

	return q
}

// SendBeacon implements Beaconer. It returns false when the queue is full or closed.
func (q *QueueBeacon) SendBeacon(url, contentType string, body []byte) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.done {
		return false
	}

	select {
	case q.queue <- beacon{url: url, contentType: contentType, body: body}:
		return true
	default:
		return false
	}
}

// Len returns the number of beacons waiting to be sent.
func (q *QueueBeacon) Len() int {
	return len(q.queue)
}

// Close stops accepting beacons and waits until the queued ones were sent.
// It is safe to call multiple times.
func (q *QueueBeacon) Close() {
	q.once.Do(func() {
		q.mu.Lock()
		q.done = true
		q.mu.Unlock()
		close(q.closed)
	})
	q.wg.Wait()
}

func (q *QueueBeacon) sendLoop() {
	defer q.wg.Done()

	for {
		select {
		case b := <-q.queue:
			q.deliver(b)
		case <-q.closed:
			q.drain()
			return
		}
	}
}

// drain delivers every beacon still sitting in the queue.
func (q *QueueBeacon) drain() {
	for {
		select {
		case b := <-q.queue:
			q.deliver(b)
		default:
			return
		}
	}
}

// deliver POSTs one beacon. Failures are logged at debug level only: a beacon
// has no caller to report to.
func (q *QueueBeacon) deliver(b beacon) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, b.url, bytes.NewReader(b.body))
	if err != nil {
		q.log.Debug("Beacon request invalid", logger.Error(err), logger.String("url", b.url))
		return
	}
	req.Header.Set("Content-Type", b.contentType)

	resp, err := q.client.Do(req)
	if err != nil {
		q.log.Debug("Beacon not delivered", logger.Error(err), logger.String("url", b.url))
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
	_ = resp.Body.Close()
}
