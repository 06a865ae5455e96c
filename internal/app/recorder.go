package app

import (
	"context"
	"sync"
	"time"

	"github.com/samvad-hq/samvad-http-client/internal/archive"
	"github.com/samvad-hq/samvad-http-client/internal/logger"
	"github.com/samvad-hq/samvad-http-client/pkg/httpclient"
	"github.com/samvad-hq/samvad-http-client/pkg/sinks"
)

const (
	sinkPublishTimeout = 5 * time.Second
	recorderQueueSize  = 256
)

// eventPublisher is the subset of sinks.Fanout the recorder needs.
type eventPublisher interface {
	Publish(ctx context.Context, evt sinks.Event) (int, error)
}

// Recorder turns client request callbacks into log lines, sink events and archive entries.
// Archive and sink work runs on a background worker so the request path never waits on it.
type Recorder struct {
	clientID string
	log      logger.Logger
	pub      eventPublisher
	store    archive.Store

	mu     sync.Mutex
	closed bool
	queue  chan httpclient.LogRecord
	wg     sync.WaitGroup
}

// NewRecorder builds a Recorder and starts its worker. Nil dependencies are skipped.
// Close must be called to flush queued records.
func NewRecorder(clientID string, log logger.Logger, pub eventPublisher, store archive.Store) *Recorder {
	if log == nil {
		log = &logger.NopLogger{}
	}
	r := &Recorder{
		clientID: clientID,
		log:      log,
		pub:      pub,
		store:    store,
		queue:    make(chan httpclient.LogRecord, recorderQueueSize),
	}
	r.wg.Add(1)
	go r.run()
	return r
}

// Callback satisfies httpclient.RequestCallback. It only enqueues; a full queue drops the record.
func (r *Recorder) Callback(rec *httpclient.LogRecord, err error) {
	if err != nil || rec == nil {
		r.log.WarnObj("request log unavailable", "request_log_error", map[string]any{
			"client_id": r.clientID,
			"error":     errString(err),
		})
		return
	}

	r.log.DebugObj("request completed", "request", rec)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	select {
	case r.queue <- *rec:
	default:
		r.log.WarnObj("request log queue full, dropping record", "request_log_drop", map[string]any{
			"client_id": r.clientID,
			"href":      rec.Href,
		})
	}
}

// Close stops accepting records and waits until queued ones are archived and published.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *Recorder) run() {
	defer r.wg.Done()
	for rec := range r.queue {
		r.handle(rec)
	}
}

func (r *Recorder) handle(rec httpclient.LogRecord) {
	if r.store != nil {
		if err := r.store.Save(rec); err != nil {
			r.log.ErrorObj("archive save failed", "archive_error", map[string]any{
				"href":  rec.Href,
				"error": err.Error(),
			})
		}
	}

	if r.pub != nil {
		ctx, cancel := context.WithTimeout(context.Background(), sinkPublishTimeout)
		defer cancel()
		if delivered, err := r.pub.Publish(ctx, sinks.NewEvent(r.clientID, rec)); err != nil {
			r.log.ErrorObj("sink delivery failed", "sink_error", map[string]any{
				"delivered": delivered,
				"error":     err.Error(),
			})
		}
	}
}

func errString(err error) string {
	if err == nil {
		return "missing record"
	}
	return err.Error()
}
