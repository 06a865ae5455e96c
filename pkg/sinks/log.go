package sinks

import "context"

// logSink writes events to the application logger.
type logSink struct {
	id  string
	log Logger
}

func newLogSink(_ context.Context, cfg SinkConfig, log Logger) (Sink, error) {
	return &logSink{id: cfg.ID, log: ensureLogger(log)}, nil
}

func (l *logSink) ID() string   { return l.id }
func (l *logSink) Type() string { return TypeLog }

func (l *logSink) Publish(_ context.Context, evt Event) error {
	l.log.InfoObj("request completed", "request", evt)
	return nil
}
