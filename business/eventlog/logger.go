package eventlog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"outfitJourney/domain"
)

// Logger appends CSV rows to one file per sink. Each sink has its own mutex
// and keeps its file open in append mode, so concurrent writers never
// interleave inside a line and a batch lands contiguously.
type Logger struct {
	dir string
	now func() time.Time

	mu    sync.Mutex
	sinks map[Sink]*sinkFile
}

type sinkFile struct {
	mu     sync.Mutex
	layout sinkLayout
	f      *os.File
}

type Option func(*Logger)

// WithClock overrides time.Now for record builders.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		l.now = now
	}
}

func NewLogger(dir string, opts ...Option) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log dir: %w", err)
	}

	l := &Logger{
		dir:   dir,
		now:   time.Now,
		sinks: make(map[Sink]*sinkFile),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

func (l *Logger) Now() time.Time {
	return l.now()
}

// Append writes one record.
func (l *Logger) Append(ctx context.Context, sink Sink, rec Record) error {
	return l.AppendBatch(ctx, sink, []Record{rec})
}

// AppendBatch writes all records with a single write under the sink lock.
func (l *Logger) AppendBatch(ctx context.Context, sink Sink, recs []Record) error {
	if len(recs) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	sf, err := l.sink(sink)
	if err != nil {
		EventLogWrites.WithLabelValues(string(sink), "error").Inc()
		return err
	}

	var b strings.Builder
	for _, r := range recs {
		b.WriteString(sf.layout.format(r))
		b.WriteByte('\n')
	}

	sf.mu.Lock()
	_, err = sf.f.WriteString(b.String())
	sf.mu.Unlock()
	if err != nil {
		EventLogWrites.WithLabelValues(string(sink), "error").Inc()
		return fmt.Errorf("failed to append to %s log: %w", sink, err)
	}

	EventLogWrites.WithLabelValues(string(sink), "ok").Add(float64(len(recs)))
	return nil
}

// sink opens the sink file on first use and writes the header when the
// file is new or empty.
func (l *Logger) sink(sink Sink) (*sinkFile, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if sf, ok := l.sinks[sink]; ok {
		return sf, nil
	}

	layout, ok := sinkLayouts[sink]
	if !ok {
		return nil, fmt.Errorf("unknown log sink: %s", sink)
	}

	path := filepath.Join(l.dir, layout.file)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.Size() == 0 {
		if _, err := f.WriteString(layout.header + "\n"); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to write header to %s: %w", path, err)
		}
	}

	sf := &sinkFile{layout: layout, f: f}
	l.sinks[sink] = sf
	return sf, nil
}

// Close flushes and closes every open sink.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var firstErr error
	for name, sf := range l.sinks {
		sf.mu.Lock()
		if err := sf.f.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close %s log: %w", name, err)
		}
		sf.mu.Unlock()
		delete(l.sinks, name)
	}
	return firstErr
}

// ---- record builders ----

// ViewRecords builds one view row per shown outfit with a shared timestamp.
func (l *Logger) ViewRecords(id domain.Identity, outfitIDs []uint64, viewType string) []Record {
	ts := l.now()
	out := make([]Record, 0, len(outfitIDs))
	for _, oid := range outfitIDs {
		out = append(out, Record{
			SessionID: id.SessionToken,
			UserID:    id.LogUserID(),
			OutfitID:  oid,
			Timestamp: ts,
			Tag:       viewType,
		})
	}
	return out
}

func (l *Logger) ClickRecord(id domain.Identity, outfitID uint64, clickType string) Record {
	return Record{
		SessionID: id.SessionToken,
		UserID:    id.LogUserID(),
		OutfitID:  outfitID,
		Timestamp: l.now(),
		Tag:       NormalizeClickType(clickType),
	}
}

func (l *Logger) ShareRecord(id domain.Identity, outfitID uint64) Record {
	return Record{
		SessionID: id.SessionToken,
		UserID:    id.LogUserID(),
		OutfitID:  outfitID,
		Timestamp: l.now(),
	}
}
