package lobstats

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"lobstats/internal/infrastructure"
)

// State is the lifecycle stage of a DatasetCache.
type State int32

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Source opens a fresh record reader over a dataset.
type Source interface {
	Name() string
	Records(ctx context.Context) (*RecordReader, error)
}

// FileSource reads a dataset from a CSV or XLSX file on disk.
type FileSource struct {
	Path   string
	Format Format
	// Sheet selects the worksheet of an XLSX file; empty means the first sheet.
	Sheet string
}

// Name returns the file path.
func (s FileSource) Name() string {
	return s.Path
}

// Records opens the file and returns a reader that closes it on Close.
func (s FileSource) Records(ctx context.Context) (*RecordReader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return nil, &MissingSourceError{Source: s.Path, Err: err}
	}

	var rr *RecordReader
	switch s.resolveFormat() {
	case FormatXLSX:
		rr, err = NewXLSXReader(f, s.Sheet)
	default:
		rr, err = NewCSVReader(f)
	}
	if err != nil {
		f.Close()
		return nil, err
	}
	rr.closer = f
	return rr, nil
}

func (s FileSource) resolveFormat() Format {
	if s.Format != "" && s.Format != FormatAuto {
		return s.Format
	}
	switch strings.ToLower(filepath.Ext(s.Path)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	default:
		return FormatCSV
	}
}

// LoadRecords reads every record from src. It returns either the complete
// record set or an error, never a partial set.
func LoadRecords(ctx context.Context, src Source) ([]StatRecord, error) {
	rr, err := src.Records(ctx)
	if err != nil {
		return nil, err
	}
	defer rr.Close()

	return rr.ReadAll()
}

// LoadObserver is notified after every load attempt.
type LoadObserver interface {
	DatasetLoaded(ctx context.Context, source string, records int, duration time.Duration, err error)
}

// DatasetInfo describes the current dataset state.
type DatasetInfo struct {
	Source       string        `json:"source"`
	State        string        `json:"state"`
	Records      int           `json:"records"`
	LoadedAt     time.Time     `json:"loaded_at,omitempty"`
	LoadDuration time.Duration `json:"load_duration_ns,omitempty"`
	Attempts     int           `json:"attempts"`
}

// DatasetCache loads a dataset once and serves it for the process lifetime.
//
// Concurrent first callers share a single in-flight load. A failed load stores
// nothing and returns the cache to StateUninitialized, so the next call tries
// again.
type DatasetCache struct {
	source   Source
	logger   *slog.Logger
	observer LoadObserver
	tracer   trace.Tracer
	group    singleflight.Group

	mu           sync.RWMutex
	state        State
	records      []StatRecord
	loadedAt     time.Time
	loadDuration time.Duration
	attempts     int
}

// DatasetOption configures a DatasetCache.
type DatasetOption func(*DatasetCache)

// WithLoadObserver registers an observer for load attempts.
func WithLoadObserver(o LoadObserver) DatasetOption {
	return func(c *DatasetCache) {
		c.observer = o
	}
}

// NewDatasetCache creates an empty cache over source.
func NewDatasetCache(source Source, logger *slog.Logger, opts ...DatasetOption) *DatasetCache {
	if logger == nil {
		logger = slog.Default()
	}
	c := &DatasetCache{
		source: source,
		logger: infrastructure.WithComponent(logger, "dataset_cache"),
		tracer: otel.Tracer("lobstats"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EnsureLoaded returns the dataset, loading it on first use. The returned
// slice is shared and must not be modified.
func (c *DatasetCache) EnsureLoaded(ctx context.Context) ([]StatRecord, error) {
	c.mu.RLock()
	if c.state == StateReady {
		records := c.records
		c.mu.RUnlock()
		return records, nil
	}
	c.mu.RUnlock()

	// The shared load must not be cut short by one caller going away.
	loadCtx := context.WithoutCancel(ctx)

	v, err, _ := c.group.Do("dataset", func() (interface{}, error) {
		c.mu.Lock()
		if c.state == StateReady {
			records := c.records
			c.mu.Unlock()
			return records, nil
		}
		c.state = StateLoading
		c.attempts++
		c.mu.Unlock()

		return c.load(loadCtx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]StatRecord), nil
}

func (c *DatasetCache) load(ctx context.Context) ([]StatRecord, error) {
	ctx, span := c.tracer.Start(ctx, "lobstats.dataset.load",
		trace.WithAttributes(attribute.String("dataset.source", c.source.Name())))
	defer span.End()

	start := time.Now()
	c.logger.InfoContext(ctx, "loading dataset", slog.String("source", c.source.Name()))

	records, err := LoadRecords(ctx, c.source)
	duration := time.Since(start)

	if c.observer != nil {
		c.observer.DatasetLoaded(ctx, c.source.Name(), len(records), duration, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.state = StateUninitialized
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.ErrorContext(ctx, "dataset load failed",
			slog.String("source", c.source.Name()),
			slog.String("error", err.Error()),
			slog.Duration("duration", duration))
		return nil, fmt.Errorf("load dataset %s: %w", c.source.Name(), err)
	}

	c.records = records
	c.state = StateReady
	c.loadedAt = time.Now()
	c.loadDuration = duration
	span.SetAttributes(attribute.Int("dataset.records", len(records)))

	c.logger.InfoContext(ctx, "dataset loaded",
		slog.String("source", c.source.Name()),
		slog.Int("records", len(records)),
		slog.Duration("duration", duration))

	return records, nil
}

// State returns the current lifecycle stage.
func (c *DatasetCache) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Info returns a snapshot of the dataset state.
func (c *DatasetCache) Info() DatasetInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return DatasetInfo{
		Source:       c.source.Name(),
		State:        c.state.String(),
		Records:      len(c.records),
		LoadedAt:     c.loadedAt,
		LoadDuration: c.loadDuration,
		Attempts:     c.attempts,
	}
}
