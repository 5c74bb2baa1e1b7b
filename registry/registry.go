// Package registry maintains a set of flagged identifiers as a counting
// bloom filter persisted in a store record.
//
// Every mutation loads the record, applies the change and writes the
// re-serialized filter back. A Registry serializes these cycles, supplying
// the locking a CountingFilter lacks. Separate processes sharing one record
// must coordinate among themselves.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jcalabro/cgloom"
	"github.com/jcalabro/cgloom/store"
)

const (
	// DefaultRecord is the record key used when none is configured.
	DefaultRecord = "bad-programs"

	// DefaultSize and DefaultK are the parameters of a freshly created filter.
	DefaultSize uint64 = 7_000
	DefaultK    uint64 = 5
)

var (
	// ErrCorruptFilter is returned when a stored record cannot be decoded as a
	// counting filter. It wraps the decoding error.
	ErrCorruptFilter = errors.New("registry: corrupt or incompatible persisted filter")

	// ErrRecordTooLarge is returned by Save when the encoded filter exceeds
	// the configured record capacity.
	ErrRecordTooLarge = errors.New("registry: encoded filter exceeds record capacity")
)

// Options configures a Registry. Zero values select the defaults.
type Options struct {
	// Record is the store key holding the serialized filter.
	Record string
	// Size and K are used when the record is missing or empty.
	Size uint64
	K    uint64
	// MaxRecordBytes caps the encoded filter size. Zero means unlimited.
	MaxRecordBytes int
	// Logger receives debug and warning events. Nil discards them.
	Logger *slog.Logger
}

// Registry is a persisted set of flagged identifiers.
type Registry struct {
	mu       sync.Mutex
	store    store.Store
	record   string
	size     uint64
	k        uint64
	maxBytes int
	log      *slog.Logger
}

// New creates a Registry over s.
func New(s store.Store, opts Options) (*Registry, error) {
	if opts.Record == "" {
		opts.Record = DefaultRecord
	}
	if err := store.ValidateKey(opts.Record); err != nil {
		return nil, fmt.Errorf("registry record: %w", err)
	}
	if opts.Size == 0 {
		opts.Size = DefaultSize
	}
	if opts.K == 0 {
		opts.K = DefaultK
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	return &Registry{
		store:    s,
		record:   opts.Record,
		size:     opts.Size,
		k:        opts.K,
		maxBytes: opts.MaxRecordBytes,
		log:      opts.Logger.With("record", opts.Record),
	}, nil
}

// Record returns the store key holding the filter.
func (r *Registry) Record() string {
	return r.record
}

// Load returns the persisted filter. A missing or empty record yields a fresh
// filter with the configured size and probe count; an undecodable record
// yields ErrCorruptFilter.
func (r *Registry) Load(ctx context.Context) (*cgloom.CountingFilter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

func (r *Registry) load(ctx context.Context) (*cgloom.CountingFilter, error) {
	data, err := r.store.Get(ctx, r.record)
	if errors.Is(err, store.ErrNotFound) || (err == nil && len(data) == 0) {
		r.log.DebugContext(ctx, "no persisted filter, starting fresh", "size", r.size, "k", r.k)
		return cgloom.New(r.size, r.k), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load filter: %w", err)
	}

	f, err := cgloom.UnmarshalBinary(data)
	if err != nil {
		r.log.WarnContext(ctx, "persisted filter is corrupt", "bytes", len(data), "error", err)
		return nil, fmt.Errorf("%w: %w", ErrCorruptFilter, err)
	}

	r.log.DebugContext(ctx, "loaded filter", "size", f.Size(), "k", f.K(), "bytes", len(data))
	return f, nil
}

// Save serializes f and stores it as the record.
func (r *Registry) Save(ctx context.Context, f *cgloom.CountingFilter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.save(ctx, f)
}

func (r *Registry) save(ctx context.Context, f *cgloom.CountingFilter) error {
	data, err := f.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode filter: %w", err)
	}
	if r.maxBytes > 0 && len(data) > r.maxBytes {
		return fmt.Errorf("%w: %d bytes, capacity %d", ErrRecordTooLarge, len(data), r.maxBytes)
	}

	if err := r.store.Put(ctx, r.record, data); err != nil {
		return fmt.Errorf("save filter: %w", err)
	}

	r.log.DebugContext(ctx, "saved filter", "bytes", len(data), "sum", f.Sum())
	return nil
}

// update runs fn against the loaded filter and saves the result.
func (r *Registry) update(ctx context.Context, fn func(f *cgloom.CountingFilter)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := r.load(ctx)
	if err != nil {
		return err
	}
	fn(f)
	return r.save(ctx, f)
}

// Flag inserts each id into the set.
func (r *Registry) Flag(ctx context.Context, ids ...[]byte) error {
	err := r.update(ctx, func(f *cgloom.CountingFilter) {
		for _, id := range ids {
			f.Insert(id)
		}
	})
	if err != nil {
		return err
	}
	r.log.InfoContext(ctx, "flagged identifiers", "count", len(ids))
	return nil
}

// Unflag removes one occurrence of each id from the set. Unflagging an id
// that was never flagged may clear slots shared with other ids.
func (r *Registry) Unflag(ctx context.Context, ids ...[]byte) error {
	err := r.update(ctx, func(f *cgloom.CountingFilter) {
		for _, id := range ids {
			f.Remove(id)
		}
	})
	if err != nil {
		return err
	}
	r.log.InfoContext(ctx, "unflagged identifiers", "count", len(ids))
	return nil
}

// IsFlagged reports whether id might be in the set.
func (r *Registry) IsFlagged(ctx context.Context, id []byte) (bool, error) {
	f, err := r.Load(ctx)
	if err != nil {
		return false, err
	}
	return f.Contains(id), nil
}

// Check reports, for each id, whether it might be in the set. The record is
// read once.
func (r *Registry) Check(ctx context.Context, ids ...[]byte) ([]bool, error) {
	f, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}

	flagged := make([]bool, len(ids))
	for i, id := range ids {
		flagged[i] = f.Contains(id)
	}
	return flagged, nil
}

// Reset replaces the record with an empty filter of the given shape. Zero
// values select the registry defaults.
func (r *Registry) Reset(ctx context.Context, size, k uint64) error {
	if size == 0 {
		size = r.size
	}
	if k == 0 {
		k = r.k
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.save(ctx, cgloom.New(size, k)); err != nil {
		return err
	}
	r.log.InfoContext(ctx, "reset filter", "size", size, "k", k)
	return nil
}

// Import validates data as a serialized filter and stores it verbatim.
func (r *Registry) Import(ctx context.Context, data []byte) error {
	f, err := cgloom.UnmarshalBinary(data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptFilter, err)
	}
	return r.Save(ctx, f)
}

// Export returns the serialized filter, creating a fresh one if the record
// does not exist yet.
func (r *Registry) Export(ctx context.Context) ([]byte, error) {
	f, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	return f.MarshalBinary()
}

// Stats summarises the persisted filter.
type Stats struct {
	Size              uint64
	K                 uint64
	Sum               uint64
	EstimatedCount    float64
	FillRatio         float64
	Saturated         uint64
	FalsePositiveRate float64
	EncodedBytes      int
}

// Stats loads the filter and reports its statistics.
func (r *Registry) Stats(ctx context.Context) (Stats, error) {
	f, err := r.Load(ctx)
	if err != nil {
		return Stats{}, err
	}

	return Stats{
		Size:              f.Size(),
		K:                 f.K(),
		Sum:               f.Sum(),
		EstimatedCount:    f.EstimatedCount(),
		FillRatio:         f.EstimatedFillRatio(),
		Saturated:         f.Saturated(),
		FalsePositiveRate: f.EstimatedFalsePositiveRate(),
		EncodedBytes:      f.EncodedLen(),
	}, nil
}
