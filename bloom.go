package cgloom

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"slices"
)

// CountingFilter is a counting bloom filter: a bloom filter whose slots are
// 32-bit saturating counters instead of single bits, so keys can be removed
// as well as inserted.
//
// A CountingFilter is not safe for concurrent use. It has a single owner;
// callers sharing one across goroutines must provide their own locking.
type CountingFilter struct {
	counters []uint32 // len(counters) == size, always
	size     uint64   // Number of counter slots
	k        uint64   // Number of probes per key
}

// New creates an empty counting filter with size counters and k probes per
// key. Neither argument is validated; use [OptimalParams] or
// [NewWithEstimates] to derive them from an expected cardinality.
func New(size, k uint64) *CountingFilter {
	return &CountingFilter{
		counters: make([]uint32, size),
		size:     size,
		k:        k,
	}
}

// NewWithEstimates creates a counting filter sized for the expected number of
// distinct keys and desired false positive rate.
func NewWithEstimates(expectedItems uint64, fpRate float64) *CountingFilter {
	size, k := OptimalParams(expectedItems, fpRate)
	return New(size, k)
}

// Insert adds key to the filter. Each of the key's k counters is incremented,
// clamping at math.MaxUint32 rather than wrapping.
func (f *CountingFilter) Insert(key []byte) {
	f.insert(probeBuf(key))
}

// InsertString adds a string key to the filter.
func (f *CountingFilter) InsertString(s string) {
	f.insert(probeBufString(s))
}

func (f *CountingFilter) insert(buf []byte) {
	for idx := range slots(buf, f.size, f.k) {
		if f.counters[idx] != math.MaxUint32 {
			f.counters[idx]++
		}
	}
}

// Remove deletes one occurrence of key from the filter. Each of the key's
// counters is decremented if it is above zero.
//
// Removing a key that was never inserted, or removing it more times than it
// was inserted, decrements slots shared with other keys and can make those
// keys report absent. Counters never go below zero.
func (f *CountingFilter) Remove(key []byte) {
	f.remove(probeBuf(key))
}

// RemoveString deletes one occurrence of a string key from the filter.
func (f *CountingFilter) RemoveString(s string) {
	f.remove(probeBufString(s))
}

func (f *CountingFilter) remove(buf []byte) {
	for idx := range slots(buf, f.size, f.k) {
		if f.counters[idx] > 0 {
			f.counters[idx]--
		}
	}
}

// Contains reports whether key might be in the filter. False means the key is
// definitely absent; true means it is present or is a false positive.
func (f *CountingFilter) Contains(key []byte) bool {
	return f.contains(probeBuf(key))
}

// ContainsString reports whether a string key might be in the filter.
func (f *CountingFilter) ContainsString(s string) bool {
	return f.contains(probeBufString(s))
}

func (f *CountingFilter) contains(buf []byte) bool {
	for idx := range slots(buf, f.size, f.k) {
		if f.counters[idx] == 0 {
			return false
		}
	}
	return true
}

// TestAndInsert reports whether key might have been present, then inserts it.
func (f *CountingFilter) TestAndInsert(key []byte) bool {
	buf := probeBuf(key)
	present := f.contains(buf)
	f.insert(buf)
	return present
}

// TestAndInsertString is TestAndInsert for string keys.
func (f *CountingFilter) TestAndInsertString(s string) bool {
	buf := probeBufString(s)
	present := f.contains(buf)
	f.insert(buf)
	return present
}

// Clear zeroes every counter. Size and K are unchanged.
func (f *CountingFilter) Clear() {
	clear(f.counters)
}

// Size returns the number of counter slots.
func (f *CountingFilter) Size() uint64 {
	return f.size
}

// K returns the number of probes per key.
func (f *CountingFilter) K() uint64 {
	return f.k
}

// Counter returns the value of slot i. It panics if i >= Size().
func (f *CountingFilter) Counter(i uint64) uint32 {
	return f.counters[i]
}

// Counters returns a copy of the counter array in slot order.
func (f *CountingFilter) Counters() []uint32 {
	return slices.Clone(f.counters)
}

// Sum returns the total of all counters.
func (f *CountingFilter) Sum() uint64 {
	var sum uint64
	for _, c := range f.counters {
		sum += uint64(c)
	}
	return sum
}

// EstimatedCount estimates the number of keys currently in the filter as
// Sum()/K(). Repeated insertions of one key are counted each time.
func (f *CountingFilter) EstimatedCount() float64 {
	if f.k == 0 {
		return 0
	}
	return float64(f.Sum()) / float64(f.k)
}

// EstimatedFillRatio returns the fraction of slots holding a non-zero counter.
func (f *CountingFilter) EstimatedFillRatio() float64 {
	if f.size == 0 {
		return 0
	}
	var nonZero uint64
	for _, c := range f.counters {
		if c != 0 {
			nonZero++
		}
	}
	return float64(nonZero) / float64(f.size)
}

// Saturated returns the number of slots whose counter is pinned at
// math.MaxUint32. Once a slot saturates, removals can no longer be tracked
// exactly for the keys mapping to it.
func (f *CountingFilter) Saturated() uint64 {
	var n uint64
	for _, c := range f.counters {
		if c == math.MaxUint32 {
			n++
		}
	}
	return n
}

// EstimatedFalsePositiveRate estimates the current false positive rate from
// the fill level of the counters. See [EstimateFalsePositiveRate] for the
// formula and its assumptions.
func (f *CountingFilter) EstimatedFalsePositiveRate() float64 {
	return EstimateFalsePositiveRate(f.size, f.k, f.Sum())
}

// Equal reports whether f and other have the same size, probe count and
// counters.
func (f *CountingFilter) Equal(other *CountingFilter) bool {
	if f == nil || other == nil {
		return f == other
	}
	return f.size == other.size && f.k == other.k && slices.Equal(f.counters, other.counters)
}

// Clone returns an independent copy of f.
func (f *CountingFilter) Clone() *CountingFilter {
	return &CountingFilter{
		counters: slices.Clone(f.counters),
		size:     f.size,
		k:        f.k,
	}
}

// Serialization constants and errors.
const (
	// headerSize is the size of the serialization header in bytes.
	// Size (8) + K (8) = 16 bytes
	headerSize = 16

	// counterBytes is the encoded width of one counter.
	counterBytes = 4
)

var (
	// ErrInvalidData is returned when serialized data is invalid or corrupted.
	// Every decoding error wraps it.
	ErrInvalidData = errors.New("cgloom: invalid serialized data")

	// ErrTruncatedHeader is returned when the data is too short to hold the header.
	ErrTruncatedHeader = fmt.Errorf("%w: truncated header", ErrInvalidData)

	// ErrLengthMismatch is returned when the data length disagrees with the
	// size recorded in the header.
	ErrLengthMismatch = fmt.Errorf("%w: length mismatch", ErrInvalidData)
)

// EncodedLen returns the length of the serialized form of f.
func (f *CountingFilter) EncodedLen() int {
	return headerSize + len(f.counters)*counterBytes
}

// MarshalBinary serializes the filter to a new byte slice.
// The serialized format is:
//   - Size (8 bytes): number of counters (little-endian uint64)
//   - K (8 bytes): number of probes per key (little-endian uint64)
//   - Counters (Size * 4 bytes): the counters in slot order (little-endian uint32s)
//
// The format carries no version or checksum; it is stable and any persisted
// filter must match it byte for byte. The error is always nil.
func (f *CountingFilter) MarshalBinary() ([]byte, error) {
	return f.AppendBinary(make([]byte, 0, f.EncodedLen()))
}

// AppendBinary appends the serialized filter to b. The format is described
// in [CountingFilter.MarshalBinary]. The error is always nil.
func (f *CountingFilter) AppendBinary(b []byte) ([]byte, error) {
	b = slices.Grow(b, f.EncodedLen())
	b = binary.LittleEndian.AppendUint64(b, f.size)
	b = binary.LittleEndian.AppendUint64(b, f.k)
	for _, c := range f.counters {
		b = binary.LittleEndian.AppendUint32(b, c)
	}
	return b, nil
}

// UnmarshalBinary deserializes a counting filter from a byte slice produced
// by MarshalBinary. The data must be exactly 16 + 4*size bytes long. The
// returned filter does not retain data.
func UnmarshalBinary(data []byte) (*CountingFilter, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w (got %d bytes, need at least %d)", ErrTruncatedHeader, len(data), headerSize)
	}

	size := binary.LittleEndian.Uint64(data[0:8])
	k := binary.LittleEndian.Uint64(data[8:16])

	// Compare against the body length instead of computing 16 + 4*size,
	// which overflows for hostile headers.
	body := uint64(len(data) - headerSize)
	if body%counterBytes != 0 || body/counterBytes != size {
		return nil, fmt.Errorf("%w (got %d bytes, header declares %d counters)", ErrLengthMismatch, len(data), size)
	}

	counters := make([]uint32, size)
	offset := headerSize
	for i := range counters {
		counters[i] = binary.LittleEndian.Uint32(data[offset : offset+counterBytes])
		offset += counterBytes
	}

	return &CountingFilter{
		counters: counters,
		size:     size,
		k:        k,
	}, nil
}
