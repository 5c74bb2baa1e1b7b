// Package cgloom provides a counting bloom filter with a stable, bit-exact
// binary encoding.
//
// A counting bloom filter is a bloom filter whose slots are small counters
// rather than single bits. Inserting a key increments its slots and removing
// it decrements them, so the set can shrink as well as grow. As with any bloom
// filter, false positives are possible but false negatives are not – a key
// that was inserted and not removed is always reported as present.
//
// # Hashing
//
// Each key is probed k times. Probe i hashes the key bytes followed by i as a
// four byte little-endian integer with the unseeded 64-bit XXH3 hash, and
// reduces the digest modulo the number of slots:
//
//	slot_i = XXH3_64(key || le32(i)) mod size
//
// The hash is fixed and unseeded so that a filter written by one process
// places keys in the same slots when it is read back by another. String keys
// are hashed as their bytes; [CountingFilter.InsertString] and
// [CountingFilter.Insert] agree for equal contents. The hash is not resistant
// to adversarial keys.
//
// # Counters
//
// Counters are 32 bits wide and saturate at math.MaxUint32 instead of
// wrapping. Removal never takes a counter below zero. Removing a key that was
// never inserted may decrement a slot shared with another key, which raises
// the false positive rate but is not otherwise detected.
//
// # Choosing Parameters
//
// Use [New] with an explicit slot count and probe count, or
// [NewWithEstimates] with the expected number of keys and a target false
// positive rate:
//
//	// Filter for 7,000 keys with 1% false positive rate
//	f := cgloom.NewWithEstimates(7_000, 0.01)
//
// Probe counts between 3 and 7 suit most false positive targets.
//
// # Serialization
//
// [CountingFilter.MarshalBinary] produces a fixed layout:
//
//	offset  width      field
//	0       8          size, uint64 little-endian
//	8       8          k, uint64 little-endian
//	16      4 * size   counters, uint32 little-endian, in slot order
//
// [UnmarshalBinary] rejects input shorter than the 16 byte header with
// [ErrTruncatedHeader] and input whose length is not exactly 16 + 4*size with
// [ErrLengthMismatch]. Both wrap [ErrInvalidData].
//
// # Thread Safety
//
// [CountingFilter] is NOT thread-safe. Use external synchronization when a
// filter is shared between goroutines. The registry package wraps a filter
// persisted in a store with the required locking.
package cgloom
