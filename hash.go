package cgloom

import (
	"encoding/binary"
	"iter"

	"github.com/zeebo/xxh3"
)

// probeSuffixLen is the width of the probe index appended to every key.
const probeSuffixLen = 4

// probeBuf copies key into a fresh buffer with room for the probe suffix.
func probeBuf(key []byte) []byte {
	buf := make([]byte, len(key)+probeSuffixLen)
	copy(buf, key)
	return buf
}

// probeBufString is probeBuf for string keys. The string is hashed as its
// UTF-8 bytes, so string and []byte keys with the same contents collide.
func probeBufString(s string) []byte {
	buf := make([]byte, len(s)+probeSuffixLen)
	copy(buf, s)
	return buf
}

// probeHash returns XXH3_64(key || le32(probe)). buf must be a buffer built by
// probeBuf; its trailing four bytes are overwritten.
func probeHash(buf []byte, probe uint32) uint64 {
	binary.LittleEndian.PutUint32(buf[len(buf)-probeSuffixLen:], probe)
	return xxh3.Hash(buf)
}

// slots yields the k counter indices for the key held in buf:
//
//	slot_i = XXH3_64(key || le32(i)) mod size,  i in [0, k)
//
// Nothing is yielded for a zero-sized filter.
func slots(buf []byte, size, k uint64) iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		if size == 0 {
			return
		}
		for i := range k {
			if !yield(probeHash(buf, uint32(i)) % size) {
				return
			}
		}
	}
}
