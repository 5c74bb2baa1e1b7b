package benchmarks

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	bab "github.com/bits-and-blooms/bloom/v3"
	"github.com/cespare/xxhash/v2"
	atomicbloom "github.com/ericvolp12/atomic-bloom"
	"github.com/greatroar/blobloom"
	"github.com/jcalabro/cgloom"
)

const (
	benchItems  = 1_000_000
	benchFPRate = 0.01
)

// Pre-generate test data to avoid measuring string generation
var testKeys [][]byte
var testKeysStr []string

func init() {
	testKeys = make([][]byte, benchItems)
	testKeysStr = make([]string, benchItems)
	for i := range benchItems {
		s := fmt.Sprintf("key-%d", i)
		testKeys[i] = []byte(s)
		testKeysStr[i] = s
	}
}

func filledCounting() *cgloom.CountingFilter {
	f := cgloom.NewWithEstimates(benchItems, benchFPRate)
	for i := range benchItems {
		f.Insert(testKeys[i])
	}
	return f
}

// ============================================================================
// Sequential Insert Benchmarks
// ============================================================================

func BenchmarkInsertSequential_Counting(b *testing.B) {
	f := cgloom.NewWithEstimates(benchItems, benchFPRate)
	b.ResetTimer()
	for i := range b.N {
		f.Insert(testKeys[i%benchItems])
	}
}

func BenchmarkInsertSequential_CountingString(b *testing.B) {
	f := cgloom.NewWithEstimates(benchItems, benchFPRate)
	b.ResetTimer()
	for i := range b.N {
		f.InsertString(testKeysStr[i%benchItems])
	}
}

func BenchmarkInsertSequential_BitsAndBlooms(b *testing.B) {
	f := bab.NewWithEstimates(benchItems, benchFPRate)
	b.ResetTimer()
	for i := range b.N {
		f.Add(testKeys[i%benchItems])
	}
}

func BenchmarkInsertSequential_Blobloom(b *testing.B) {
	f := blobloom.NewOptimized(blobloom.Config{
		Capacity: benchItems,
		FPRate:   benchFPRate,
	})
	b.ResetTimer()
	for i := range b.N {
		// blobloom requires pre-hashing
		h := xxhash.Sum64(testKeys[i%benchItems])
		f.Add(h)
	}
}

// ============================================================================
// Sequential Contains Benchmarks
// ============================================================================

func BenchmarkContainsSequential_Counting(b *testing.B) {
	f := filledCounting()
	b.ResetTimer()
	for i := range b.N {
		f.Contains(testKeys[i%benchItems])
	}
}

func BenchmarkContainsSequential_CountingString(b *testing.B) {
	f := filledCounting()
	b.ResetTimer()
	for i := range b.N {
		f.ContainsString(testKeysStr[i%benchItems])
	}
}

func BenchmarkContainsSequential_BitsAndBlooms(b *testing.B) {
	f := bab.NewWithEstimates(benchItems, benchFPRate)
	for i := range benchItems {
		f.Add(testKeys[i])
	}
	b.ResetTimer()
	for i := range b.N {
		f.Test(testKeys[i%benchItems])
	}
}

func BenchmarkContainsSequential_Blobloom(b *testing.B) {
	f := blobloom.NewOptimized(blobloom.Config{
		Capacity: benchItems,
		FPRate:   benchFPRate,
	})
	// Pre-hash keys for fair comparison
	hashes := make([]uint64, benchItems)
	for i := range benchItems {
		hashes[i] = xxhash.Sum64(testKeys[i])
		f.Add(hashes[i])
	}
	b.ResetTimer()
	for i := range b.N {
		f.Has(hashes[i%benchItems])
	}
}

// ============================================================================
// Remove Benchmarks
// ============================================================================

func BenchmarkInsertRemove_Counting(b *testing.B) {
	f := cgloom.NewWithEstimates(benchItems, benchFPRate)
	b.ResetTimer()
	for i := range b.N {
		key := testKeys[i%benchItems]
		f.Insert(key)
		f.Remove(key)
	}
}

// ============================================================================
// Parallel Contains Benchmarks
// ============================================================================

// A CountingFilter has no internal locking; callers sharing one guard it
// with a RWMutex. atomic-bloom is a lock-free bit filter for comparison.

func BenchmarkContainsParallel_CountingRWMutex(b *testing.B) {
	f := filledCounting()
	var mu sync.RWMutex
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			mu.RLock()
			f.Contains(testKeys[i%benchItems])
			mu.RUnlock()
			i++
		}
	})
}

func BenchmarkContainsParallel_AtomicBloom(b *testing.B) {
	f := atomicbloom.NewWithEstimates(benchItems, benchFPRate)
	for i := range benchItems {
		f.Add(testKeys[i])
	}
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			f.Test(testKeys[i%benchItems])
			i++
		}
	})
}

func BenchmarkInsertParallel_CountingMutex(b *testing.B) {
	f := cgloom.NewWithEstimates(benchItems, benchFPRate)
	var mu sync.Mutex
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			mu.Lock()
			f.Insert(testKeys[i%benchItems])
			mu.Unlock()
			i++
		}
	})
}

func BenchmarkInsertParallel_AtomicBloom(b *testing.B) {
	f := atomicbloom.NewWithEstimates(benchItems, benchFPRate)
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			f.Add(testKeys[i%benchItems])
			i++
		}
	})
}

// ============================================================================
// Memory Allocation Benchmarks
// ============================================================================

func BenchmarkInsertAlloc_Counting(b *testing.B) {
	f := cgloom.NewWithEstimates(benchItems, benchFPRate)
	b.ReportAllocs()
	b.ResetTimer()
	for i := range b.N {
		f.Insert(testKeys[i%benchItems])
	}
}

func BenchmarkInsertAlloc_BitsAndBlooms(b *testing.B) {
	f := bab.NewWithEstimates(benchItems, benchFPRate)
	b.ReportAllocs()
	b.ResetTimer()
	for i := range b.N {
		f.Add(testKeys[i%benchItems])
	}
}

// ============================================================================
// Serialization Benchmarks
// ============================================================================

func BenchmarkMarshal_Counting(b *testing.B) {
	f := filledCounting()
	buf := make([]byte, 0, f.EncodedLen())
	b.SetBytes(int64(f.EncodedLen()))
	b.ReportAllocs()
	b.ResetTimer()
	for range b.N {
		var err error
		if buf, err = f.AppendBinary(buf[:0]); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkUnmarshal_Counting(b *testing.B) {
	data, err := filledCounting().MarshalBinary()
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	b.ResetTimer()
	for range b.N {
		if _, err := cgloom.UnmarshalBinary(data); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkMarshal_BitsAndBlooms(b *testing.B) {
	f := bab.NewWithEstimates(benchItems, benchFPRate)
	for i := range benchItems {
		f.Add(testKeys[i])
	}
	var buf bytes.Buffer
	b.ReportAllocs()
	b.ResetTimer()
	for range b.N {
		buf.Reset()
		if _, err := f.WriteTo(&buf); err != nil {
			b.Fatal(err)
		}
	}
}

// ============================================================================
// Throughput Test (items per second)
// ============================================================================

func BenchmarkThroughput_Counting(b *testing.B) {
	const goroutines = 8
	const itemsPerGoroutine = 100000

	f := cgloom.NewWithEstimates(uint64(goroutines*itemsPerGoroutine), benchFPRate)
	var mu sync.Mutex

	b.ResetTimer()
	for range b.N {
		var wg sync.WaitGroup
		wg.Add(goroutines)
		for g := range goroutines {
			go func(gid int) {
				defer wg.Done()
				base := gid * itemsPerGoroutine
				for i := range itemsPerGoroutine {
					mu.Lock()
					f.Insert(testKeys[(base+i)%benchItems])
					mu.Unlock()
				}
			}(g)
		}
		wg.Wait()
	}
	b.ReportMetric(float64(goroutines*itemsPerGoroutine), "items/op")
}
