package rwlock

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var workloads = []struct {
	name        string
	concurrency int
	writeRatio  float32
}{
	{"Serial", 1, 0.10},
	{"Serial, heavy writes", 1, 0.50},
	{"Low concurrency", 2, 0.10},
	{"Medium concurrency", 10, 0.10},
	{"High concurrency", 20, 0.10},
	{"High concurrency, heavy writes", 20, 0.50},
}

const serialConcurrency = 1
const lowConcurrency = 2
const mediumConcurrency = 10
const highConcurrency = 20

const writeFrac = 0.1
const heavyWriteFrac = 0.5

// testNonDecreasing ensures that values observed under the lock never go
// backwards: since every writer increments every slot, a decrease means two
// writers interleaved without exclusion.
func testNonDecreasing(t testing.TB, values []uint32) {
	for i := 1; i < len(values); i++ {
		assert.LessOrEqual(t, values[i-1], values[i], "nondecreasing value")
	}
}

func BenchmarkSerial(b *testing.B) {
	ret := benchmarkLocking(b, serialConcurrency, int(writeFrac*100))
	testNonDecreasing(b, ret)
}

func BenchmarkSerialHeavyLocking(b *testing.B) {
	ret := benchmarkLocking(b, serialConcurrency, int(heavyWriteFrac*100))
	testNonDecreasing(b, ret)
}

func BenchmarkLowConcurrency(b *testing.B) {
	ret := benchmarkLocking(b, lowConcurrency, int(writeFrac*100))
	testNonDecreasing(b, ret)
}

func BenchmarkMediumConcurrency(b *testing.B) {
	ret := benchmarkLocking(b, mediumConcurrency, int(writeFrac*100))
	testNonDecreasing(b, ret)
}

func BenchmarkHighConcurrency(b *testing.B) {
	benchmarkLocking(b, highConcurrency, int(writeFrac*100))
}

func BenchmarkHighConcurrencyHeavyLocking(b *testing.B) {
	benchmarkLocking(b, highConcurrency, int(heavyWriteFrac*100))
}

// benchmarkLocking fires b.N read or write operations at a single RWLock
// guarding a slice of counters, and returns the final counter values so the
// caller can check that writes were serialized.
func benchmarkLocking(b *testing.B, concurrency int, writePerc int) []uint32 {
	l := New()
	barrier := make(chan bool, concurrency)
	var values [10]uint32

	writer := func() {
		l.Lock()
		for i := range values {
			values[i]++
		}
		l.Unlock()
		<-barrier
	}

	reader := func() {
		l.RLock()
		_ = values[rand.Intn(len(values))]
		l.RUnlock()
		<-barrier
	}

	for i := 0; i < b.N; i++ {
		barrier <- true
		if rand.Intn(100) < writePerc {
			go writer()
		} else {
			go reader()
		}
	}

	for {
		select {
		case <-barrier:
		default:
			l.Lock()
			ret := append([]uint32(nil), values[:]...)
			l.Unlock()
			return ret
		}
	}
}

func TestMutualExclusionOfWriters(t *testing.T) {
	l := New()
	var active int32
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Lock()
			defer l.Unlock()
			active++
			require.Equal(t, int32(1), active, "more than one writer working concurrently")
			active--
		}()
	}
	wg.Wait()
}

func TestReadersRunConcurrently(t *testing.T) {
	l := New()
	var wg sync.WaitGroup
	started := make(chan struct{}, 8)
	release := make(chan struct{})

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.RLock()
			defer l.RUnlock()
			started <- struct{}{}
			<-release
		}()
	}

	for i := 0; i < 8; i++ {
		select {
		case <-started:
		case <-time.After(time.Second):
			t.Fatal("readers did not all enter concurrently; writer-preference is starving them")
		}
	}
	close(release)
	wg.Wait()
}

func TestWriterExcludesReaders(t *testing.T) {
	l := New()
	l.Lock()

	done := make(chan struct{})
	go func() {
		l.RLock()
		l.RUnlock()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("reader acquired lock while writer held it")
	case <-time.After(50 * time.Millisecond):
	}

	l.Unlock()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reader never acquired lock after writer released it")
	}
}

func TestWriterPreferredOverLateReaders(t *testing.T) {
	l := New()

	// Hold a read lock so the writer below has to queue.
	l.RLock()

	writerDone := make(chan struct{})
	go func() {
		l.Lock()
		l.Unlock()
		close(writerDone)
	}()

	// Give the writer a chance to register as waiting.
	time.Sleep(20 * time.Millisecond)

	lateReaderDone := make(chan struct{})
	go func() {
		l.RLock()
		l.RUnlock()
		close(lateReaderDone)
	}()

	l.RUnlock()

	select {
	case <-writerDone:
	case <-time.After(time.Second):
		t.Fatal("writer starved by a later-arriving reader")
	}
	<-lateReaderDone
}

func TestConcurrentMix(t *testing.T) {
	for _, w := range workloads {
		w := w
		t.Run(w.name, func(t *testing.T) {
			l := New()
			var counter int
			var wg sync.WaitGroup
			ops := 200

			for i := 0; i < ops; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if rand.Float32() < w.writeRatio {
						l.Lock()
						counter++
						l.Unlock()
					} else {
						l.RLock()
						_ = counter
						l.RUnlock()
					}
				}()
				if i%w.concurrency == w.concurrency-1 {
					wg.Wait()
				}
			}
			wg.Wait()
		})
	}
}
