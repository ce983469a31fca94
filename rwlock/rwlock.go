// Copyright 2020 Nathan Taylor (nbtaylor@gmail.com)
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package rwlock implements a writer-preferring reader/writer lock intended
// for a concurrent tree-like data structure such as a hierarchical namespace.
//
// Unlike sync.RWMutex, this lock makes two promises a namespace traversal
// needs:
//
// 1) A writer blocked on the lock is never starved by a continuous stream of
// newly-arriving readers: once a writer is waiting, later readers queue
// behind it.
//
// 2) A batch of readers that were already waiting when a writer released the
// lock is admitted together ("cascade wake"), so that a reader which arrives
// after the wake decision has been made cannot sneak in ahead of a writer
// that is now waiting behind that batch.
//
// The lock is built from four counters -- waiting/working readers and
// waiting/working writers -- guarded by a single mutex, plus two condition
// variables that threads block on depending on whether they want read or
// write access. A cascade counter records the size of the currently-admitted
// batch of readers; it is decremented by each reader as it is admitted, and
// no writer is admitted until it has reached zero.
//
// The lock is not reentrant: a goroutine that already holds a RWLock must
// not attempt to acquire it again. There is no try-lock, and no timed or
// cancellable variant; a goroutine that calls RLock or Lock blocks until it
// is admitted.
package rwlock

import "sync"

// RWLock is a writer-preferring reader/writer lock with cascade wake-up of
// waiting readers.
type RWLock struct {
	mu sync.Mutex

	toRead  *sync.Cond
	toWrite *sync.Cond

	waitWr int
	waitRd int
	workWr int
	workRd int

	// cascade is the number of already-waiting readers admitted as a
	// single batch on the most recent reader wake-up. It is decremented
	// by each admitted reader and must be zero before a writer may be
	// admitted. Its slots are not reserved for the readers that were
	// waiting when it was set: any reader that reaches the wait loop while
	// it is positive and no writer is working takes one.
	cascade int
}

// New returns a ready-to-use RWLock.
func New() *RWLock {
	l := &RWLock{}
	l.toRead = sync.NewCond(&l.mu)
	l.toWrite = sync.NewCond(&l.mu)
	return l
}

// RLock acquires the lock for reading. If a writer is working, a writer is
// waiting, or a cascade of readers is being admitted, it blocks until no
// writer is working and the cascade has a slot left, then takes that slot.
// A reader arriving while a cascade still has slots is admitted at once.
func (l *RWLock) RLock() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.waitRd++
	if l.workWr > 0 || l.waitWr > 0 || l.cascade > 0 {
		for !(l.workWr == 0 && l.cascade > 0) {
			l.toRead.Wait()
		}
	}
	l.waitRd--
	if l.cascade > 0 {
		l.cascade--
	}
	l.workRd++
}

// RUnlock releases a read lock previously acquired with RLock.
//
// Per the unlock decision table: if this is the last working reader and a
// writer is waiting, wake exactly one writer; otherwise if this is the last
// working reader and readers are waiting, admit them as a new cascade.
func (l *RWLock) RUnlock() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.workRd--
	if l.workRd == 0 && l.waitWr > 0 {
		l.toWrite.Signal()
	} else if l.workRd == 0 && l.waitRd > 0 {
		l.cascade = l.waitRd
		l.toRead.Broadcast()
	}
}

// Lock acquires the lock for writing. It blocks while any reader or writer
// is working, or a cascade of readers has been announced but not yet fully
// admitted.
func (l *RWLock) Lock() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.waitWr++
	for l.workRd > 0 || l.workWr > 0 || l.cascade > 0 {
		l.toWrite.Wait()
	}
	l.waitWr--
	l.workWr = 1
}

// Unlock releases a write lock previously acquired with Lock.
//
// A releasing writer always yields to any readers already waiting -- even
// ahead of a waiting writer -- which bounds reader starvation to at most one
// writer's worth of delay.
func (l *RWLock) Unlock() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.workWr = 0
	if l.waitRd > 0 {
		l.cascade = l.waitRd
		l.toRead.Broadcast()
	} else if l.waitWr > 0 {
		l.toWrite.Signal()
	}
}
