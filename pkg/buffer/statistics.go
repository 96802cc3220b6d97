package buffer

import (
	"sync/atomic"
	"time"
)

// Statistics counts buffer operations. It is always collected.
type Statistics struct {
	writes    atomic.Int64
	reads     atomic.Int64
	peeks     atomic.Int64
	overflows atomic.Int64
	drops     atomic.Int64
	size      atomic.Int64
	maxSize   atomic.Int64
	startTime time.Time
}

// NewStatistics creates zeroed counters.
func NewStatistics() *Statistics {
	return &Statistics{startTime: time.Now()}
}

func (s *Statistics) Write()    { s.writes.Add(1) }
func (s *Statistics) Read()     { s.reads.Add(1) }
func (s *Statistics) Peek()     { s.peeks.Add(1) }
func (s *Statistics) Overflow() { s.overflows.Add(1) }
func (s *Statistics) Drop()     { s.drops.Add(1) }

// UpdateSize records the current size and the high-water mark.
func (s *Statistics) UpdateSize(size int64) {
	s.size.Store(size)
	for {
		peak := s.maxSize.Load()
		if size <= peak || s.maxSize.CompareAndSwap(peak, size) {
			return
		}
	}
}

func (s *Statistics) Writes() int64      { return s.writes.Load() }
func (s *Statistics) Reads() int64       { return s.reads.Load() }
func (s *Statistics) Peeks() int64       { return s.peeks.Load() }
func (s *Statistics) Overflows() int64   { return s.overflows.Load() }
func (s *Statistics) Drops() int64       { return s.drops.Load() }
func (s *Statistics) CurrentSize() int64 { return s.size.Load() }
func (s *Statistics) MaxSize() int64     { return s.maxSize.Load() }

// DropRate is drops per write, zero before the first write.
func (s *Statistics) DropRate() float64 {
	writes := s.writes.Load()
	if writes == 0 {
		return 0
	}
	return float64(s.drops.Load()) / float64(writes)
}

// Uptime is the time since the counters were created.
func (s *Statistics) Uptime() time.Duration { return time.Since(s.startTime) }
