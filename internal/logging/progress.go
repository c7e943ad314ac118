package logging

import "sync"

// ProgressSampler throttles per-asset progress lines. It reports true the
// first time completed work crosses into a new percentage bucket and always
// for the final item. Safe for concurrent use by pipeline workers.
type ProgressSampler struct {
	mu         sync.Mutex
	bucketSize int
	lastBucket int
}

// NewProgressSampler builds a sampler with the given bucket width in percent.
// Non-positive widths default to 10.
func NewProgressSampler(bucketSize int) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 10
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether progress at done of total should be logged.
func (s *ProgressSampler) ShouldLog(done, total int) bool {
	if s == nil || total <= 0 {
		return true
	}
	if done >= total {
		return true
	}
	bucket := (done * 100 / total) / s.bucketSize
	s.mu.Lock()
	defer s.mu.Unlock()
	if bucket > s.lastBucket {
		s.lastBucket = bucket
		return true
	}
	return false
}
