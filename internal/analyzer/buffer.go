// SPDX-License-Identifier: MIT
package analyzer

// SampleBuffer accumulates mono samples on the consumer side and keeps only
// the most recent limit samples.
type SampleBuffer struct {
	samples []float32
	limit   int
}

// NewSampleBuffer creates a buffer retaining at most limit samples. Capacity
// is reserved for one limit of overflow so that typical chunks append without
// growing.
func NewSampleBuffer(limit int) *SampleBuffer {
	return &SampleBuffer{
		samples: make([]float32, 0, 2*limit),
		limit:   limit,
	}
}

// Append adds chunk after the existing samples and drops the oldest samples
// beyond the retention bound.
func (b *SampleBuffer) Append(chunk []float32) {
	b.samples = append(b.samples, chunk...)
	if over := len(b.samples) - b.limit; over > 0 {
		n := copy(b.samples, b.samples[over:])
		b.samples = b.samples[:n]
	}
}

// Len returns the number of retained samples.
func (b *SampleBuffer) Len() int { return len(b.samples) }

// Limit returns the retention bound.
func (b *SampleBuffer) Limit() int { return b.limit }

// Latest returns the most recent n samples, or all of them when fewer are
// held. The slice aliases the buffer and is valid until the next Append.
func (b *SampleBuffer) Latest(n int) []float32 {
	if n >= len(b.samples) {
		return b.samples
	}
	return b.samples[len(b.samples)-n:]
}

// Reset discards all samples.
func (b *SampleBuffer) Reset() { b.samples = b.samples[:0] }
