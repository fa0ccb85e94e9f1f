package pipeline

import "fmt"

// SampleRateGate decides which samples reach the slower plotting path:
// every Nth sample is forwarded, so a 40 Hz acquisition loop redraws plots
// at 10 Hz with the default divisor of 4. History stays complete — gating
// only throttles the push, never the buffer appends.
type SampleRateGate struct {
	divisor uint64
	count   uint64
}

// NewSampleRateGate creates a gate forwarding every divisor-th sample.
// A divisor of 1 forwards everything; 0 is a configuration error.
func NewSampleRateGate(divisor int) (*SampleRateGate, error) {
	if divisor < 1 {
		return nil, fmt.Errorf("plot divisor must be >= 1, got %d", divisor)
	}
	return &SampleRateGate{divisor: uint64(divisor)}, nil
}

// ShouldForward counts the incoming sample and reports whether it should be
// forwarded. The counter is unsigned and simply wraps; there is no reset.
func (g *SampleRateGate) ShouldForward() bool {
	g.count++
	return g.count%g.divisor == 0
}
