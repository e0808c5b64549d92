// Package estimate predicts per-file resource cost from raw size, feeding
// admission control and adaptive timeouts. Calibration point: materializing
// the structural tree costs roughly 5-10x the raw byte size and dominates
// peak memory.
package estimate

import "time"

// SizeClass bands inputs by raw size.
type SizeClass string

const (
	ClassSmall  SizeClass = "small"
	ClassMedium SizeClass = "medium"
	ClassLarge  SizeClass = "large"
)

const (
	smallLimit  = 1 << 20 // 1 MiB
	mediumLimit = 8 << 20 // 8 MiB

	// treeFactor is the observed multiplier from raw bytes to peak memory.
	treeFactor = 8

	minPeakMemory = 32 << 20 // floor: fixed parser overhead dominates tiny files
)

// Estimate is computed before scheduling and immutable afterward.
type Estimate struct {
	Class              SizeClass
	EstimatedPeakBytes int64
	RecommendedTimeout time.Duration
}

// Params are the operator-injected calibration values.
type Params struct {
	TimeoutBase   time.Duration
	TimeoutPerMiB time.Duration
	TimeoutMax    time.Duration
}

// ForSize computes the estimate for a file of rawBytes.
func ForSize(rawBytes int64, p Params) Estimate {
	var class SizeClass
	switch {
	case rawBytes < smallLimit:
		class = ClassSmall
	case rawBytes < mediumLimit:
		class = ClassMedium
	default:
		class = ClassLarge
	}

	peak := rawBytes * treeFactor
	if peak < minPeakMemory {
		peak = minPeakMemory
	}

	mib := rawBytes / (1 << 20)
	timeout := p.TimeoutBase + time.Duration(mib)*p.TimeoutPerMiB
	if timeout < p.TimeoutBase {
		timeout = p.TimeoutBase
	}
	if p.TimeoutMax > 0 && timeout > p.TimeoutMax {
		timeout = p.TimeoutMax
	}

	return Estimate{
		Class:              class,
		EstimatedPeakBytes: peak,
		RecommendedTimeout: timeout,
	}
}
