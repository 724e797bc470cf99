package pump

import "math"

// CompletePolicy decides when a running sale reading satisfies the preset
// target. The two policies are distinct on purpose: integer-quantized
// telemetry in one vendor family needs the looser tie-break. Do not unify.
type CompletePolicy uint8

const (
	// CompleteAtTarget: reading >= target.
	CompleteAtTarget CompletePolicy = iota
	// CompleteIntegerTelemetry: reading > target-1, accommodates pumps
	// reporting integer-rounded volume.
	CompleteIntegerTelemetry
)

func (p CompletePolicy) Reached(reading, target float64) bool {
	if p == CompleteIntegerTelemetry {
		return reading > target-1
	}
	return reading >= target
}

// Progress of one sale against its preset target. Derived, recomputed on
// every poll, never stored.
type Progress struct {
	Complete   bool
	Percentage float64
	Dispensed  float64
}

func TrackProgress(reading, target float64, policy CompletePolicy) Progress {
	p := Progress{
		Complete:  policy.Reached(reading, target),
		Dispensed: Round2(reading),
	}
	if target > 0 {
		p.Percentage = Round2(reading / target * 100)
	}
	return p
}

// Round2 rounds half away from zero to 2 decimal places.
func Round2(x float64) float64 {
	return math.Trunc(x*100+math.Copysign(0.5, x)) / 100
}
