package main

import (
	"math/rand/v2"
)

// plant is a synthetic application whose performance is proportional to
// the applied xup, with a per-phase rate and optional gaussian noise.
type plant struct {
	phases []Phase
	r      *rand.Rand
}

func newPlant(phases []Phase, seed uint64) *plant {
	return &plant{
		phases: phases,
		r:      rand.New(rand.NewPCG(seed, seed)),
	}
}

// phase returns the index and parameters of the phase iteration i falls in.
// Iterations past the end stay in the last phase.
func (p *plant) phase(i int) (int, Phase) {
	for idx, ph := range p.phases {
		if i < ph.Iterations {
			return idx, ph
		}
		i -= ph.Iterations
	}
	last := len(p.phases) - 1
	return last, p.phases[last]
}

// Measure returns the performance observed at iteration i under xup.
func (p *plant) Measure(i int, xup float64) float64 {
	_, ph := p.phase(i)
	perf := xup * ph.Rate
	if ph.Noise > 0 {
		perf *= 1 + ph.Noise*p.r.NormFloat64()
	}
	return max(perf, 0)
}
