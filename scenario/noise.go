package scenario

import (
	"context"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"pwrsim/config"
)

type noisy struct {
	src     Source
	demand  distuv.Normal
	cooling distuv.Normal
}

// WithNoise perturbs demand and cooling water temperature with seeded
// Gaussian noise. The same seed replays the same sequence.
func WithNoise(src Source, cfg config.NoiseConfig) Source {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	return &noisy{
		src:     src,
		demand:  distuv.Normal{Mu: 0, Sigma: cfg.DemandStdPercent / 100, Src: rng},
		cooling: distuv.Normal{Mu: 0, Sigma: cfg.CoolingWaterStd, Src: rng},
	}
}

func (n *noisy) Next(ctx context.Context) (Sample, error) {
	s, err := n.src.Next(ctx)
	if err != nil {
		return s, err
	}
	if n.demand.Sigma > 0 {
		s.DemandFraction = math.Max(0, s.DemandFraction+n.demand.Rand())
	}
	if n.cooling.Sigma > 0 {
		s.CoolingWaterTemperature += n.cooling.Rand()
	}
	return s, nil
}
