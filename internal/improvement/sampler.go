package improvement

import (
	"fmt"
	"math"

	"github.com/GoSim-25-26J-441/autotune-core/internal/space"
	"github.com/GoSim-25-26J-441/autotune-core/pkg/utils"
)

// Sampler proposes the next full assignment of the global phase from the
// successful observations so far. Suggestions lie on the explore grid.
type Sampler interface {
	Suggest(sp *space.Space, history []Observation, dir Direction) space.Assignment
	Name() string
}

// NewSampler returns the sampler called name ("tpe" or "random").
func NewSampler(name string, seed int64) (Sampler, error) {
	switch name {
	case "", "tpe":
		return NewTPESampler(seed), nil
	case "random":
		return NewRandomSampler(seed), nil
	default:
		return nil, fmt.Errorf("unknown sampler %q", name)
	}
}

// RandomSampler draws every grid point with equal probability.
type RandomSampler struct {
	rng *utils.RandSource
}

// NewRandomSampler creates a random sampler. A zero seed is time based.
func NewRandomSampler(seed int64) *RandomSampler {
	return &RandomSampler{rng: utils.NewRandSource(seed)}
}

func (s *RandomSampler) Name() string { return "random" }

func (s *RandomSampler) Suggest(sp *space.Space, _ []Observation, _ Direction) space.Assignment {
	return randomAssignment(sp, s.rng)
}

func randomAssignment(sp *space.Space, rng *utils.RandSource) space.Assignment {
	a := make(space.Assignment, sp.Len())
	for _, spec := range sp.Specs() {
		a[spec.Name] = spec.GridValue(rng.Intn(spec.GridSize()))
	}
	return a
}

// TPESampler is an independent tree-structured Parzen estimator over the
// explore grid. After StartupTrials random suggestions it splits the history
// into a good and a bad set, fits one density per parameter and set, and for
// each parameter keeps the best of Candidates draws from the good density by
// the ratio l(x)/g(x).
type TPESampler struct {
	StartupTrials int
	Candidates    int
	// PriorWeight is the weight of the uniform prior mixed into each density.
	PriorWeight float64
	// MaxGood caps the size of the good set.
	MaxGood int

	rng *utils.RandSource
}

// NewTPESampler creates a TPE sampler with the usual defaults.
func NewTPESampler(seed int64) *TPESampler {
	return &TPESampler{
		StartupTrials: 10,
		Candidates:    24,
		PriorWeight:   1.0,
		MaxGood:       25,
		rng:           utils.NewRandSource(seed),
	}
}

func (s *TPESampler) Name() string { return "tpe" }

func (s *TPESampler) Suggest(sp *space.Space, history []Observation, dir Direction) space.Assignment {
	if len(history) < s.StartupTrials || len(history) < 2 {
		return randomAssignment(sp, s.rng)
	}

	ranked := RankObservations(history, dir)
	nGood := s.goodCount(len(ranked))
	good, bad := ranked[:nGood], ranked[nGood:]

	a := make(space.Assignment, sp.Len())
	for _, spec := range sp.Specs() {
		l := s.fit(spec, good)
		g := s.fit(spec, bad)

		bestK, bestRatio := 0, math.Inf(-1)
		for i := 0; i < s.Candidates; i++ {
			k := l.sample(s.rng)
			ratio := math.Log(l.density(k)) - math.Log(g.density(k))
			if ratio > bestRatio {
				bestK, bestRatio = k, ratio
			}
		}
		a[spec.Name] = spec.GridValue(bestK)
	}
	return a
}

// goodCount is ceil(0.1*n), at least one and at most MaxGood, leaving at
// least one observation in the bad set.
func (s *TPESampler) goodCount(n int) int {
	k := int(math.Ceil(0.1 * float64(n)))
	if s.MaxGood > 0 && k > s.MaxGood {
		k = s.MaxGood
	}
	if k < 1 {
		k = 1
	}
	if k >= n {
		k = n - 1
	}
	return k
}

// parzen is a mixture of a uniform prior and one kernel per observation,
// over grid indices 0..size-1.
type parzen struct {
	size        int
	categorical bool
	points      []int
	bandwidth   float64
	prior       float64
	counts      []float64
}

func (s *TPESampler) fit(spec space.Spec, observations []Observation) *parzen {
	p := &parzen{
		size:        spec.GridSize(),
		categorical: spec.Kind == space.Categorical,
		prior:       s.PriorWeight,
	}
	for _, obs := range observations {
		v, ok := obs.Assignment[spec.Name]
		if !ok {
			continue
		}
		p.points = append(p.points, spec.GridIndex(v))
	}

	if p.categorical {
		p.counts = make([]float64, p.size)
		for _, k := range p.points {
			p.counts[k]++
		}
		return p
	}

	// Kernels get narrower as observations accumulate, never below one grid cell.
	p.bandwidth = math.Max(1, float64(p.size-1)/float64(len(p.points)+1))
	return p
}

func (p *parzen) total() float64 {
	return p.prior + float64(len(p.points))
}

func (p *parzen) density(k int) float64 {
	if p.size <= 1 {
		return 1
	}
	uniform := p.prior / float64(p.size)
	if p.categorical {
		return (uniform + p.counts[k]) / p.total()
	}

	sum := uniform
	for _, x := range p.points {
		z := (float64(k) - float64(x)) / p.bandwidth
		sum += math.Exp(-0.5*z*z) / (p.bandwidth * math.Sqrt(2*math.Pi))
	}
	return sum / p.total()
}

func (p *parzen) sample(rng *utils.RandSource) int {
	if p.size <= 1 {
		return 0
	}
	// Component 0 is the uniform prior, component i+1 the kernel of point i.
	weights := make([]float64, len(p.points)+1)
	weights[0] = p.prior
	for i := range p.points {
		weights[i+1] = 1
	}
	c := rng.WeightedIndex(weights)
	if c == 0 || len(p.points) == 0 {
		return rng.Intn(p.size)
	}

	center := p.points[c-1]
	if p.categorical {
		return center
	}
	k := int(math.Round(rng.NormFloat64(float64(center), p.bandwidth)))
	if k < 0 {
		return 0
	}
	if k >= p.size {
		return p.size - 1
	}
	return k
}
