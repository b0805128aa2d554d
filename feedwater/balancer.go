package feedwater

// Balancer decides how the header demand is shared between online pumps.
type Balancer interface {
	Name() string
	Weights(caps []float64) []float64
}

// EqualBalancer splits demand evenly.
type EqualBalancer struct{}

func (EqualBalancer) Name() string { return "equal" }

func (EqualBalancer) Weights(caps []float64) []float64 {
	w := make([]float64, len(caps))
	for i, c := range caps {
		if c > 0 {
			w[i] = 1
		}
	}
	return w
}

// CapacityBalancer loads each pump in proportion to its remaining capacity,
// so worn pumps carry less.
type CapacityBalancer struct{}

func (CapacityBalancer) Name() string { return "capacity" }

func (CapacityBalancer) Weights(caps []float64) []float64 {
	w := make([]float64, len(caps))
	copy(w, caps)
	return w
}

// waterFill shares total by weight, never exceeding caps. Pumps that
// saturate drop out and the remainder is re-shared among the rest.
func waterFill(total float64, weights, caps []float64) []float64 {
	share := make([]float64, len(caps))
	active := make([]int, 0, len(caps))
	for i := range caps {
		if caps[i] > 0 && weights[i] > 0 {
			active = append(active, i)
		}
	}
	for total > 1e-9 && len(active) > 0 {
		var wsum float64
		for _, i := range active {
			wsum += weights[i]
		}
		next := active[:0:0]
		var used float64
		for _, i := range active {
			if share[i]+total*weights[i]/wsum >= caps[i] {
				used += caps[i] - share[i]
				share[i] = caps[i]
			} else {
				next = append(next, i)
			}
		}
		if len(next) == len(active) {
			for _, i := range active {
				share[i] += total * weights[i] / wsum
			}
			return share
		}
		total -= used
		active = next
	}
	return share
}
