package volatility

import (
	"math"
	"sort"
)

// nelderMead minimizes f from the given start using the downhill simplex
// method. It returns the best point and its value. The objective is expected
// to encode constraints as large penalty values.
func nelderMead(f func([]float64) float64, start []float64, maxIter int) ([]float64, float64) {
	dim := len(start)

	type vertex struct {
		x []float64
		f float64
	}

	eval := func(x []float64) vertex {
		return vertex{x: x, f: f(x)}
	}
	clone := func(x []float64) []float64 {
		return append([]float64(nil), x...)
	}

	// Initial simplex: the start plus one relative perturbation per axis.
	simplex := make([]vertex, dim+1)
	simplex[0] = eval(clone(start))
	for i := 0; i < dim; i++ {
		p := clone(start)
		step := 0.05 * math.Abs(p[i])
		if step < 1e-6 {
			step = 1e-6
		}
		p[i] += step
		simplex[i+1] = eval(p)
	}

	const (
		alpha = 1.0 // reflection
		gamma = 2.0 // expansion
		rho   = 0.5 // contraction
		sigma = 0.5 // shrink
	)

	for iter := 0; iter < maxIter; iter++ {
		sort.Slice(simplex, func(i, j int) bool { return simplex[i].f < simplex[j].f })
		if math.Abs(simplex[dim].f-simplex[0].f) < 1e-10*(math.Abs(simplex[0].f)+1e-10) {
			break
		}

		// Centroid of all but the worst vertex.
		centroid := make([]float64, dim)
		for _, v := range simplex[:dim] {
			for j := range centroid {
				centroid[j] += v.x[j] / float64(dim)
			}
		}

		worst := simplex[dim]
		reflected := make([]float64, dim)
		for j := range reflected {
			reflected[j] = centroid[j] + alpha*(centroid[j]-worst.x[j])
		}
		rv := eval(reflected)

		switch {
		case rv.f < simplex[0].f:
			expanded := make([]float64, dim)
			for j := range expanded {
				expanded[j] = centroid[j] + gamma*(reflected[j]-centroid[j])
			}
			if ev := eval(expanded); ev.f < rv.f {
				simplex[dim] = ev
			} else {
				simplex[dim] = rv
			}
		case rv.f < simplex[dim-1].f:
			simplex[dim] = rv
		default:
			contracted := make([]float64, dim)
			for j := range contracted {
				contracted[j] = centroid[j] + rho*(worst.x[j]-centroid[j])
			}
			if cv := eval(contracted); cv.f < worst.f {
				simplex[dim] = cv
			} else {
				for i := 1; i <= dim; i++ {
					for j := range simplex[i].x {
						simplex[i].x[j] = simplex[0].x[j] + sigma*(simplex[i].x[j]-simplex[0].x[j])
					}
					simplex[i] = eval(simplex[i].x)
				}
			}
		}
	}

	sort.Slice(simplex, func(i, j int) bool { return simplex[i].f < simplex[j].f })
	return simplex[0].x, simplex[0].f
}
