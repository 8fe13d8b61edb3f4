// Package montecarlo simulates geometric Brownian motion price paths and
// prices European and American options on them.
package montecarlo

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync"
)

// GBMConfig parameterizes a geometric Brownian motion simulation.
type GBMConfig struct {
	S0         float64 // starting price
	Mu         float64 // drift (annualized)
	Sigma      float64 // volatility (annualized)
	T          float64 // horizon in years
	Steps      int     // time steps per path
	Paths      int     // number of paths
	Seed       int64
	Antithetic bool // mirror the draws of every second path
	Workers    int  // concurrent chunk workers, defaults to runtime.NumCPU()
}

// chunkPaths is the fixed number of paths per generation chunk. Each chunk
// owns a seeded random source, so the worker count never changes the draws.
const chunkPaths = 128

// SimulateGBM simulates price paths under the exact GBM discretization
// S_{t+1} = S_t * exp((mu - sigma^2/2)dt + sigma*sqrt(dt)*Z). The result is
// a Paths x (Steps+1) matrix whose first column is S0. Runs are deterministic
// for a fixed Seed regardless of Workers.
func SimulateGBM(ctx context.Context, cfg GBMConfig) ([][]float64, error) {
	if cfg.S0 <= 0 {
		return nil, fmt.Errorf("gbm: S0 must be positive, got %v", cfg.S0)
	}
	if cfg.Sigma < 0 {
		return nil, fmt.Errorf("gbm: sigma must be non-negative, got %v", cfg.Sigma)
	}
	if cfg.T <= 0 {
		return nil, fmt.Errorf("gbm: T must be positive, got %v", cfg.T)
	}
	if cfg.Steps < 1 {
		return nil, fmt.Errorf("gbm: steps must be positive, got %d", cfg.Steps)
	}
	if cfg.Paths < 1 {
		return nil, fmt.Errorf("gbm: paths must be positive, got %d", cfg.Paths)
	}
	if cfg.Antithetic && cfg.Paths%2 != 0 {
		return nil, fmt.Errorf("gbm: antithetic sampling needs an even path count, got %d", cfg.Paths)
	}

	paths := make([][]float64, cfg.Paths)
	for i := range paths {
		paths[i] = make([]float64, cfg.Steps+1)
		paths[i][0] = cfg.S0
	}

	dt := cfg.T / float64(cfg.Steps)
	drift := (cfg.Mu - 0.5*cfg.Sigma*cfg.Sigma) * dt
	volStep := cfg.Sigma * math.Sqrt(dt)

	numChunks := (cfg.Paths + chunkPaths - 1) / chunkPaths
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > numChunks {
		workers = numChunks
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := range jobs {
				simulateChunk(paths, k, cfg, drift, volStep)
			}
		}()
	}

dispatch:
	for k := 0; k < numChunks; k++ {
		select {
		case jobs <- k:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return paths, nil
}

// simulateChunk fills the chunk's rows of the path matrix. Rows are disjoint
// between chunks, so no locking is needed.
func simulateChunk(paths [][]float64, chunk int, cfg GBMConfig, drift, volStep float64) {
	rng := rand.New(rand.NewSource(cfg.Seed + int64(chunk) + 1))
	lo := chunk * chunkPaths
	hi := lo + chunkPaths
	if hi > cfg.Paths {
		hi = cfg.Paths
	}

	if cfg.Antithetic {
		// chunkPaths is even and chunks start on even indices, so pairs
		// never straddle a chunk boundary.
		for i := lo; i < hi; i += 2 {
			for t := 1; t < len(paths[i]); t++ {
				z := rng.NormFloat64()
				paths[i][t] = paths[i][t-1] * math.Exp(drift+volStep*z)
				paths[i+1][t] = paths[i+1][t-1] * math.Exp(drift-volStep*z)
			}
		}
		return
	}
	for i := lo; i < hi; i++ {
		for t := 1; t < len(paths[i]); t++ {
			z := rng.NormFloat64()
			paths[i][t] = paths[i][t-1] * math.Exp(drift+volStep*z)
		}
	}
}
