package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"quantlab/config"
	"quantlab/internal/domain"
	"quantlab/internal/ports"
)

// ResearchService orchestrates the scheduled market watch: it keeps the local
// bar cache fresh for every watched symbol, runs the signal scanner over the
// cached history, and persists whatever the scanner flags.
type ResearchService struct {
	cfg        *config.Config
	logger     ports.Logger
	provider   ports.MarketDataProvider
	barRepo    ports.BarRepository
	signalRepo ports.SignalRepository
	scanner    ports.SignalScanner

	// State fields
	mu           sync.Mutex // Serializes scan passes and protects the counters below
	scansRun     int
	signalsFound int
	lastScanAt   time.Time
}

// NewResearchService creates a new application service instance.
func NewResearchService(
	cfg *config.Config,
	logger ports.Logger,
	provider ports.MarketDataProvider,
	barRepo ports.BarRepository,
	signalRepo ports.SignalRepository,
	scanner ports.SignalScanner,
) (*ResearchService, error) {

	// Validate dependencies
	if cfg == nil || logger == nil || provider == nil || barRepo == nil || signalRepo == nil || scanner == nil {
		return nil, fmt.Errorf("missing required dependencies for ResearchService")
	}

	// Validate config values needed by the service
	if len(cfg.Watch.Symbols) == 0 {
		return nil, fmt.Errorf("configuration must list at least one watch symbol")
	}
	if cfg.Provider.BackfillDays <= 0 {
		return nil, fmt.Errorf("configuration BackfillDays must be positive")
	}
	if cfg.Watch.CronSpec == "" {
		return nil, fmt.Errorf("configuration CronSpec must be set")
	}

	return &ResearchService{
		cfg:        cfg,
		logger:     logger,
		provider:   provider,
		barRepo:    barRepo,
		signalRepo: signalRepo,
		scanner:    scanner,
	}, nil
}

// RefreshResult summarizes one symbol's cache refresh.
type RefreshResult struct {
	Symbol      string
	Fetched     int       // bars returned by the provider
	NewBars     int       // bars newer than the previously cached latest
	TotalCached int       // rows stored for the symbol after the refresh
	LatestBar   time.Time // time of the newest cached bar, zero when nothing is cached
}

// RefreshSymbol tops up the bar cache for one symbol. An empty cache is
// backfilled over the configured window; otherwise fetching resumes at the
// most recent stored bar. The upsert makes re-fetching overlap harmless.
func (s *ResearchService) RefreshSymbol(ctx context.Context, symbol string) (*RefreshResult, error) {
	op := "RefreshSymbol"
	interval := s.cfg.Interval()

	latest, err := s.barRepo.LatestBarTime(ctx, symbol, interval)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to read cache state", map[string]interface{}{"symbol": symbol})
		return nil, fmt.Errorf("%s: query latest bar: %w", op, err)
	}

	to := time.Now()
	var from time.Time
	if latest.IsZero() {
		from = to.AddDate(0, 0, -s.cfg.Provider.BackfillDays)
	} else {
		// Resume at the latest stored bar rather than after it: that bar may
		// have still been forming when cached, and the upsert overwrites it.
		from = latest
	}
	if !to.After(from) {
		s.logger.Debug(ctx, "Bar cache is current", map[string]interface{}{"symbol": symbol})
		return &RefreshResult{Symbol: symbol, LatestBar: latest}, nil
	}

	bars, err := s.provider.FetchBars(ctx, symbol, interval, from, to)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			// Nothing new from the vendor (weekend, holiday, stale listing).
			s.logger.Debug(ctx, "Provider returned no bars", map[string]interface{}{"symbol": symbol, "provider": s.provider.Name()})
			return &RefreshResult{Symbol: symbol, LatestBar: latest}, nil
		}
		s.logger.Error(ctx, err, "Failed to fetch bars", map[string]interface{}{"symbol": symbol, "provider": s.provider.Name()})
		return nil, fmt.Errorf("%s: fetch bars: %w", op, err)
	}

	if err := s.barRepo.SaveBars(ctx, bars); err != nil {
		s.logger.Error(ctx, err, "Failed to save bars", map[string]interface{}{"symbol": symbol, "count": len(bars)})
		return nil, fmt.Errorf("%s: save bars: %w", op, err)
	}

	result := &RefreshResult{Symbol: symbol, Fetched: len(bars)}
	for _, b := range bars {
		if b.Time.After(latest) {
			result.NewBars++
		}
		if b.Time.After(result.LatestBar) {
			result.LatestBar = b.Time
		}
	}
	if !latest.IsZero() && latest.After(result.LatestBar) {
		result.LatestBar = latest
	}

	total, err := s.barRepo.CountBySymbol(ctx, symbol, interval)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to count cached bars", map[string]interface{}{"symbol": symbol})
		return nil, fmt.Errorf("%s: count bars: %w", op, err)
	}
	result.TotalCached = total

	s.logger.Debug(ctx, "Bar cache refreshed", map[string]interface{}{
		"symbol":      symbol,
		"fetched":     result.Fetched,
		"newBars":     result.NewBars,
		"totalCached": result.TotalCached,
	})
	return result, nil
}

// ScanReport summarizes one scan pass over the watch list.
type ScanReport struct {
	StartedAt time.Time
	Duration  time.Duration
	Symbols   int
	Refreshed int
	Signals   []*domain.Signal // actionable signals persisted this pass
	Errors    int
}

// RunScan refreshes every watched symbol, runs the scanner over its cached
// history, and persists actionable signals. Per-symbol failures are counted
// and logged rather than aborting the pass; only context cancellation stops
// it. Concurrent calls are serialized, so an overlapping schedule fire waits
// for the previous pass to finish.
func (s *ResearchService) RunScan(ctx context.Context) (*ScanReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := &ScanReport{StartedAt: time.Now(), Symbols: len(s.cfg.Watch.Symbols)}
	interval := s.cfg.Interval()
	s.logger.Info(ctx, "Starting scan pass", map[string]interface{}{
		"symbols":  s.cfg.Watch.Symbols,
		"interval": string(interval),
		"provider": s.provider.Name(),
	})

	for _, symbol := range s.cfg.Watch.Symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		refresh, err := s.RefreshSymbol(ctx, symbol)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			report.Errors++
			continue // already logged inside RefreshSymbol
		}
		report.Refreshed++

		to := time.Now()
		from := to.AddDate(0, 0, -s.cfg.Provider.BackfillDays)
		bars, err := s.barRepo.FindBars(ctx, symbol, interval, from, to)
		if err != nil {
			s.logger.Error(ctx, err, "Failed to load cached bars", map[string]interface{}{"symbol": symbol})
			report.Errors++
			continue
		}

		sig, err := s.scanner.Scan(ctx, bars)
		if err != nil {
			if errors.Is(err, ports.ErrInsufficientData) {
				s.logger.Warn(ctx, "Not enough history to scan", map[string]interface{}{
					"symbol":   symbol,
					"cached":   len(bars),
					"required": s.scanner.RequiredDataPoints(),
					"latest":   refresh.LatestBar,
				})
				continue
			}
			s.logger.Error(ctx, err, "Scan failed", map[string]interface{}{"symbol": symbol})
			report.Errors++
			continue
		}

		if sig.Action == domain.ActionHold {
			continue // only actionable signals are worth persisting
		}

		id, err := s.signalRepo.SaveSignal(ctx, sig)
		if err != nil {
			s.logger.Error(ctx, err, "Failed to persist signal", map[string]interface{}{"symbol": symbol, "action": string(sig.Action)})
			report.Errors++
			continue
		}
		sig.ID = id
		report.Signals = append(report.Signals, sig)
	}

	report.Duration = time.Since(report.StartedAt)
	s.scansRun++
	s.signalsFound += len(report.Signals)
	s.lastScanAt = report.StartedAt

	s.logger.Info(ctx, "Scan pass complete", map[string]interface{}{
		"symbols":   report.Symbols,
		"refreshed": report.Refreshed,
		"signals":   len(report.Signals),
		"errors":    report.Errors,
		"duration":  report.Duration.String(),
	})
	return report, nil
}

// Stats reports how much work the service has done since it started.
type Stats struct {
	ScansRun     int
	SignalsFound int
	LastScanAt   time.Time
}

// Stats returns a snapshot of the service counters.
func (s *ResearchService) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{ScansRun: s.scansRun, SignalsFound: s.signalsFound, LastScanAt: s.lastScanAt}
}

// Run starts the scheduled watch and blocks until the context is cancelled or
// a termination signal arrives. The schedule keeps running through failed
// passes; transient vendor trouble should not take the service down.
func (s *ResearchService) Run(ctx context.Context) error {
	s.logger.Info(ctx, "Starting research service...", map[string]interface{}{
		"provider": s.provider.Name(),
		"symbols":  s.cfg.Watch.Symbols,
		"interval": s.cfg.Provider.Interval,
		"cron":     s.cfg.Watch.CronSpec,
	})

	// Create a context that can be canceled by signals
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			s.logger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
			cancel()
		case <-ctx.Done():
		}
	}()

	c := cron.New()
	entryID, err := c.AddFunc(s.cfg.Watch.CronSpec, func() {
		if _, err := s.RunScan(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error(ctx, err, "Scheduled scan failed")
		}
	})
	if err != nil {
		s.logger.Error(ctx, err, "Invalid cron expression", map[string]interface{}{"cron": s.cfg.Watch.CronSpec})
		return fmt.Errorf("invalid cron expression %q: %w", s.cfg.Watch.CronSpec, err)
	}

	if s.cfg.Watch.RunOnStart {
		if _, err := s.RunScan(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error(ctx, err, "Initial scan failed")
		}
	}

	c.Start()
	s.logger.Info(ctx, "Scan schedule started", map[string]interface{}{
		"cron":    s.cfg.Watch.CronSpec,
		"nextRun": c.Entry(entryID).Next,
	})

	<-ctx.Done()

	s.logger.Info(ctx, "Shutting down research service...")
	// Stop dispatching and wait for any in-flight pass to finish.
	<-c.Stop().Done()

	stats := s.Stats()
	s.logger.Info(ctx, "Research service stopped", map[string]interface{}{
		"scansRun":     stats.ScansRun,
		"signalsFound": stats.SignalsFound,
	})
	return nil
}
