package jobs

import (
	"context"
	"log"
	"sync"
	"time"
)

// MetricPruner deletes generation metrics of archived experiments once
// they fall outside the retention window. Runs daily.
type MetricPruner struct {
	pruner    Pruner
	retention time.Duration
	interval  time.Duration
	stopCh    chan struct{}
	wg        sync.WaitGroup
	running   bool
	mu        sync.Mutex
}

// Pruner removes expired metrics and reports how many were deleted.
type Pruner interface {
	PruneMetrics(ctx context.Context, retention time.Duration) (int, error)
}

// NewMetricPruner creates a new metric pruner job
func NewMetricPruner(pruner Pruner, retention, interval time.Duration) *MetricPruner {
	if retention == 0 {
		retention = 30 * 24 * time.Hour
	}
	if interval == 0 {
		interval = 24 * time.Hour
	}
	return &MetricPruner{
		pruner:    pruner,
		retention: retention,
		interval:  interval,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the metric pruner job
func (p *MetricPruner) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.mu.Unlock()

	p.wg.Add(1)
	go p.run()
	log.Printf("Metric pruner started (retention: %v, interval: %v)", p.retention, p.interval)
}

// Stop gracefully stops the metric pruner job
func (p *MetricPruner) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	close(p.stopCh)
	p.wg.Wait()
	log.Println("Metric pruner stopped")
}

// run is the main loop
func (p *MetricPruner) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.prune()
		case <-p.stopCh:
			return
		}
	}
}

func (p *MetricPruner) prune() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	removed, err := p.pruner.PruneMetrics(ctx, p.retention)
	if err != nil {
		log.Printf("Error pruning metrics: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("Pruned %d archived generation metrics", removed)
	}
}

// RunOnce runs one prune pass (for testing or manual trigger)
func (p *MetricPruner) RunOnce(ctx context.Context) error {
	_, err := p.pruner.PruneMetrics(ctx, p.retention)
	return err
}

// IsRunning returns whether the pruner is running
func (p *MetricPruner) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}
