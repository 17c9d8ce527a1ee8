package jobs

import (
	"context"
	"log"
	"sync"
	"time"
)

// ActiveSyncer reconciles non-terminal runs against the engine.
type ActiveSyncer interface {
	SyncActive(ctx context.Context) error
}

// RunPoller periodically reconciles active runs with the engine's view,
// catching progress lost to dropped callbacks or bridge downtime.
type RunPoller struct {
	syncer   ActiveSyncer
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

// NewRunPoller creates a new run poller job
func NewRunPoller(syncer ActiveSyncer, interval time.Duration) *RunPoller {
	if interval == 0 {
		interval = 30 * time.Second
	}
	return &RunPoller{
		syncer:   syncer,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the run poller job
func (p *RunPoller) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.mu.Unlock()

	p.wg.Add(1)
	go p.run()
	log.Printf("Run poller started (interval: %v)", p.interval)
}

// Stop gracefully stops the run poller job
func (p *RunPoller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	close(p.stopCh)
	p.wg.Wait()
	log.Println("Run poller stopped")
}

// run is the main loop
func (p *RunPoller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.sync()
		case <-p.stopCh:
			return
		}
	}
}

func (p *RunPoller) sync() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := p.syncer.SyncActive(ctx); err != nil {
		log.Printf("Error syncing active runs: %v", err)
	}
}

// RunOnce runs one reconciliation pass (for testing or manual trigger)
func (p *RunPoller) RunOnce(ctx context.Context) error {
	return p.syncer.SyncActive(ctx)
}

// IsRunning returns whether the poller is running
func (p *RunPoller) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}
