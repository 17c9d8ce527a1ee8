// Package jobs implements background processing for the bridge.
//
// The jobs package contains scheduled tasks that run independently of
// HTTP request handling.
//
// # Job Types
//
//   - RunPoller: reconciles active runs against the engine every 30 seconds
//   - MetricPruner: daily removal of metrics belonging to archived experiments
//
// # Lifecycle
//
// Each job follows the same pattern:
//
//	poller := jobs.NewRunPoller(runService, 30*time.Second)
//	poller.Start()
//	defer poller.Stop()
//
// Stop blocks until the job's goroutine exits. Jobs log errors and keep
// running; a failed pass is retried on the next tick.
package jobs
