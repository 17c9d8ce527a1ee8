package model

import "time"

// GenerationMetric is one sampled point of an optimization run: the
// fitness statistics of a single generation. Unique per (run, generation);
// the engine may re-report a generation and the record is simply replaced.
type GenerationMetric struct {
	ID          string    `json:"id"`
	RunID       string    `json:"run_id"`
	Generation  int       `json:"generation"`
	BestFitness float64   `json:"best_fitness"`
	MeanFitness float64   `json:"mean_fitness"`
	Diversity   float64   `json:"diversity"`
	RecordedOn  time.Time `json:"recorded_on"`
}
