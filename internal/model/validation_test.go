package model

import "testing"

func validParameters() Parameters {
	return Parameters{
		PopulationSize: 100,
		MaxGenerations: 500,
		MutationRate:   0.05,
		CrossoverRate:  0.8,
		Elitism:        2,
	}
}

func TestCreateExperimentRequest_Valid(t *testing.T) {
	t.Parallel()

	req := CreateExperimentRequest{
		Name:       "antenna profile",
		Objective:  ObjectiveMaximize,
		Parameters: validParameters(),
	}
	if errs := req.Validate(); len(errs) != 0 {
		t.Errorf("expected no errors, got %v", errs)
	}
}

func TestCreateExperimentRequest_MissingName(t *testing.T) {
	t.Parallel()

	req := CreateExperimentRequest{
		Objective:  ObjectiveMinimize,
		Parameters: validParameters(),
	}
	errs := req.Validate()
	if !hasFieldError(errs, "name") {
		t.Errorf("expected name error, got %v", errs)
	}
}

func TestCreateExperimentRequest_BadObjective(t *testing.T) {
	t.Parallel()

	req := CreateExperimentRequest{
		Name:       "x",
		Objective:  "mediate",
		Parameters: validParameters(),
	}
	if !hasFieldError(req.Validate(), "objective") {
		t.Error("expected objective error")
	}
}

func TestCreateExperimentRequest_ParameterBounds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Parameters)
		field  string
	}{
		{"population too small", func(p *Parameters) { p.PopulationSize = 1 }, "parameters.population_size"},
		{"population too large", func(p *Parameters) { p.PopulationSize = 10001 }, "parameters.population_size"},
		{"zero generations", func(p *Parameters) { p.MaxGenerations = 0 }, "parameters.max_generations"},
		{"mutation rate above one", func(p *Parameters) { p.MutationRate = 1.1 }, "parameters.mutation_rate"},
		{"negative crossover", func(p *Parameters) { p.CrossoverRate = -0.1 }, "parameters.crossover_rate"},
		{"elitism above population", func(p *Parameters) { p.Elitism = 200 }, "parameters.elitism"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			params := validParameters()
			tc.mutate(&params)
			req := CreateExperimentRequest{Name: "x", Objective: ObjectiveMaximize, Parameters: params}
			if !hasFieldError(req.Validate(), tc.field) {
				t.Errorf("expected error on %s", tc.field)
			}
		})
	}
}

func TestUpdateExperimentRequest_PartialUpdates(t *testing.T) {
	t.Parallel()

	// No fields set: nothing to validate.
	empty := UpdateExperimentRequest{}
	if errs := empty.Validate(); len(errs) != 0 {
		t.Errorf("expected no errors for empty update, got %v", errs)
	}

	blank := ""
	req := UpdateExperimentRequest{Name: &blank}
	if !hasFieldError(req.Validate(), "name") {
		t.Error("expected error for blank name")
	}
}

func TestRunStatus_Transitions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from, to RunStatus
		want     bool
	}{
		{RunPending, RunRunning, true},
		{RunPending, RunFailed, true},
		{RunPending, RunCancelled, true},
		{RunPending, RunCompleted, false},
		{RunRunning, RunCompleted, true},
		{RunRunning, RunFailed, true},
		{RunRunning, RunCancelled, true},
		{RunRunning, RunPending, false},
		{RunCompleted, RunRunning, false},
		{RunFailed, RunRunning, false},
		{RunCancelled, RunCompleted, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("%s -> %s = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestRunStatus_Terminal(t *testing.T) {
	t.Parallel()

	for _, s := range []RunStatus{RunCompleted, RunFailed, RunCancelled} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []RunStatus{RunPending, RunRunning} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestProgressReport_Validate(t *testing.T) {
	t.Parallel()

	ok := ProgressReport{EngineJobID: "job-1", Status: RunRunning, Generation: 3}
	if errs := ok.Validate(); len(errs) != 0 {
		t.Errorf("expected no errors, got %v", errs)
	}

	missing := ProgressReport{Status: RunRunning}
	if !hasFieldError(missing.Validate(), "job_id") {
		t.Error("expected job_id error")
	}

	pending := ProgressReport{EngineJobID: "job-1", Status: RunPending}
	if !hasFieldError(pending.Validate(), "status") {
		t.Error("expected status error for pending report")
	}

	negative := ProgressReport{EngineJobID: "job-1", Status: RunRunning, Generation: -1}
	if !hasFieldError(negative.Validate(), "generation") {
		t.Error("expected generation error")
	}
}

func hasFieldError(errs []FieldError, field string) bool {
	for _, e := range errs {
		if e.Field == field {
			return true
		}
	}
	return false
}
