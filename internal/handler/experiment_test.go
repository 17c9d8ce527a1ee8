package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/evolution-ecosystem/bridge/internal/middleware"
	"github.com/evolution-ecosystem/bridge/internal/model"
	"github.com/evolution-ecosystem/bridge/internal/service"
)

// ============================================================================
// Mock ExperimentService
// ============================================================================

type mockExperimentService struct {
	createFunc  func(ctx context.Context, ownerID string, req *model.CreateExperimentRequest) (*model.Experiment, error)
	getFunc     func(ctx context.Context, ownerID, id string) (*model.Experiment, error)
	listFunc    func(ctx context.Context, ownerID string) ([]*model.Experiment, error)
	updateFunc  func(ctx context.Context, ownerID, id string, req *model.UpdateExperimentRequest) (*model.Experiment, error)
	archiveFunc func(ctx context.Context, ownerID, id string) error
}

func (m *mockExperimentService) Create(ctx context.Context, ownerID string, req *model.CreateExperimentRequest) (*model.Experiment, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, ownerID, req)
	}
	return nil, nil
}

func (m *mockExperimentService) Get(ctx context.Context, ownerID, id string) (*model.Experiment, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, ownerID, id)
	}
	return nil, nil
}

func (m *mockExperimentService) List(ctx context.Context, ownerID string) ([]*model.Experiment, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, ownerID)
	}
	return nil, nil
}

func (m *mockExperimentService) Update(ctx context.Context, ownerID, id string, req *model.UpdateExperimentRequest) (*model.Experiment, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, ownerID, id, req)
	}
	return nil, nil
}

func (m *mockExperimentService) Archive(ctx context.Context, ownerID, id string) error {
	if m.archiveFunc != nil {
		return m.archiveFunc(ctx, ownerID, id)
	}
	return nil
}

// ============================================================================
// Test Helpers
// ============================================================================

// authedRequest builds a request carrying an authenticated user ID, the
// way the auth middleware would.
func authedRequest(method, target string, body []byte, userID string) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
	return req.WithContext(ctx)
}

func validCreateBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(model.CreateExperimentRequest{
		Name:      "Antenna Layout",
		Objective: model.ObjectiveMaximize,
		Parameters: model.Parameters{
			PopulationSize: 50,
			MaxGenerations: 200,
			MutationRate:   0.05,
			CrossoverRate:  0.8,
		},
	})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	return body
}

func decodeProblem(t *testing.T, rr *httptest.ResponseRecorder) model.ProblemDetails {
	t.Helper()
	var problem model.ProblemDetails
	if err := json.Unmarshal(rr.Body.Bytes(), &problem); err != nil {
		t.Fatalf("decode problem details: %v", err)
	}
	return problem
}

// ============================================================================
// Create Tests
// ============================================================================

func TestExperimentCreate_Returns201(t *testing.T) {
	t.Parallel()

	h := NewExperimentHandler(&mockExperimentService{
		createFunc: func(ctx context.Context, ownerID string, req *model.CreateExperimentRequest) (*model.Experiment, error) {
			return &model.Experiment{ID: "experiment:1", OwnerID: ownerID, Name: req.Name}, nil
		},
	})

	req := authedRequest(http.MethodPost, "/api/v1/experiments", validCreateBody(t), "user:alice")
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Data model.Experiment `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.ID != "experiment:1" {
		t.Errorf("expected experiment:1, got %q", resp.Data.ID)
	}
}

func TestExperimentCreate_InvalidBodyReturns400(t *testing.T) {
	t.Parallel()

	h := NewExperimentHandler(&mockExperimentService{})

	req := authedRequest(http.MethodPost, "/api/v1/experiments", []byte("{not json"), "user:alice")
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
}

func TestExperimentCreate_ValidationFailureReturns422(t *testing.T) {
	t.Parallel()

	h := NewExperimentHandler(&mockExperimentService{})

	body, _ := json.Marshal(model.CreateExperimentRequest{
		Name:      "",
		Objective: "sideways",
	})
	req := authedRequest(http.MethodPost, "/api/v1/experiments", body, "user:alice")
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
	problem := decodeProblem(t, rr)
	if len(problem.Errors) == 0 {
		t.Error("expected field errors in problem details")
	}
}

func TestExperimentCreate_NoUserReturns401(t *testing.T) {
	t.Parallel()

	h := NewExperimentHandler(&mockExperimentService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/experiments", bytes.NewReader(validCreateBody(t)))
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rr.Code)
	}
}

// ============================================================================
// Get / List Tests
// ============================================================================

func TestExperimentGet_NotFoundReturns404(t *testing.T) {
	t.Parallel()

	h := NewExperimentHandler(&mockExperimentService{
		getFunc: func(ctx context.Context, ownerID, id string) (*model.Experiment, error) {
			return nil, service.ErrExperimentNotFound
		},
	})

	req := authedRequest(http.MethodGet, "/api/v1/experiments/experiment:9", nil, "user:alice")
	req.SetPathValue("experimentId", "experiment:9")
	rr := httptest.NewRecorder()
	h.Get(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
}

func TestExperimentList_ReturnsCollection(t *testing.T) {
	t.Parallel()

	h := NewExperimentHandler(&mockExperimentService{
		listFunc: func(ctx context.Context, ownerID string) ([]*model.Experiment, error) {
			return []*model.Experiment{
				{ID: "experiment:1", OwnerID: ownerID},
				{ID: "experiment:2", OwnerID: ownerID},
			}, nil
		},
	})

	req := authedRequest(http.MethodGet, "/api/v1/experiments", nil, "user:alice")
	rr := httptest.NewRecorder()
	h.List(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp CollectionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 2 {
		t.Errorf("expected count 2, got %d", resp.Count)
	}
}

// ============================================================================
// Archive Tests
// ============================================================================

func TestExperimentArchive_Returns204(t *testing.T) {
	t.Parallel()

	h := NewExperimentHandler(&mockExperimentService{})

	req := authedRequest(http.MethodDelete, "/api/v1/experiments/experiment:1", nil, "user:alice")
	req.SetPathValue("experimentId", "experiment:1")
	rr := httptest.NewRecorder()
	h.Archive(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rr.Code)
	}
}

func TestExperimentArchive_ActiveRunReturns409(t *testing.T) {
	t.Parallel()

	h := NewExperimentHandler(&mockExperimentService{
		archiveFunc: func(ctx context.Context, ownerID, id string) error {
			return service.ErrExperimentHasActiveRun
		},
	})

	req := authedRequest(http.MethodDelete, "/api/v1/experiments/experiment:1", nil, "user:alice")
	req.SetPathValue("experimentId", "experiment:1")
	rr := httptest.NewRecorder()
	h.Archive(rr, req)

	if rr.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rr.Code)
	}
}
