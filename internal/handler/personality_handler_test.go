package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/laboussole/boussole-api/internal/filter"
	"github.com/laboussole/boussole-api/internal/model"
	"github.com/laboussole/boussole-api/internal/personality"
)

// mockPersonalityService はPersonalityServiceInterfaceのテスト用モック。
type mockPersonalityService struct {
	listFn func(ctx context.Context, params filter.Params) (*personality.ListResult, error)
	getFn  func(ctx context.Context, id string) (*personality.Detail, error)
}

func (m *mockPersonalityService) List(ctx context.Context, params filter.Params) (*personality.ListResult, error) {
	return m.listFn(ctx, params)
}

func (m *mockPersonalityService) Get(ctx context.Context, id string) (*personality.Detail, error) {
	return m.getFn(ctx, id)
}

func newPersonalityTestRouter(service PersonalityServiceInterface) http.Handler {
	r := chi.NewRouter()
	h := NewPersonalityHandler(service)
	r.Get("/api/personnalites", h.List)
	r.Get("/api/personnalites/{id}", h.Get)
	return r
}

func TestPersonalityList_ReturnsItemsAndCount(t *testing.T) {
	service := &mockPersonalityService{
		listFn: func(ctx context.Context, params filter.Params) (*personality.ListResult, error) {
			return &personality.ListResult{
				Items: []model.PersonalityWithParty{
					{
						Personality: model.Personality{
							ID:          "p1",
							Firstname:   "Jean",
							Lastname:    "Martin",
							Department:  "Gironde",
							QuotesCount: 12,
						},
						PartyName:      "Parti Exemple",
						PartyShortName: "PE",
					},
				},
				Count:         7,
				AppliedParams: url.Values{"department": []string{"Gironde"}},
			}, nil
		},
	}

	router := newPersonalityTestRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/api/personnalites?department=Gironde", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	var body personalityListResponse
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(body.Items) != 1 {
		t.Fatalf("items length = %d, want 1", len(body.Items))
	}
	if body.Items[0].DisplayName != "Jean Martin" {
		t.Errorf("display_name = %q, want %q", body.Items[0].DisplayName, "Jean Martin")
	}
	if body.Items[0].PartyShortName != "PE" {
		t.Errorf("party_short_name = %q, want %q", body.Items[0].PartyShortName, "PE")
	}
	if body.Count != 7 {
		t.Errorf("count = %d, want 7", body.Count)
	}
	if body.AppliedFilters != "department=Gironde" {
		t.Errorf("applied_filters = %q, want %q", body.AppliedFilters, "department=Gironde")
	}
}

func TestPersonalityList_InvalidParameterReturns400(t *testing.T) {
	service := &mockPersonalityService{
		listFn: func(ctx context.Context, params filter.Params) (*personality.ListResult, error) {
			return nil, model.NewInvalidParameterError("page", "abc")
		},
	}

	router := newPersonalityTestRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/api/personnalites?page=abc&size=10", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}
}

func TestPersonalityGet_ReturnsDetailWithRecentQuotes(t *testing.T) {
	date := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	service := &mockPersonalityService{
		getFn: func(ctx context.Context, id string) (*personality.Detail, error) {
			return &personality.Detail{
				Personality: model.PersonalityWithParty{
					Personality: model.Personality{ID: "p1", Firstname: "Jean", Lastname: "Martin"},
				},
				RecentQuotes: []model.Quote{
					{ID: "q1", Text: "Première citation.", Date: &date},
					{ID: "q2", Text: "Deuxième citation."},
				},
			}, nil
		},
	}

	router := newPersonalityTestRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/api/personnalites/p1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	var body personalityDetailResponse
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if body.ID != "p1" {
		t.Errorf("id = %q, want %q", body.ID, "p1")
	}
	if len(body.RecentQuotes) != 2 {
		t.Fatalf("recent_quotes length = %d, want 2", len(body.RecentQuotes))
	}
	if body.RecentQuotes[0].ID != "q1" {
		t.Errorf("recent_quotes[0].id = %q, want %q", body.RecentQuotes[0].ID, "q1")
	}
}

func TestPersonalityGet_NotFoundReturns404(t *testing.T) {
	service := &mockPersonalityService{
		getFn: func(ctx context.Context, id string) (*personality.Detail, error) {
			return nil, model.NewPersonalityNotFoundError(id)
		},
	}

	router := newPersonalityTestRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/api/personnalites/missing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["code"] != model.ErrCodePersonalityNotFound {
		t.Errorf("code = %q, want %q", body["code"], model.ErrCodePersonalityNotFound)
	}
}
