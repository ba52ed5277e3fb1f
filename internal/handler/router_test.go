package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/laboussole/boussole-api/internal/citation"
	"github.com/laboussole/boussole-api/internal/filter"
	"github.com/laboussole/boussole-api/internal/middleware"
	"github.com/laboussole/boussole-api/internal/model"
	"github.com/laboussole/boussole-api/internal/news"
	"github.com/laboussole/boussole-api/internal/personality"
)

type mockPinger struct {
	pingFn func(ctx context.Context) error
}

func (m *mockPinger) PingContext(ctx context.Context) error {
	if m.pingFn != nil {
		return m.pingFn(ctx)
	}
	return nil
}

// newTestRouterDeps は全サービスをモックで満たしたRouterDepsを返す。
func newTestRouterDeps(t *testing.T) (*RouterDeps, *middleware.RateLimiter) {
	t.Helper()

	rl := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	t.Cleanup(rl.Stop)

	deps := &RouterDeps{
		CORSAllowedOrigin: "https://laboussole.example.org",
		RateLimiter:       rl,
		CitationService: &mockCitationService{
			listQuotesFn: func(ctx context.Context, params filter.Params) (*citation.ListResult, error) {
				return &citation.ListResult{AppliedParams: url.Values{}}, nil
			},
			getQuoteFn: func(ctx context.Context, id string) (*model.QuoteWithPersonality, error) {
				return nil, model.NewQuoteNotFoundError(id)
			},
		},
		PersonalityService: &mockPersonalityService{
			listFn: func(ctx context.Context, params filter.Params) (*personality.ListResult, error) {
				return &personality.ListResult{AppliedParams: url.Values{}}, nil
			},
			getFn: func(ctx context.Context, id string) (*personality.Detail, error) {
				return nil, model.NewPersonalityNotFoundError(id)
			},
		},
		NewsService: &mockNewsService{
			listFn: func(ctx context.Context, pageStr, sizeStr string) (*news.ListResult, error) {
				return &news.ListResult{}, nil
			},
		},
		Tags: &mockTagLister{listAllFn: func(ctx context.Context) ([]model.Tag, error) {
			return []model.Tag{}, nil
		}},
		Parties: &mockPartyLister{listAllFn: func(ctx context.Context) ([]model.Party, error) {
			return []model.Party{}, nil
		}},
		MandateTypes: &mockMandateTypeLister{listAllFn: func(ctx context.Context) ([]model.MandateType, error) {
			return []model.MandateType{}, nil
		}},
		Departments: &mockDepartmentLister{listFn: func(ctx context.Context) ([]model.Territory, error) {
			return []model.Territory{}, nil
		}},
		HealthChecker: &mockPinger{},
	}

	return deps, rl
}

func TestRouter_AllEndpointsAreRouted(t *testing.T) {
	deps, _ := newTestRouterDeps(t)
	router := NewRouter(deps)

	endpoints := []struct {
		path       string
		wantStatus int
	}{
		{"/api/citations", http.StatusOK},
		{"/api/citations/q1", http.StatusNotFound}, // モックは未検出を返す
		{"/api/personnalites", http.StatusOK},
		{"/api/personnalites/p1", http.StatusNotFound},
		{"/api/tags", http.StatusOK},
		{"/api/partis", http.StatusOK},
		{"/api/mandat-types", http.StatusOK},
		{"/api/departements", http.StatusOK},
		{"/api/actualites", http.StatusOK},
		{"/health", http.StatusOK},
	}

	for _, ep := range endpoints {
		t.Run(ep.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, ep.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Result().StatusCode != ep.wantStatus {
				t.Errorf("status = %d, want %d", w.Result().StatusCode, ep.wantStatus)
			}
		})
	}
}

func TestRouter_UnknownRouteReturns404(t *testing.T) {
	deps, _ := newTestRouterDeps(t)
	router := NewRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/api/unknown", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}
}

func TestRouter_AppliesCORSAndSecurityHeaders(t *testing.T) {
	deps, _ := newTestRouterDeps(t)
	router := NewRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/api/tags", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	headers := w.Result().Header
	if got := headers.Get("Access-Control-Allow-Origin"); got != "https://laboussole.example.org" {
		t.Errorf("Access-Control-Allow-Origin = %q, want allowed origin", got)
	}
	if got := headers.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := headers.Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}

func TestRouter_OptionsPreflightReturns204(t *testing.T) {
	deps, _ := newTestRouterDeps(t)
	router := NewRouter(deps)

	req := httptest.NewRequest(http.MethodOptions, "/api/citations", nil)
	req.Header.Set("Origin", "https://laboussole.example.org")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNoContent)
	}
}

func TestRouter_SearchRateLimitAppliesOnlyToListEndpoints(t *testing.T) {
	deps, _ := newTestRouterDeps(t)

	// 検索は1回で枯渇する設定
	cfg := middleware.DefaultRateLimiterConfig()
	cfg.SearchRate = 1
	cfg.SearchBurst = 1
	rl := middleware.NewRateLimiter(cfg)
	t.Cleanup(rl.Stop)
	deps.RateLimiter = rl

	router := NewRouter(deps)

	send := func(path string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "203.0.113.80:1000"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Result().StatusCode
	}

	if status := send("/api/citations"); status != http.StatusOK {
		t.Fatalf("first list request: status = %d, want 200", status)
	}
	if status := send("/api/citations"); status != http.StatusTooManyRequests {
		t.Errorf("second list request: status = %d, want 429", status)
	}

	// 検索制限の対象外エンドポイントは引き続き通る
	if status := send("/api/tags"); status != http.StatusOK {
		t.Errorf("reference request: status = %d, want 200", status)
	}
}

func TestRouter_HealthCheckReflectsDatabaseState(t *testing.T) {
	deps, _ := newTestRouterDeps(t)
	deps.HealthChecker = &mockPinger{
		pingFn: func(ctx context.Context) error {
			return errors.New("connection refused")
		},
	}
	router := NewRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusServiceUnavailable)
	}
}

func TestRouter_MetricsEndpointWiredWhenProvided(t *testing.T) {
	deps, _ := newTestRouterDeps(t)
	deps.MetricsHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("# metrics"))
	})
	router := NewRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

func TestRouter_RecoveryMiddlewareCatchesPanic(t *testing.T) {
	deps, _ := newTestRouterDeps(t)
	deps.Tags = &mockTagLister{listAllFn: func(ctx context.Context) ([]model.Tag, error) {
		panic("unexpected")
	}}
	router := NewRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/api/tags", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusInternalServerError)
	}
}
