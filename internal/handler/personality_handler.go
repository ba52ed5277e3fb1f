package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/laboussole/boussole-api/internal/filter"
	"github.com/laboussole/boussole-api/internal/model"
	"github.com/laboussole/boussole-api/internal/personality"
)

// PersonalityServiceInterface は政治家閲覧のサービス層インターフェース。
type PersonalityServiceInterface interface {
	List(ctx context.Context, params filter.Params) (*personality.ListResult, error)
	Get(ctx context.Context, id string) (*personality.Detail, error)
}

// PersonalityHandler は政治家関連のHTTPハンドラー。
type PersonalityHandler struct {
	service PersonalityServiceInterface
}

// NewPersonalityHandler はPersonalityHandlerの新しいインスタンスを生成する。
func NewPersonalityHandler(service PersonalityServiceInterface) *PersonalityHandler {
	return &PersonalityHandler{service: service}
}

// personalityResponse は政治家のAPIレスポンス。所属政党情報を含む。
type personalityResponse struct {
	ID             string `json:"id"`
	Firstname      string `json:"firstname"`
	Lastname       string `json:"lastname"`
	DisplayName    string `json:"display_name"`
	City           string `json:"city,omitempty"`
	Department     string `json:"department,omitempty"`
	Region         string `json:"region,omitempty"`
	Title          string `json:"title,omitempty"`
	PortraitURL    string `json:"portrait_url,omitempty"`
	PartyID        string `json:"party_id,omitempty"`
	PartyName      string `json:"party_name,omitempty"`
	PartyShortName string `json:"party_short_name,omitempty"`
	PartyColor     string `json:"party_color,omitempty"`
	QuotesCount    int    `json:"quotes_count"`
}

// personalityListResponse は政治家一覧のAPIレスポンス。
type personalityListResponse struct {
	Items          []personalityResponse   `json:"items"`
	Count          int                     `json:"count"`
	AppliedFilters string                  `json:"applied_filters"`
	Warnings       []filterWarningResponse `json:"warnings,omitempty"`
}

// recentQuoteResponse は政治家詳細に付与する引用の要約レスポンス。
type recentQuoteResponse struct {
	ID   string        `json:"id"`
	Text string        `json:"text"`
	Date *time.Time    `json:"date"`
	Link string        `json:"link,omitempty"`
	Tags []tagResponse `json:"tags"`
}

// personalityDetailResponse は政治家詳細のAPIレスポンス。最新の引用を含む。
type personalityDetailResponse struct {
	personalityResponse
	RecentQuotes []recentQuoteResponse `json:"recent_quotes"`
}

// List はフィルタ条件に一致する政治家一覧を返す。
// GET /api/personnalites
func (h *PersonalityHandler) List(w http.ResponseWriter, r *http.Request) {
	params := filter.ParamsFromQuery(r.URL.Query())

	result, err := h.service.List(r.Context(), params)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	items := make([]personalityResponse, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, toPersonalityResponse(&result.Items[i]))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(personalityListResponse{
		Items:          items,
		Count:          result.Count,
		AppliedFilters: result.AppliedParams.Encode(),
		Warnings:       toFilterWarnings(result.Resolutions),
	})
}

// Get は政治家詳細を最新の引用付きで取得する。
// GET /api/personnalites/:id
func (h *PersonalityHandler) Get(w http.ResponseWriter, r *http.Request) {
	personalityID := chi.URLParam(r, "id")

	detail, err := h.service.Get(r.Context(), personalityID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	quotes := make([]recentQuoteResponse, 0, len(detail.RecentQuotes))
	for _, q := range detail.RecentQuotes {
		quotes = append(quotes, recentQuoteResponse{
			ID:   q.ID,
			Text: q.Text,
			Date: q.Date,
			Link: q.Link,
			Tags: toTagResponses(q.Tags),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(personalityDetailResponse{
		personalityResponse: toPersonalityResponse(&detail.Personality),
		RecentQuotes:        quotes,
	})
}

// toPersonalityResponse はmodel.PersonalityWithPartyからAPIレスポンスに変換する。
func toPersonalityResponse(p *model.PersonalityWithParty) personalityResponse {
	return personalityResponse{
		ID:             p.ID,
		Firstname:      p.Firstname,
		Lastname:       p.Lastname,
		DisplayName:    p.DisplayName(),
		City:           p.City,
		Department:     p.Department,
		Region:         p.Region,
		Title:          p.Title,
		PortraitURL:    p.PortraitURL,
		PartyID:        p.PartyID,
		PartyName:      p.PartyName,
		PartyShortName: p.PartyShortName,
		PartyColor:     p.PartyColor,
		QuotesCount:    p.QuotesCount,
	}
}
