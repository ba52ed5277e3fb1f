// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/laboussole/boussole-api/internal/citation"
	"github.com/laboussole/boussole-api/internal/filter"
	"github.com/laboussole/boussole-api/internal/model"
)

// CitationServiceInterface は引用閲覧のサービス層インターフェース。
type CitationServiceInterface interface {
	ListQuotes(ctx context.Context, params filter.Params) (*citation.ListResult, error)
	GetQuote(ctx context.Context, id string) (*model.QuoteWithPersonality, error)
}

// CitationHandler は引用関連のHTTPハンドラー。
type CitationHandler struct {
	service CitationServiceInterface
}

// NewCitationHandler はCitationHandlerの新しいインスタンスを生成する。
func NewCitationHandler(service CitationServiceInterface) *CitationHandler {
	return &CitationHandler{service: service}
}

// tagResponse はタグのAPIレスポンス。
type tagResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color,omitempty"`
	QuotesCount int    `json:"quotes_count"`
}

// quoteResponse は引用のAPIレスポンス。発言者情報を含む。
type quoteResponse struct {
	ID               string        `json:"id"`
	Text             string        `json:"text"`
	Date             *time.Time    `json:"date"`
	Link             string        `json:"link,omitempty"`
	PersonalityID    string        `json:"personality_id"`
	PersonalityName  string        `json:"personality_name"`
	PersonalityTitle string        `json:"personality_title,omitempty"`
	PartyID          string        `json:"party_id,omitempty"`
	PartyShortName   string        `json:"party_short_name,omitempty"`
	Tags             []tagResponse `json:"tags"`
}

// filterWarningResponse はベストエフォートのフィルタ解決で
// 解決できなかったディメンションをクライアントに通知する。
type filterWarningResponse struct {
	Dimension string `json:"dimension"`
	Status    string `json:"status"`
}

// quoteListResponse は引用一覧のAPIレスポンス。
// countはページ制限前の総件数、applied_filtersは実際に適用されたフィルタ状態。
type quoteListResponse struct {
	Items          []quoteResponse         `json:"items"`
	Count          int                     `json:"count"`
	AppliedFilters string                  `json:"applied_filters"`
	Warnings       []filterWarningResponse `json:"warnings,omitempty"`
}

// ListQuotes はフィルタ条件に一致する引用一覧を返す。
// GET /api/citations
func (h *CitationHandler) ListQuotes(w http.ResponseWriter, r *http.Request) {
	params := filter.ParamsFromQuery(r.URL.Query())

	result, err := h.service.ListQuotes(r.Context(), params)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	items := make([]quoteResponse, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, toQuoteResponse(&result.Items[i]))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(quoteListResponse{
		Items:          items,
		Count:          result.Count,
		AppliedFilters: result.AppliedParams.Encode(),
		Warnings:       toFilterWarnings(result.Resolutions),
	})
}

// GetQuote は引用詳細を取得する。
// GET /api/citations/:id
func (h *CitationHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	quoteID := chi.URLParam(r, "id")

	quote, err := h.service.GetQuote(r.Context(), quoteID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toQuoteResponse(quote))
}

// --- ヘルパー関数 ---

// toQuoteResponse はmodel.QuoteWithPersonalityからAPIレスポンスに変換する。
func toQuoteResponse(q *model.QuoteWithPersonality) quoteResponse {
	return quoteResponse{
		ID:               q.ID,
		Text:             q.Text,
		Date:             q.Date,
		Link:             q.Link,
		PersonalityID:    q.PersonalityID,
		PersonalityName:  q.PersonalityName,
		PersonalityTitle: q.PersonalityTitle,
		PartyID:          q.PartyID,
		PartyShortName:   q.PartyShortName,
		Tags:             toTagResponses(q.Tags),
	}
}

// toTagResponses はタグのスライスをAPIレスポンスに変換する。
// nilを返すとitemsのtagsがJSONでnullになるため、常に非nilのスライスを返す。
func toTagResponses(tags []model.Tag) []tagResponse {
	result := make([]tagResponse, 0, len(tags))
	for _, t := range tags {
		result = append(result, tagResponse{
			ID:          t.ID,
			Name:        t.Name,
			Color:       t.Color,
			QuotesCount: t.QuotesCount,
		})
	}
	return result
}

// toFilterWarnings は解決できなかったディメンションのみを警告に変換する。
// 正常に解決されたディメンションは含めない。
func toFilterWarnings(resolutions []filter.Resolution) []filterWarningResponse {
	var warnings []filterWarningResponse
	for _, res := range resolutions {
		switch res.Status {
		case filter.ResolutionNotFound:
			warnings = append(warnings, filterWarningResponse{
				Dimension: string(res.Dimension),
				Status:    "not_found",
			})
		case filter.ResolutionFailed:
			warnings = append(warnings, filterWarningResponse{
				Dimension: string(res.Dimension),
				Status:    "failed",
			})
		}
	}
	return warnings
}
