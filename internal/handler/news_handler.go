package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/laboussole/boussole-api/internal/filter"
	"github.com/laboussole/boussole-api/internal/news"
)

// NewsServiceInterface はニュース閲覧のサービス層インターフェース。
type NewsServiceInterface interface {
	List(ctx context.Context, pageStr, sizeStr string) (*news.ListResult, error)
}

// NewsHandler はニュース関連のHTTPハンドラー。
type NewsHandler struct {
	service NewsServiceInterface
}

// NewNewsHandler はNewsHandlerの新しいインスタンスを生成する。
func NewNewsHandler(service NewsServiceInterface) *NewsHandler {
	return &NewsHandler{service: service}
}

// newsItemResponse はニュース記事のAPIレスポンス。
type newsItemResponse struct {
	ID          string     `json:"id"`
	SourceID    string     `json:"source_id"`
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	Summary     string     `json:"summary,omitempty"`
	PublishedAt *time.Time `json:"published_at"`
	FetchedAt   time.Time  `json:"fetched_at"`
}

// newsListResponse はニュース一覧のAPIレスポンス。
type newsListResponse struct {
	Items []newsItemResponse `json:"items"`
	Count int                `json:"count"`
}

// List はニュース記事を公開日降順で返す。
// GET /api/actualites
func (h *NewsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	result, err := h.service.List(r.Context(), q.Get(filter.ParamPage), q.Get(filter.ParamSize))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	items := make([]newsItemResponse, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, newsItemResponse{
			ID:          item.ID,
			SourceID:    item.SourceID,
			Title:       item.Title,
			Link:        item.Link,
			Summary:     item.Summary,
			PublishedAt: item.PublishedAt,
			FetchedAt:   item.FetchedAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(newsListResponse{Items: items, Count: result.Count})
}
