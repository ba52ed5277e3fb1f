package news

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/laboussole/boussole-api/internal/filter"
	"github.com/laboussole/boussole-api/internal/model"
	"github.com/laboussole/boussole-api/internal/repository"
)

// ListResult はニュース一覧取得の結果を表す。
// Countはページ制限前の総件数。
type ListResult struct {
	Items []model.NewsItem
	Count int
}

// ListService はニュース閲覧のサービス層。
type ListService struct {
	newsRepo repository.NewsRepository
	logger   *slog.Logger
}

// NewListService はListServiceの新しいインスタンスを生成する。
func NewListService(newsRepo repository.NewsRepository, logger *slog.Logger) *ListService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListService{newsRepo: newsRepo, logger: logger}
}

// List はニュース記事を公開日降順で返す。
// ページネーション検証が通らない場合はクエリを実行せずに失敗する。
func (s *ListService) List(ctx context.Context, pageStr, sizeStr string) (*ListResult, error) {
	pagination, err := filter.ParsePagination(pageStr, sizeStr)
	if err != nil {
		return nil, err
	}

	items, count, err := s.newsRepo.List(ctx, pagination.Page, pagination.Size)
	if err != nil {
		s.logger.Error("ニュース一覧クエリに失敗しました", "error", err)
		return nil, fmt.Errorf("ニュース一覧の取得に失敗しました: %w", err)
	}

	return &ListResult{Items: items, Count: count}, nil
}
