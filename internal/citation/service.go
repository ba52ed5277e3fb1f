// Package citation は引用閲覧のドメインロジックを提供する。
package citation

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/laboussole/boussole-api/internal/filter"
	"github.com/laboussole/boussole-api/internal/model"
	"github.com/laboussole/boussole-api/internal/repository"
)

// ListResult は引用一覧取得の結果を表す。
// Countはページ制限前の総件数で、ページネーションUIの描画に使用する。
type ListResult struct {
	Items         []model.QuoteWithPersonality
	Count         int
	Resolutions   []filter.Resolution
	AppliedParams url.Values // 実際に適用されたフィルタ状態の直列化
}

// Service は引用閲覧のサービス層。
// フィルタ解決、一覧クエリ、単体取得のビジネスロジックを提供する。
type Service struct {
	quoteRepo repository.QuoteRepository
	resolver  *filter.Resolver
	logger    *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(quoteRepo repository.QuoteRepository, resolver *filter.Resolver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		quoteRepo: quoteRepo,
		resolver:  resolver,
		logger:    logger,
	}
}

// ListQuotes はフィルタパラメータに一致する引用一覧を返す。
//
// ページネーション検証はフィルタ解決より先に行い、不正な場合は即座に失敗する。
// フィルタ解決はベストエフォートで、解決できなかったディメンションは
// Resolutionsに記録した上で残りのディメンションだけで一覧を返す。
// 一覧クエリ自体の失敗は部分結果を返さずリクエスト全体を失敗させる。
func (s *Service) ListQuotes(ctx context.Context, params filter.Params) (*ListResult, error) {
	pagination, err := filter.ParsePagination(params.Page, params.Size)
	if err != nil {
		return nil, err
	}

	filters, resolutions := s.resolver.Resolve(ctx, params)

	spec := repository.QuoteFilterSpec{
		Parties:       filters.PartyIDs(),
		Roles:         filters.RoleIDs(),
		Tags:          filters.TagIDs(),
		Personalities: filters.PersonalityIDs(),
		Departments:   filters.Departments,
		Text:          filters.Text,
		Page:          pagination.Page,
		Size:          pagination.Size,
	}

	items, count, err := s.quoteRepo.Find(ctx, spec)
	if err != nil {
		s.logger.Error("引用一覧クエリに失敗しました", "error", err)
		return nil, fmt.Errorf("引用一覧の取得に失敗しました: %w", err)
	}

	return &ListResult{
		Items:         items,
		Count:         count,
		Resolutions:   resolutions,
		AppliedParams: filters.QueryParams(),
	}, nil
}

// GetQuote は指定IDの引用を取得する。見つからない場合はAPIErrorを返す。
func (s *Service) GetQuote(ctx context.Context, id string) (*model.QuoteWithPersonality, error) {
	quote, err := s.quoteRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("引用の取得に失敗しました: %w", err)
	}
	if quote == nil {
		return nil, model.NewQuoteNotFoundError(id)
	}
	return quote, nil
}
