// Package personality は政治家閲覧のドメインロジックを提供する。
package personality

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/laboussole/boussole-api/internal/filter"
	"github.com/laboussole/boussole-api/internal/model"
	"github.com/laboussole/boussole-api/internal/repository"
)

// recentQuotesLimit は政治家詳細に付与する最新引用の件数。
const recentQuotesLimit = 5

// ListResult は政治家一覧取得の結果を表す。
type ListResult struct {
	Items         []model.PersonalityWithParty
	Count         int
	Resolutions   []filter.Resolution
	AppliedParams url.Values
}

// Detail は政治家詳細と最新の引用を結合したドメインオブジェクト。
type Detail struct {
	Personality  model.PersonalityWithParty
	RecentQuotes []model.Quote
}

// Service は政治家閲覧のサービス層。
type Service struct {
	personalityRepo repository.PersonalityRepository
	quoteRepo       repository.QuoteRepository
	resolver        *filter.Resolver
	intersector     *filter.Intersector
	logger          *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	personalityRepo repository.PersonalityRepository,
	quoteRepo repository.QuoteRepository,
	resolver *filter.Resolver,
	intersector *filter.Intersector,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		personalityRepo: personalityRepo,
		quoteRepo:       quoteRepo,
		resolver:        resolver,
		intersector:     intersector,
		logger:          logger,
	}
}

// List はフィルタパラメータに一致する政治家一覧を返す。
//
// マンダ種別とタグは政治家テーブルの列ではないため、先にID集合へ解決して
// 直接指定の政治家IDと積集合を取る。積集合が空と確定した時点で
// データベースを照会せずに空の結果を返す。
func (s *Service) List(ctx context.Context, params filter.Params) (*ListResult, error) {
	pagination, err := filter.ParsePagination(params.Page, params.Size)
	if err != nil {
		return nil, err
	}

	filters, resolutions := s.resolver.Resolve(ctx, params)

	finalIDs, err := s.intersector.ResolveIndirect(ctx, filters)
	if err != nil {
		s.logger.Error("間接フィルタの解決に失敗しました", "error", err)
		return nil, fmt.Errorf("政治家一覧の取得に失敗しました: %w", err)
	}

	// 非nilの空集合は「制限が有効だが該当者なし」を意味する
	if finalIDs != nil && len(finalIDs) == 0 {
		return &ListResult{
			Items:         nil,
			Count:         0,
			Resolutions:   resolutions,
			AppliedParams: filters.QueryParams(),
		}, nil
	}

	spec := repository.PersonalityFilterSpec{
		IDs:         finalIDs,
		Parties:     filters.PartyIDs(),
		Departments: filters.Departments,
		Text:        filters.Text,
		Page:        pagination.Page,
		Size:        pagination.Size,
	}

	items, count, err := s.personalityRepo.Find(ctx, spec)
	if err != nil {
		s.logger.Error("政治家一覧クエリに失敗しました", "error", err)
		return nil, fmt.Errorf("政治家一覧の取得に失敗しました: %w", err)
	}

	return &ListResult{
		Items:         items,
		Count:         count,
		Resolutions:   resolutions,
		AppliedParams: filters.QueryParams(),
	}, nil
}

// Get は指定IDの政治家を最新の引用付きで取得する。
// 見つからない場合はAPIErrorを返す。
func (s *Service) Get(ctx context.Context, id string) (*Detail, error) {
	p, err := s.personalityRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("政治家の取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewPersonalityNotFoundError(id)
	}

	quotes, err := s.quoteRepo.ListRecentByPersonality(ctx, id, recentQuotesLimit)
	if err != nil {
		return nil, fmt.Errorf("政治家の引用取得に失敗しました: %w", err)
	}

	return &Detail{Personality: *p, RecentQuotes: quotes}, nil
}
