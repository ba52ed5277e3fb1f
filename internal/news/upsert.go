// Package news はニュース記事の取り込みロジックを提供する。
package news

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/laboussole/boussole-api/internal/model"
	"github.com/laboussole/boussole-api/internal/repository"
	"github.com/laboussole/boussole-api/internal/security"
)

// UpsertService はニュース記事の同一性判定とUPSERT処理を提供する。
// 2段階の同一性判定ロジックにより、重複登録を防ぎつつ既存記事の上書き更新を行う。
type UpsertService struct {
	newsRepo  repository.NewsRepository
	sanitizer security.ContentSanitizerService
}

// NewUpsertService はUpsertServiceの新しいインスタンスを生成する。
func NewUpsertService(
	newsRepo repository.NewsRepository,
	sanitizer security.ContentSanitizerService,
) *UpsertService {
	return &UpsertService{
		newsRepo:  newsRepo,
		sanitizer: sanitizer,
	}
}

// UpsertItems はフィードから取得したニュース記事をUPSERTする。
// 2段階の同一性判定ロジック:
//  1. (source_id, guid_or_id) - 最優先
//  2. (source_id, link) - 第2優先
//
// 戻り値は挿入数、更新数、エラー。
func (s *UpsertService) UpsertItems(
	ctx context.Context,
	sourceID string,
	items []model.ParsedNewsItem,
) (inserted int, updated int, err error) {
	if len(items) == 0 {
		return 0, 0, nil
	}

	now := time.Now()

	for _, parsed := range items {
		// タイトルとサマリーにサニタイズ処理を適用
		sanitizedTitle := s.sanitizer.Sanitize(parsed.Title)
		sanitizedSummary := s.sanitizer.Sanitize(parsed.Summary)

		existing, findErr := s.findExistingItem(ctx, sourceID, parsed)
		if findErr != nil {
			slog.Error("ニュース記事の同一性判定でエラー",
				"source_id", sourceID,
				"guid_or_id", parsed.GuidOrID,
				"error", findErr,
			)
			return inserted, updated, fmt.Errorf("ニュース記事の同一性判定に失敗: %w", findErr)
		}

		if existing != nil {
			updateErr := s.updateExistingItem(ctx, existing, parsed, sanitizedTitle, sanitizedSummary, now)
			if updateErr != nil {
				slog.Error("ニュース記事の更新でエラー",
					"source_id", sourceID,
					"news_id", existing.ID,
					"error", updateErr,
				)
				return inserted, updated, fmt.Errorf("ニュース記事の更新に失敗: %w", updateErr)
			}
			updated++
		} else {
			createErr := s.createNewItem(ctx, sourceID, parsed, sanitizedTitle, sanitizedSummary, now)
			if createErr != nil {
				slog.Error("ニュース記事の挿入でエラー",
					"source_id", sourceID,
					"guid_or_id", parsed.GuidOrID,
					"error", createErr,
				)
				return inserted, updated, fmt.Errorf("ニュース記事の挿入に失敗: %w", createErr)
			}
			inserted++
		}
	}

	slog.Info("ニュース記事UPSERT完了",
		"source_id", sourceID,
		"inserted", inserted,
		"updated", updated,
	)

	return inserted, updated, nil
}

// findExistingItem は2段階の同一性判定で既存記事を検索する。
// 優先順位: (source_id, guid_or_id) > (source_id, link)
func (s *UpsertService) findExistingItem(
	ctx context.Context,
	sourceID string,
	parsed model.ParsedNewsItem,
) (*model.NewsItem, error) {
	if parsed.GuidOrID != "" {
		item, err := s.newsRepo.FindBySourceAndGUID(ctx, sourceID, parsed.GuidOrID)
		if err != nil {
			return nil, err
		}
		if item != nil {
			return item, nil
		}
	}

	if parsed.Link != "" {
		item, err := s.newsRepo.FindBySourceAndLink(ctx, sourceID, parsed.Link)
		if err != nil {
			return nil, err
		}
		if item != nil {
			return item, nil
		}
	}

	return nil, nil
}

// updateExistingItem は既存記事を上書き更新する。履歴は保持しない。
func (s *UpsertService) updateExistingItem(
	ctx context.Context,
	existing *model.NewsItem,
	parsed model.ParsedNewsItem,
	sanitizedTitle, sanitizedSummary string,
	now time.Time,
) error {
	existing.GuidOrID = parsed.GuidOrID
	existing.Title = sanitizedTitle
	existing.Link = parsed.Link
	existing.Summary = sanitizedSummary
	existing.FetchedAt = now
	existing.UpdatedAt = now

	// parsed.PublishedAtがnilの場合は既存の値を維持
	if parsed.PublishedAt != nil {
		existing.PublishedAt = parsed.PublishedAt
	}

	return s.newsRepo.Update(ctx, existing)
}

// createNewItem は新規記事を作成する。
func (s *UpsertService) createNewItem(
	ctx context.Context,
	sourceID string,
	parsed model.ParsedNewsItem,
	sanitizedTitle, sanitizedSummary string,
	now time.Time,
) error {
	item := &model.NewsItem{
		ID:          uuid.New().String(),
		SourceID:    sourceID,
		GuidOrID:    parsed.GuidOrID,
		Title:       sanitizedTitle,
		Link:        parsed.Link,
		Summary:     sanitizedSummary,
		PublishedAt: parsed.PublishedAt,
		FetchedAt:   now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	return s.newsRepo.Create(ctx, item)
}
