package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/laboussole/boussole-api/internal/model"
)

// PostgresPressSourceRepo はPostgreSQLを使用したプレスソースリポジトリ。
type PostgresPressSourceRepo struct {
	db *sql.DB
}

// NewPostgresPressSourceRepo はPostgresPressSourceRepoを生成する。
func NewPostgresPressSourceRepo(db *sql.DB) *PostgresPressSourceRepo {
	return &PostgresPressSourceRepo{db: db}
}

// ListDueForFetch はフェッチ予定時刻を過ぎたアクティブなプレスソースを取得する。
// 複数ワーカーの同時実行を想定してFOR UPDATE SKIP LOCKEDで行を確保する。
func (r *PostgresPressSourceRepo) ListDueForFetch(ctx context.Context) ([]*model.PressSource, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, site_url, feed_url, etag, last_modified,
		        fetch_status, consecutive_errors, error_message, next_fetch_at,
		        created_at, updated_at
		 FROM press_sources
		 WHERE fetch_status = $1 AND next_fetch_at <= NOW()
		 ORDER BY next_fetch_at ASC
		 FOR UPDATE SKIP LOCKED`,
		model.FetchStatusActive,
	)
	if err != nil {
		return nil, fmt.Errorf("フェッチ対象プレスソースの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var sources []*model.PressSource
	for rows.Next() {
		var s model.PressSource
		var etag, lastModified, errorMessage sql.NullString
		if err := rows.Scan(
			&s.ID, &s.Name, &s.SiteURL, &s.FeedURL, &etag, &lastModified,
			&s.FetchStatus, &s.ConsecutiveErrors, &errorMessage, &s.NextFetchAt,
			&s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("プレスソース行の読み取りに失敗しました: %w", err)
		}
		s.ETag = nullStringValue(etag)
		s.LastModified = nullStringValue(lastModified)
		s.ErrorMessage = nullStringValue(errorMessage)
		sources = append(sources, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("プレスソース一覧の走査に失敗しました: %w", err)
	}
	return sources, nil
}

// UpdateFetchState はフェッチ結果に応じたソース状態を保存する。
func (r *PostgresPressSourceRepo) UpdateFetchState(ctx context.Context, source *model.PressSource) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE press_sources
		 SET etag = $1, last_modified = $2, fetch_status = $3,
		     consecutive_errors = $4, error_message = $5, next_fetch_at = $6,
		     updated_at = NOW()
		 WHERE id = $7`,
		nullString(source.ETag), nullString(source.LastModified), source.FetchStatus,
		source.ConsecutiveErrors, nullString(source.ErrorMessage), source.NextFetchAt,
		source.ID,
	)
	if err != nil {
		return fmt.Errorf("プレスソース状態の更新に失敗しました: %w", err)
	}
	return nil
}

// UpdateFeedURL は自動検出されたフィードURLを保存する。
func (r *PostgresPressSourceRepo) UpdateFeedURL(ctx context.Context, id, feedURL string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE press_sources SET feed_url = $1, updated_at = NOW() WHERE id = $2",
		feedURL, id)
	if err != nil {
		return fmt.Errorf("フィードURLの更新に失敗しました: %w", err)
	}
	return nil
}
