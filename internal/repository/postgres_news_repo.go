package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/laboussole/boussole-api/internal/model"
)

// PostgresNewsRepo はPostgreSQLを使用したニュース記事リポジトリ。
type PostgresNewsRepo struct {
	db *sql.DB
}

// NewPostgresNewsRepo はPostgresNewsRepoを生成する。
func NewPostgresNewsRepo(db *sql.DB) *PostgresNewsRepo {
	return &PostgresNewsRepo{db: db}
}

const newsSelectColumns = `
	SELECT id, source_id, guid_or_id, title, link, summary,
	       published_at, fetched_at, created_at, updated_at`

// List はニュース記事を公開日降順でページネーション付きで返す。
func (r *PostgresNewsRepo) List(ctx context.Context, page, size int) ([]model.NewsItem, int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM news_items").Scan(&count); err != nil {
		return nil, 0, fmt.Errorf("ニュース件数の取得に失敗しました: %w", err)
	}
	if count == 0 {
		return nil, 0, nil
	}

	query := newsSelectColumns +
		" FROM news_items ORDER BY published_at DESC NULLS LAST, fetched_at DESC, id DESC"
	var args []interface{}
	query, args = appendBounds(query, args, page, size)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ニュース一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var items []model.NewsItem
	for rows.Next() {
		item, err := scanNewsRow(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ニュース一覧の走査に失敗しました: %w", err)
	}
	return items, count, nil
}

// FindBySourceAndGUID はsource_idとguid_or_idでニュース記事を検索する。
// 見つからない場合はnilを返す。
func (r *PostgresNewsRepo) FindBySourceAndGUID(ctx context.Context, sourceID, guid string) (*model.NewsItem, error) {
	row := r.db.QueryRowContext(ctx,
		newsSelectColumns+" FROM news_items WHERE source_id = $1 AND guid_or_id = $2",
		sourceID, guid)
	return findNewsRow(row)
}

// FindBySourceAndLink はsource_idとlinkでニュース記事を検索する。
// 見つからない場合はnilを返す。
func (r *PostgresNewsRepo) FindBySourceAndLink(ctx context.Context, sourceID, link string) (*model.NewsItem, error) {
	row := r.db.QueryRowContext(ctx,
		newsSelectColumns+" FROM news_items WHERE source_id = $1 AND link = $2",
		sourceID, link)
	return findNewsRow(row)
}

func findNewsRow(row rowScanner) (*model.NewsItem, error) {
	item, err := scanNewsRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ニュース記事の取得に失敗しました: %w", err)
	}
	return item, nil
}

// Create は新規ニュース記事を作成する。
func (r *PostgresNewsRepo) Create(ctx context.Context, item *model.NewsItem) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO news_items (id, source_id, guid_or_id, title, link, summary,
		                         published_at, fetched_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())`,
		item.ID, item.SourceID, nullString(item.GuidOrID), item.Title,
		item.Link, nullString(item.Summary), nullTimePtr(item.PublishedAt), item.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("ニュース記事の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は既存ニュース記事を上書き更新する。
func (r *PostgresNewsRepo) Update(ctx context.Context, item *model.NewsItem) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE news_items
		 SET title = $1, link = $2, summary = $3, published_at = $4,
		     fetched_at = $5, updated_at = NOW()
		 WHERE id = $6`,
		item.Title, item.Link, nullString(item.Summary),
		nullTimePtr(item.PublishedAt), item.FetchedAt, item.ID,
	)
	if err != nil {
		return fmt.Errorf("ニュース記事の更新に失敗しました: %w", err)
	}
	return nil
}

func scanNewsRow(row rowScanner) (*model.NewsItem, error) {
	var item model.NewsItem
	var guid, summary sql.NullString
	var publishedAt sql.NullTime

	if err := row.Scan(
		&item.ID, &item.SourceID, &guid, &item.Title, &item.Link, &summary,
		&publishedAt, &item.FetchedAt, &item.CreatedAt, &item.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("ニュース行の読み取りに失敗しました: %w", err)
	}

	item.GuidOrID = nullStringValue(guid)
	item.Summary = nullStringValue(summary)
	if publishedAt.Valid {
		item.PublishedAt = &publishedAt.Time
	}
	return &item, nil
}

// nullTimePtr は*time.TimeをNULL許容のsql.NullTimeに変換する。
func nullTimePtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
