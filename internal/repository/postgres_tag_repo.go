package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/laboussole/boussole-api/internal/model"
)

// PostgresTagRepo はPostgreSQLを使用したタグリポジトリ。
type PostgresTagRepo struct {
	db *sql.DB
}

// NewPostgresTagRepo はPostgresTagRepoを生成する。
func NewPostgresTagRepo(db *sql.DB) *PostgresTagRepo {
	return &PostgresTagRepo{db: db}
}

// FindByIDs は指定IDのタグを一括で取得する。存在しないIDは結果に含まれない。
func (r *PostgresTagRepo) FindByIDs(ctx context.Context, ids []string) ([]model.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, color, quotes_count FROM tags WHERE id = ANY($1) ORDER BY name ASC",
		pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("タグの一括取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanTagRows(rows)
}

// ListAll は全タグをquotes_count付きで名前昇順で返す。
func (r *PostgresTagRepo) ListAll(ctx context.Context) ([]model.Tag, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, color, quotes_count FROM tags ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("タグ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanTagRows(rows)
}

func scanTagRows(rows *sql.Rows) ([]model.Tag, error) {
	var tags []model.Tag
	for rows.Next() {
		var tag model.Tag
		var color sql.NullString
		if err := rows.Scan(&tag.ID, &tag.Name, &color, &tag.QuotesCount); err != nil {
			return nil, fmt.Errorf("タグ行の読み取りに失敗しました: %w", err)
		}
		tag.Color = nullStringValue(color)
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("タグ一覧の走査に失敗しました: %w", err)
	}
	return tags, nil
}
