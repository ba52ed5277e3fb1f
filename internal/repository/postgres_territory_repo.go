package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/laboussole/boussole-api/internal/model"
)

// PostgresTerritoryRepo はPostgreSQLを使用した地域リポジトリ。
type PostgresTerritoryRepo struct {
	db *sql.DB
}

// NewPostgresTerritoryRepo はPostgresTerritoryRepoを生成する。
func NewPostgresTerritoryRepo(db *sql.DB) *PostgresTerritoryRepo {
	return &PostgresTerritoryRepo{db: db}
}

// ListDepartments は県レベルの地域を名前昇順で返す。
func (r *PostgresTerritoryRepo) ListDepartments(ctx context.Context) ([]model.Territory, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, type, parent_id FROM territories WHERE type = $1 ORDER BY name ASC",
		model.TerritoryTypeDepartment)
	if err != nil {
		return nil, fmt.Errorf("県一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var territories []model.Territory
	for rows.Next() {
		var t model.Territory
		var parentID sql.NullString
		if err := rows.Scan(&t.ID, &t.Name, &t.Type, &parentID); err != nil {
			return nil, fmt.Errorf("地域行の読み取りに失敗しました: %w", err)
		}
		t.ParentID = nullStringValue(parentID)
		territories = append(territories, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("地域一覧の走査に失敗しました: %w", err)
	}
	return territories, nil
}
