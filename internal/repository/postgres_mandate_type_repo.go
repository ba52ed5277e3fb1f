package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/laboussole/boussole-api/internal/model"
)

// PostgresMandateTypeRepo はPostgreSQLを使用したマンダ種別リポジトリ。
type PostgresMandateTypeRepo struct {
	db *sql.DB
}

// NewPostgresMandateTypeRepo はPostgresMandateTypeRepoを生成する。
func NewPostgresMandateTypeRepo(db *sql.DB) *PostgresMandateTypeRepo {
	return &PostgresMandateTypeRepo{db: db}
}

// FindByID は指定IDのマンダ種別を取得する。見つからない場合はnilを返す。
func (r *PostgresMandateTypeRepo) FindByID(ctx context.Context, id int) (*model.MandateType, error) {
	var mt model.MandateType
	err := r.db.QueryRowContext(ctx,
		"SELECT id, code, label FROM mandate_types WHERE id = $1", id,
	).Scan(&mt.ID, &mt.Code, &mt.Label)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("マンダ種別の取得に失敗しました: %w", err)
	}
	return &mt, nil
}

// ListAll は全マンダ種別をID昇順で返す。
func (r *PostgresMandateTypeRepo) ListAll(ctx context.Context) ([]model.MandateType, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, code, label FROM mandate_types ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("マンダ種別一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var types []model.MandateType
	for rows.Next() {
		var mt model.MandateType
		if err := rows.Scan(&mt.ID, &mt.Code, &mt.Label); err != nil {
			return nil, fmt.Errorf("マンダ種別行の読み取りに失敗しました: %w", err)
		}
		types = append(types, mt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("マンダ種別一覧の走査に失敗しました: %w", err)
	}
	return types, nil
}
