package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/laboussole/boussole-api/internal/model"
)

// PostgresPartyRepo はPostgreSQLを使用した政党リポジトリ。
type PostgresPartyRepo struct {
	db *sql.DB
}

// NewPostgresPartyRepo はPostgresPartyRepoを生成する。
func NewPostgresPartyRepo(db *sql.DB) *PostgresPartyRepo {
	return &PostgresPartyRepo{db: db}
}

// FindByID は指定IDの政党を取得する。見つからない場合はnilを返す。
func (r *PostgresPartyRepo) FindByID(ctx context.Context, id string) (*model.Party, error) {
	var party model.Party
	var shortName, color sql.NullString

	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, short_name, color FROM parties WHERE id = $1", id,
	).Scan(&party.ID, &party.Name, &shortName, &color)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("政党の取得に失敗しました: %w", err)
	}

	party.ShortName = nullStringValue(shortName)
	party.Color = nullStringValue(color)
	return &party, nil
}

// ListAll は全政党を名前昇順で返す。
func (r *PostgresPartyRepo) ListAll(ctx context.Context) ([]model.Party, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, short_name, color FROM parties ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("政党一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var parties []model.Party
	for rows.Next() {
		var party model.Party
		var shortName, color sql.NullString
		if err := rows.Scan(&party.ID, &party.Name, &shortName, &color); err != nil {
			return nil, fmt.Errorf("政党行の読み取りに失敗しました: %w", err)
		}
		party.ShortName = nullStringValue(shortName)
		party.Color = nullStringValue(color)
		parties = append(parties, party)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("政党一覧の走査に失敗しました: %w", err)
	}
	return parties, nil
}
