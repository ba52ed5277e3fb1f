package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/laboussole/boussole-api/internal/model"
)

// PostgresPersonalityRepo はPostgreSQLを使用した政治家リポジトリ。
type PostgresPersonalityRepo struct {
	db *sql.DB
}

// NewPostgresPersonalityRepo はPostgresPersonalityRepoを生成する。
func NewPostgresPersonalityRepo(db *sql.DB) *PostgresPersonalityRepo {
	return &PostgresPersonalityRepo{db: db}
}

const personalitySelectColumns = `
	SELECT p.id, p.firstname, p.lastname, p.city, p.department, p.region,
	       p.party_id, p.title, p.portrait_url, p.wikipedia_id, p.quotes_count,
	       p.created_at, p.updated_at,
	       pa.name, pa.short_name, pa.color`

const personalityBaseFrom = `
	FROM personalities p
	LEFT JOIN parties pa ON pa.id = p.party_id`

// 姓昇順、NULLは末尾、同姓はIDで安定化する
const personalityOrderBy = " ORDER BY p.lastname ASC NULLS LAST, p.id ASC"

// buildPersonalityWhere はフィルタ仕様からWHERE句と位置引数を構築する。
// 間接フィルタ（マンダ種別・タグ）は呼び出し側で事前にID集合へ解決済みのため、
// ここで扱うのは政治家テーブル自身の列だけでよくJOINフィルタは発生しない。
func buildPersonalityWhere(spec PersonalityFilterSpec) (string, []interface{}) {
	var conds []string
	var args []interface{}
	argIndex := 1

	if len(spec.IDs) > 0 {
		conds = append(conds, fmt.Sprintf("p.id = ANY($%d)", argIndex))
		args = append(args, pq.Array(spec.IDs))
		argIndex++
	}

	if len(spec.Parties) > 0 {
		conds = append(conds, fmt.Sprintf("p.party_id = ANY($%d)", argIndex))
		args = append(args, pq.Array(spec.Parties))
		argIndex++
	}

	if len(spec.Departments) > 0 {
		conds = append(conds, fmt.Sprintf("p.department = ANY($%d)", argIndex))
		args = append(args, pq.Array(spec.Departments))
		argIndex++
	}

	if spec.Text != "" {
		pattern := "%" + escapeLike(spec.Text) + "%"
		conds = append(conds, fmt.Sprintf(
			"(p.firstname ILIKE $%d OR p.lastname ILIKE $%d OR p.title ILIKE $%d OR p.city ILIKE $%d OR p.department ILIKE $%d)",
			argIndex, argIndex, argIndex, argIndex, argIndex))
		args = append(args, pattern)
		argIndex++
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Find はフィルタ仕様に一致する政治家の一覧と総件数を返す。
func (r *PostgresPersonalityRepo) Find(ctx context.Context, spec PersonalityFilterSpec) ([]model.PersonalityWithParty, int, error) {
	where, args := buildPersonalityWhere(spec)

	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*)"+personalityBaseFrom+where, args...).Scan(&count); err != nil {
		return nil, 0, fmt.Errorf("政治家件数の取得に失敗しました: %w", err)
	}
	if count == 0 {
		return nil, 0, nil
	}

	query := personalitySelectColumns + personalityBaseFrom + where + personalityOrderBy
	query, args = appendBounds(query, args, spec.Page, spec.Size)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("政治家一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	personalities, err := scanPersonalityRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return personalities, count, nil
}

// FindByID は指定IDの政治家を取得する。見つからない場合はnilを返す。
func (r *PostgresPersonalityRepo) FindByID(ctx context.Context, id string) (*model.PersonalityWithParty, error) {
	rows, err := r.db.QueryContext(ctx,
		personalitySelectColumns+personalityBaseFrom+" WHERE p.id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("政治家の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	personalities, err := scanPersonalityRows(rows)
	if err != nil {
		return nil, err
	}
	if len(personalities) == 0 {
		return nil, nil
	}
	return &personalities[0], nil
}

// FindByIDs は指定IDの政治家を一括で取得する。存在しないIDは結果に含まれない。
func (r *PostgresPersonalityRepo) FindByIDs(ctx context.Context, ids []string) ([]model.Personality, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, firstname, lastname, city, department, region,
		        party_id, title, portrait_url, wikipedia_id, quotes_count,
		        created_at, updated_at
		 FROM personalities WHERE id = ANY($1)`+
			" ORDER BY lastname ASC NULLS LAST, id ASC",
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("政治家の一括取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var personalities []model.Personality
	for rows.Next() {
		var p model.Personality
		if err := scanPersonalityBase(rows, &p); err != nil {
			return nil, err
		}
		personalities = append(personalities, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("政治家一覧の走査に失敗しました: %w", err)
	}
	return personalities, nil
}

// FindPersonalityIDsByRoles は指定マンダ種別のいずれかを保持する政治家のID集合を返す。
// 該当なしの場合は空スライス（nilではない）を返す。
func (r *PostgresPersonalityRepo) FindPersonalityIDsByRoles(ctx context.Context, roleIDs []int) ([]string, error) {
	return r.queryPersonalityIDs(ctx,
		"SELECT DISTINCT personality_id FROM mandates WHERE mandate_type_id = ANY($1)",
		pq.Array(roleIDs))
}

// FindPersonalityIDsByTags は指定タグのいずれかが付いた引用を持つ政治家のID集合を返す。
// 該当なしの場合は空スライス（nilではない）を返す。
func (r *PostgresPersonalityRepo) FindPersonalityIDsByTags(ctx context.Context, tagIDs []string) ([]string, error) {
	return r.queryPersonalityIDs(ctx,
		`SELECT DISTINCT q.personality_id
		 FROM quotes q
		 INNER JOIN quote_tags qt ON qt.quote_id = q.id
		 WHERE qt.tag_id = ANY($1) AND q.personality_id IS NOT NULL`,
		pq.Array(tagIDs))
}

func (r *PostgresPersonalityRepo) queryPersonalityIDs(ctx context.Context, query string, arg interface{}) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("政治家IDの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("政治家ID行の読み取りに失敗しました: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("政治家IDの走査に失敗しました: %w", err)
	}
	return ids, nil
}

// ListNeedingPortrait は肖像画が未設定でWikipedia IDを持つ政治家を返す。
func (r *PostgresPersonalityRepo) ListNeedingPortrait(ctx context.Context, limit int) ([]model.Personality, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, firstname, lastname, city, department, region,
		        party_id, title, portrait_url, wikipedia_id, quotes_count,
		        created_at, updated_at
		 FROM personalities
		 WHERE (portrait_url IS NULL OR portrait_url = '')
		   AND wikipedia_id IS NOT NULL AND wikipedia_id <> ''
		 ORDER BY updated_at ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("肖像画未設定の政治家一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var personalities []model.Personality
	for rows.Next() {
		var p model.Personality
		if err := scanPersonalityBase(rows, &p); err != nil {
			return nil, err
		}
		personalities = append(personalities, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("政治家一覧の走査に失敗しました: %w", err)
	}
	return personalities, nil
}

// UpdatePortrait は政治家の肖像画URLを更新する。
func (r *PostgresPersonalityRepo) UpdatePortrait(ctx context.Context, id, portraitURL string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE personalities SET portrait_url = $1, updated_at = NOW() WHERE id = $2",
		nullString(portraitURL), id)
	if err != nil {
		return fmt.Errorf("肖像画URLの更新に失敗しました: %w", err)
	}
	return nil
}

// scanPersonalityBase は政治家テーブル単体の行を読み取る。
func scanPersonalityBase(row rowScanner, p *model.Personality) error {
	var city, department, region, partyID, title, portraitURL, wikipediaID sql.NullString

	if err := row.Scan(
		&p.ID, &p.Firstname, &p.Lastname, &city, &department, &region,
		&partyID, &title, &portraitURL, &wikipediaID, &p.QuotesCount,
		&p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return fmt.Errorf("政治家行の読み取りに失敗しました: %w", err)
	}

	p.City = nullStringValue(city)
	p.Department = nullStringValue(department)
	p.Region = nullStringValue(region)
	p.PartyID = nullStringValue(partyID)
	p.Title = nullStringValue(title)
	p.PortraitURL = nullStringValue(portraitURL)
	p.WikipediaID = nullStringValue(wikipediaID)
	return nil
}

// scanPersonalityRows は政党付きの政治家行を読み取ってモデルに変換する。
func scanPersonalityRows(rows *sql.Rows) ([]model.PersonalityWithParty, error) {
	var personalities []model.PersonalityWithParty
	for rows.Next() {
		var pp model.PersonalityWithParty
		var city, department, region, partyID, title, portraitURL, wikipediaID sql.NullString
		var partyName, partyShortName, partyColor sql.NullString

		if err := rows.Scan(
			&pp.ID, &pp.Firstname, &pp.Lastname, &city, &department, &region,
			&partyID, &title, &portraitURL, &wikipediaID, &pp.QuotesCount,
			&pp.CreatedAt, &pp.UpdatedAt,
			&partyName, &partyShortName, &partyColor,
		); err != nil {
			return nil, fmt.Errorf("政治家行の読み取りに失敗しました: %w", err)
		}

		pp.City = nullStringValue(city)
		pp.Department = nullStringValue(department)
		pp.Region = nullStringValue(region)
		pp.PartyID = nullStringValue(partyID)
		pp.Title = nullStringValue(title)
		pp.PortraitURL = nullStringValue(portraitURL)
		pp.WikipediaID = nullStringValue(wikipediaID)
		pp.PartyName = nullStringValue(partyName)
		pp.PartyShortName = nullStringValue(partyShortName)
		pp.PartyColor = nullStringValue(partyColor)

		personalities = append(personalities, pp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("政治家一覧の走査に失敗しました: %w", err)
	}
	return personalities, nil
}
