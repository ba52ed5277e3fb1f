package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/laboussole/boussole-api/internal/model"
)

// PostgresQuoteRepo はPostgreSQLを使用した引用リポジトリ。
type PostgresQuoteRepo struct {
	db *sql.DB
}

// NewPostgresQuoteRepo はPostgresQuoteRepoを生成する。
func NewPostgresQuoteRepo(db *sql.DB) *PostgresQuoteRepo {
	return &PostgresQuoteRepo{db: db}
}

// quoteSelectColumns は引用行の取得カラム。発言者・政党はLEFT JOINで表示用に結合する。
const quoteSelectColumns = `
	SELECT q.id, q.text, q.date, q.link, q.source_id, q.personality_id,
	       q.created_at, q.updated_at,
	       p.firstname, p.lastname, p.title, p.party_id, pa.short_name`

// quoteBaseFrom は引用一覧クエリの基本FROM句。
const quoteBaseFrom = `
	FROM quotes q
	LEFT JOIN personalities p ON p.id = q.personality_id
	LEFT JOIN parties pa ON pa.id = p.party_id`

// quoteQuery は引用フィルタから構築されたクエリ断片を保持する。
type quoteQuery struct {
	joins       string        // INNER JOIN句（フィルタが有効な場合のみ）
	where       string        // WHERE句（空の場合あり）
	args        []interface{} // 位置引数
	innerJoined bool          // 1対多・多対多のフィルタが有効で、リプレイクエリが必要
}

// buildQuoteQuery はフィルタ仕様からJOIN・WHERE句と位置引数を構築する。
//
// タグとマンダ種別は子テーブルへのINNER JOINによる制限で表現する。
// そのディメンションが非アクティブの場合はJOIN自体を追加しない
// （不要な行の除外を避けるため）。
// INNER JOINフィルタ有効時はinnerJoinedが立ち、呼び出し側はリプレイクエリで
// 行の重複を回避する。
func buildQuoteQuery(spec QuoteFilterSpec) quoteQuery {
	var q quoteQuery
	var conds []string
	argIndex := 1

	if len(spec.Tags) > 0 {
		q.joins += " INNER JOIN quote_tags qt ON qt.quote_id = q.id"
		conds = append(conds, fmt.Sprintf("qt.tag_id = ANY($%d)", argIndex))
		q.args = append(q.args, pq.Array(spec.Tags))
		argIndex++
		q.innerJoined = true
	}

	if len(spec.Roles) > 0 {
		q.joins += " INNER JOIN mandates m ON m.personality_id = q.personality_id"
		conds = append(conds, fmt.Sprintf("m.mandate_type_id = ANY($%d)", argIndex))
		q.args = append(q.args, pq.Array(spec.Roles))
		argIndex++
		q.innerJoined = true
	}

	if len(spec.Personalities) > 0 {
		conds = append(conds, fmt.Sprintf("q.personality_id = ANY($%d)", argIndex))
		q.args = append(q.args, pq.Array(spec.Personalities))
		argIndex++
		q.innerJoined = true
	}

	if len(spec.Parties) > 0 {
		conds = append(conds, fmt.Sprintf("p.party_id = ANY($%d)", argIndex))
		q.args = append(q.args, pq.Array(spec.Parties))
		argIndex++
		q.innerJoined = true
	}

	if len(spec.Departments) > 0 {
		conds = append(conds, fmt.Sprintf("p.department = ANY($%d)", argIndex))
		q.args = append(q.args, pq.Array(spec.Departments))
		argIndex++
	}

	if spec.Text != "" {
		// テキストディメンション内はOR、他のディメンションとはAND
		pattern := "%" + escapeLike(spec.Text) + "%"
		conds = append(conds, fmt.Sprintf(
			"(q.text ILIKE $%d OR p.firstname ILIKE $%d OR p.lastname ILIKE $%d OR p.title ILIKE $%d OR p.city ILIKE $%d OR p.department ILIKE $%d)",
			argIndex, argIndex, argIndex, argIndex, argIndex, argIndex))
		q.args = append(q.args, pattern)
		argIndex++
	}

	if len(spec.IDs) > 0 {
		conds = append(conds, fmt.Sprintf("q.id = ANY($%d)", argIndex))
		q.args = append(q.args, pq.Array(spec.IDs))
		argIndex++
	}

	if len(conds) > 0 {
		q.where = " WHERE " + strings.Join(conds, " AND ")
	}

	return q
}

// quoteOrderBy は引用一覧のソート順。日付降順、NULLは末尾、同日付はIDで安定化する。
const quoteOrderBy = " ORDER BY q.date DESC NULLS LAST, q.id DESC"

// quoteQuerier は引用一覧の各段階クエリを抽象化する。
// Findの2段階制御フローをテスト時にモックで検証可能にする。
type quoteQuerier interface {
	countQuotes(ctx context.Context, q quoteQuery) (int, error)
	queryQuotes(ctx context.Context, q quoteQuery, spec QuoteFilterSpec) ([]model.QuoteWithPersonality, error)
	queryQuoteIDs(ctx context.Context, q quoteQuery, spec QuoteFilterSpec) ([]string, error)
	queryQuotesByIDs(ctx context.Context, ids []string) ([]model.QuoteWithPersonality, error)
	attachTags(ctx context.Context, quotes []model.QuoteWithPersonality) error
}

// Find はフィルタ仕様に一致する引用の一覧と総件数を返す。
func (r *PostgresQuoteRepo) Find(ctx context.Context, spec QuoteFilterSpec) ([]model.QuoteWithPersonality, int, error) {
	return findQuotes(ctx, r, spec)
}

// findQuotes は引用一覧取得の制御フロー本体。
//
// INNER JOINフィルタ（タグ・マンダ種別・発言者・政党）が有効な場合は2段階で実行する:
//  1. JOINフィルタ付きクエリでページ範囲の主キーと総件数を取得する
//  2. 主キーに制限したJOINフィルタなしのクエリで行を取り直す（行の再重複を避ける）
//
// 返す件数は必ず1回目のクエリのもの。IDリストに制限された2回目のクエリで件数を
// 取ると、ページ制限されたIDしか数えられず過少件数になる。
func findQuotes(ctx context.Context, qr quoteQuerier, spec QuoteFilterSpec) ([]model.QuoteWithPersonality, int, error) {
	q := buildQuoteQuery(spec)

	count, err := qr.countQuotes(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	if count == 0 {
		return nil, 0, nil
	}

	if !q.innerJoined {
		// 行の重複が起こらないため単一クエリで取得できる
		quotes, err := qr.queryQuotes(ctx, q, spec)
		if err != nil {
			return nil, 0, err
		}
		if err := qr.attachTags(ctx, quotes); err != nil {
			return nil, 0, err
		}
		return quotes, count, nil
	}

	// 第1段階: ページ範囲の主キーを取得
	ids, err := qr.queryQuoteIDs(ctx, q, spec)
	if err != nil {
		return nil, 0, err
	}
	if len(ids) == 0 {
		return nil, count, nil
	}

	// 第2段階: 主キーに制限してJOINフィルタなしで行を取り直す
	quotes, err := qr.queryQuotesByIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	if err := qr.attachTags(ctx, quotes); err != nil {
		return nil, 0, err
	}

	return quotes, count, nil
}

// countQuotes はフィルタに一致する引用の総件数を返す。
// JOINによる行の重複を排除して数える。
func (r *PostgresQuoteRepo) countQuotes(ctx context.Context, q quoteQuery) (int, error) {
	countSQL := "SELECT COUNT(DISTINCT q.id)" + quoteBaseFrom + q.joins + q.where
	var count int
	if err := r.db.QueryRowContext(ctx, countSQL, q.args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("引用件数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// queryQuoteIDs はフィルタとページ範囲に一致する引用の主キーを取得する。
// JOINで重複した行はDISTINCTで1引用1行に畳む。
func (r *PostgresQuoteRepo) queryQuoteIDs(ctx context.Context, q quoteQuery, spec QuoteFilterSpec) ([]string, error) {
	query := "SELECT DISTINCT q.id, q.date" + quoteBaseFrom + q.joins + q.where + quoteOrderBy
	args := append([]interface{}(nil), q.args...)
	query, args = appendBounds(query, args, spec.Page, spec.Size)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("引用IDの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		var date sql.NullTime
		if err := rows.Scan(&id, &date); err != nil {
			return nil, fmt.Errorf("引用ID行の読み取りに失敗しました: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("引用IDの走査に失敗しました: %w", err)
	}
	return ids, nil
}

// queryQuotesByIDs は主キーに制限した引用行を取得する（リプレイクエリ）。
func (r *PostgresQuoteRepo) queryQuotesByIDs(ctx context.Context, ids []string) ([]model.QuoteWithPersonality, error) {
	query := quoteSelectColumns + quoteBaseFrom + " WHERE q.id = ANY($1)" + quoteOrderBy

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("引用のリプレイ取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanQuoteRows(rows)
}

// queryQuotes はJOINフィルタなしのフィルタ条件で引用行を直接取得する。
func (r *PostgresQuoteRepo) queryQuotes(ctx context.Context, q quoteQuery, spec QuoteFilterSpec) ([]model.QuoteWithPersonality, error) {
	query := quoteSelectColumns + quoteBaseFrom + q.joins + q.where + quoteOrderBy
	args := append([]interface{}(nil), q.args...)
	query, args = appendBounds(query, args, spec.Page, spec.Size)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("引用一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanQuoteRows(rows)
}

// scanQuoteRows は引用行を読み取ってモデルに変換する。
func scanQuoteRows(rows *sql.Rows) ([]model.QuoteWithPersonality, error) {
	var quotes []model.QuoteWithPersonality
	for rows.Next() {
		qp, err := scanQuoteRow(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, *qp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("引用一覧の走査に失敗しました: %w", err)
	}
	return quotes, nil
}

// rowScanner は*sql.Rowと*sql.Rowsの共通Scanインターフェース。
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanQuoteRow は1引用行を読み取ってモデルに変換する。
func scanQuoteRow(row rowScanner) (*model.QuoteWithPersonality, error) {
	var qp model.QuoteWithPersonality
	var date sql.NullTime
	var link, sourceID, personalityID sql.NullString
	var firstname, lastname, title, partyID, partyShortName sql.NullString

	if err := row.Scan(
		&qp.ID, &qp.Text, &date, &link, &sourceID, &personalityID,
		&qp.CreatedAt, &qp.UpdatedAt,
		&firstname, &lastname, &title, &partyID, &partyShortName,
	); err != nil {
		return nil, fmt.Errorf("引用行の読み取りに失敗しました: %w", err)
	}

	if date.Valid {
		qp.Date = &date.Time
	}
	qp.Link = nullStringValue(link)
	qp.SourceID = nullStringValue(sourceID)
	qp.PersonalityID = nullStringValue(personalityID)
	qp.PersonalityName = strings.TrimSpace(nullStringValue(firstname) + " " + nullStringValue(lastname))
	qp.PersonalityTitle = nullStringValue(title)
	qp.PartyID = nullStringValue(partyID)
	qp.PartyShortName = nullStringValue(partyShortName)

	return &qp, nil
}

// attachTags は引用一覧にタグを一括で付与する。
// 引用ごとのタグ集合は重複を持たず、表示用に名前昇順で返す。
func (r *PostgresQuoteRepo) attachTags(ctx context.Context, quotes []model.QuoteWithPersonality) error {
	if len(quotes) == 0 {
		return nil
	}

	ids := make([]string, len(quotes))
	index := make(map[string]int, len(quotes))
	for i := range quotes {
		ids[i] = quotes[i].ID
		index[quotes[i].ID] = i
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT qt.quote_id, t.id, t.name, t.color
		 FROM quote_tags qt
		 INNER JOIN tags t ON t.id = qt.tag_id
		 WHERE qt.quote_id = ANY($1)
		 ORDER BY t.name ASC`,
		pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("引用タグの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var quoteID string
		var tag model.Tag
		var color sql.NullString
		if err := rows.Scan(&quoteID, &tag.ID, &tag.Name, &color); err != nil {
			return fmt.Errorf("引用タグ行の読み取りに失敗しました: %w", err)
		}
		tag.Color = nullStringValue(color)
		if i, ok := index[quoteID]; ok {
			quotes[i].Tags = append(quotes[i].Tags, tag)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("引用タグの走査に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDの引用をタグ・発言者付きで取得する。見つからない場合はnilを返す。
func (r *PostgresQuoteRepo) FindByID(ctx context.Context, id string) (*model.QuoteWithPersonality, error) {
	row := r.db.QueryRowContext(ctx,
		quoteSelectColumns+quoteBaseFrom+" WHERE q.id = $1", id)

	qp, err := scanQuoteRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("引用の取得に失敗しました: %w", err)
	}

	quotes := []model.QuoteWithPersonality{*qp}
	if err := r.attachTags(ctx, quotes); err != nil {
		return nil, err
	}
	return &quotes[0], nil
}

// ListRecentByPersonality は指定政治家の最新の引用を返す。
func (r *PostgresQuoteRepo) ListRecentByPersonality(ctx context.Context, personalityID string, limit int) ([]model.Quote, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, text, date, link, source_id, personality_id, created_at, updated_at
		 FROM quotes WHERE personality_id = $1
		 ORDER BY date DESC NULLS LAST, id DESC LIMIT $2`,
		personalityID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("政治家の引用一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var quotes []model.Quote
	for rows.Next() {
		var quote model.Quote
		var date sql.NullTime
		var link, sourceID, pid sql.NullString
		if err := rows.Scan(
			&quote.ID, &quote.Text, &date, &link, &sourceID, &pid,
			&quote.CreatedAt, &quote.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("引用行の読み取りに失敗しました: %w", err)
		}
		if date.Valid {
			quote.Date = &date.Time
		}
		quote.Link = nullStringValue(link)
		quote.SourceID = nullStringValue(sourceID)
		quote.PersonalityID = nullStringValue(pid)
		quotes = append(quotes, quote)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("引用一覧の走査に失敗しました: %w", err)
	}
	return quotes, nil
}

// appendBounds はページネーション境界をクエリに追加する。
// sizeが0の場合は境界を追加しない（全件）。
func appendBounds(query string, args []interface{}, page, size int) (string, []interface{}) {
	if size <= 0 {
		return query, args
	}
	if page < 1 {
		page = 1
	}
	offset := size * (page - 1)
	query += fmt.Sprintf(" OFFSET $%d LIMIT $%d", len(args)+1, len(args)+2)
	args = append(args, offset, size)
	return query, args
}

// escapeLike はILIKEパターン内のワイルドカード文字をエスケープする。
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// nullStringValue はsql.NullStringの値を返す。NULLの場合は空文字列。
func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// nullString は空文字列をNULLに変換する。
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
