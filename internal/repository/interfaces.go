// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/laboussole/boussole-api/internal/model"
)

// QuoteFilterSpec は引用一覧クエリのフィルタ仕様を表す。
// 各フィールドは省略可能で、ゼロ値は「そのディメンションは非アクティブ」を意味する。
// Page・Sizeの整合性検証は呼び出し側（サービス層）の責務。
type QuoteFilterSpec struct {
	IDs           []string // 主キーによる直接制限
	Parties       []string // 発言者の所属政党ID
	Roles         []int    // 発言者が保持するマンダ種別ID（mandates経由のINNER JOIN）
	Tags          []string // タグID（quote_tags経由のINNER JOIN）
	Personalities []string // 発言者ID
	Departments   []string // 発言者の県（表示文字列）
	Text          string   // 自由テキスト検索
	Page          int      // 1始まりのページ番号。0は「ページネーションなし」
	Size          int      // 1ページあたりの件数。0は「ページネーションなし」
}

// PersonalityFilterSpec は政治家一覧クエリのフィルタ仕様を表す。
// 間接ディメンション（role・tag）は事前にID集合へ解決され、IDsとして渡される。
type PersonalityFilterSpec struct {
	IDs         []string // ID制限（間接フィルタの積集合を含む）。nilは制限なし
	Parties     []string
	Departments []string
	Text        string
	Page        int
	Size        int
}

// QuoteRepository は引用データの永続化インターフェース。
type QuoteRepository interface {
	// FindByID は指定IDの引用をタグ・発言者付きで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.QuoteWithPersonality, error)

	// Find はフィルタ仕様に一致する引用の一覧と総件数を返す。
	// タグ・マンダ種別等のINNER JOINフィルタが有効な場合、行の重複と件数の破壊を避けるため、
	// 1回目のクエリで得た主キーに制限した2回目のクエリで行を取得し、
	// 件数は1回目のクエリのものを返す（リプレイクエリ）。
	Find(ctx context.Context, spec QuoteFilterSpec) ([]model.QuoteWithPersonality, int, error)

	// ListRecentByPersonality は指定政治家の最新の引用を返す。
	ListRecentByPersonality(ctx context.Context, personalityID string, limit int) ([]model.Quote, error)
}

// PersonalityRepository は政治家データの永続化インターフェース。
type PersonalityRepository interface {
	// FindByID は指定IDの政治家を政党情報付きで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.PersonalityWithParty, error)

	// FindByIDs は指定IDの政治家を一括取得する。存在しないIDは結果に含まれない。
	FindByIDs(ctx context.Context, ids []string) ([]model.Personality, error)

	// FindPersonalityIDsByRoles は指定マンダ種別のマンダを1つ以上保持する政治家IDを返す。
	// mandates橋渡しテーブルの解決（間接フィルタ用）。
	FindPersonalityIDsByRoles(ctx context.Context, roleIDs []int) ([]string, error)

	// FindPersonalityIDsByTags は指定タグ付きの引用を1件以上持つ政治家IDを返す。
	FindPersonalityIDsByTags(ctx context.Context, tagIDs []string) ([]string, error)

	// Find はフィルタ仕様に一致する政治家の一覧と総件数を返す。
	// lastname昇順（NULLS LAST）でソートする。
	Find(ctx context.Context, spec PersonalityFilterSpec) ([]model.PersonalityWithParty, int, error)

	// ListNeedingPortrait は肖像画URLが未設定でWikipedia IDを持つ政治家を返す。
	// サムネイル取得バッチの対象抽出用。
	ListNeedingPortrait(ctx context.Context, limit int) ([]model.Personality, error)

	// UpdatePortrait は政治家の肖像画URLを更新する。
	UpdatePortrait(ctx context.Context, id, portraitURL string) error
}

// TagRepository はタグデータの永続化インターフェース。
type TagRepository interface {
	// FindByIDs は指定IDのタグを一括取得する。存在しないIDは結果に含まれない。
	FindByIDs(ctx context.Context, ids []string) ([]model.Tag, error)

	// ListAll は全タグをquotes_count付きで返す。フィルタウィジェット用。
	ListAll(ctx context.Context) ([]model.Tag, error)
}

// PartyRepository は政党データの永続化インターフェース。
type PartyRepository interface {
	// FindByID は指定IDの政党を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Party, error)

	// ListAll は全政党を返す。
	ListAll(ctx context.Context) ([]model.Party, error)
}

// MandateTypeRepository はマンダ種別データの永続化インターフェース。
type MandateTypeRepository interface {
	// FindByID は指定IDのマンダ種別を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int) (*model.MandateType, error)

	// ListAll は全マンダ種別を返す。
	ListAll(ctx context.Context) ([]model.MandateType, error)
}

// TerritoryRepository は地域データの永続化インターフェース。
type TerritoryRepository interface {
	// ListDepartments は県レベルの地域を名前昇順で返す。フィルタウィジェット用。
	ListDepartments(ctx context.Context) ([]model.Territory, error)
}

// NewsRepository はニュース記事データの永続化インターフェース。
type NewsRepository interface {
	// List はニュース記事を公開日降順でページネーション付きで返す。
	List(ctx context.Context, page, size int) ([]model.NewsItem, int, error)

	// FindBySourceAndGUID はsource_idとguid_or_idでニュース記事を検索する。
	// 同一性判定の最優先手段。見つからない場合はnilを返す。
	FindBySourceAndGUID(ctx context.Context, sourceID, guid string) (*model.NewsItem, error)

	// FindBySourceAndLink はsource_idとlinkでニュース記事を検索する。
	// 同一性判定の第2優先手段。見つからない場合はnilを返す。
	FindBySourceAndLink(ctx context.Context, sourceID, link string) (*model.NewsItem, error)

	// Create は新規ニュース記事を作成する。
	Create(ctx context.Context, item *model.NewsItem) error

	// Update は既存ニュース記事を上書き更新する。
	Update(ctx context.Context, item *model.NewsItem) error
}

// PressSourceRepository は報道機関フィードの永続化インターフェース。
type PressSourceRepository interface {
	// ListDueForFetch はフェッチ対象のプレスソースを取得する。
	// next_fetch_at <= now() かつ fetch_status = 'active' のソースを
	// FOR UPDATE SKIP LOCKEDで排他的に取得する。
	ListDueForFetch(ctx context.Context) ([]*model.PressSource, error)

	// UpdateFetchState はプレスソースのフェッチ状態を更新する。
	UpdateFetchState(ctx context.Context, source *model.PressSource) error

	// UpdateFeedURL は自動検出されたフィードURLを保存する。
	UpdateFeedURL(ctx context.Context, id, feedURL string) error
}
