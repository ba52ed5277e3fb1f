package filter

import (
	"net/url"
	"strconv"

	"github.com/laboussole/boussole-api/internal/model"
)

// URLパラメータ名の定義。多値ディメンションはカンマ区切りで表現される。
const (
	ParamPersonality = "personality"
	ParamRole        = "role"
	ParamParty       = "party"
	ParamTag         = "tag"
	ParamDepartment  = "department"
	ParamText        = "text"
	ParamPage        = "page"
	ParamSize        = "size"
)

// knownParams は認識されるパラメータキーの一覧。
// これ以外のキーは明示的に無視される。
var knownParams = []string{
	ParamPersonality, ParamRole, ParamParty, ParamTag,
	ParamDepartment, ParamText, ParamPage, ParamSize,
}

// Params は1リクエスト分の未解決フィルタパラメータを表す。
// 認識されるキーのみを列挙した明示的な構造で、型なしのパラメータバッグは使用しない。
type Params struct {
	Personalities string // personality: カンマ区切りの政治家ID
	Roles         string // role: カンマ区切りのマンダ種別ID（整数）
	Parties       string // party: カンマ区切りの政党ID
	Tags          string // tag: カンマ区切りのタグID
	Departments   string // department: カンマ区切りの県名（表示文字列そのまま）
	Text          string // text: 自由テキスト検索
	Page          string // page: ページ番号（1始まり）
	Size          string // size: 1ページあたりの件数
}

// ParamsFromQuery はURLクエリから認識されるフィルタパラメータのみを抽出する。
// 未知のキーは無視される。
func ParamsFromQuery(q url.Values) Params {
	return Params{
		Personalities: q.Get(ParamPersonality),
		Roles:         q.Get(ParamRole),
		Parties:       q.Get(ParamParty),
		Tags:          q.Get(ParamTag),
		Departments:   q.Get(ParamDepartment),
		Text:          q.Get(ParamText),
		Page:          q.Get(ParamPage),
		Size:          q.Get(ParamSize),
	}
}

// Pagination はページネーション境界を表す。
// ゼロ値は「ページネーションなし（全件）」を意味する。
type Pagination struct {
	Page int
	Size int
}

// Enabled はページネーションが有効かどうかを返す。
func (p Pagination) Enabled() bool {
	return p.Size > 0
}

// Offset は0始まりの開始行位置を返す。lowerBound = size * (page - 1)。
func (p Pagination) Offset() int {
	if !p.Enabled() {
		return 0
	}
	return p.Size * (p.Page - 1)
}

// ParsePagination はpage・sizeパラメータを検証してPaginationを返す。
// 両方指定するか両方省略する必要があり、片方のみの指定は設定エラーとして
// クエリ実行前に失敗させる。
func ParsePagination(pageStr, sizeStr string) (Pagination, error) {
	if pageStr == "" && sizeStr == "" {
		return Pagination{}, nil
	}
	if pageStr == "" || sizeStr == "" {
		return Pagination{}, model.NewInvalidPaginationError()
	}

	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		return Pagination{}, model.NewInvalidParameterError(ParamPage, pageStr)
	}
	size, err := strconv.Atoi(sizeStr)
	if err != nil || size < 1 {
		return Pagination{}, model.NewInvalidParameterError(ParamSize, sizeStr)
	}

	return Pagination{Page: page, Size: size}, nil
}
