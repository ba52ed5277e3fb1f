// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, filter, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidPagination   = "INVALID_PAGINATION"
	ErrCodeQuoteNotFound       = "QUOTE_NOT_FOUND"
	ErrCodePersonalityNotFound = "PERSONALITY_NOT_FOUND"
	ErrCodeInvalidParameter    = "INVALID_PARAMETER"
	ErrCodeListingFailed       = "LISTING_FAILED"
)

// NewInvalidPaginationError はページネーション設定不正エラーを生成する。
// pageとsizeは両方指定するか、両方省略する必要がある。
func NewInvalidPaginationError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPagination,
		Message:  "pageとsizeは両方指定するか、両方省略してください。",
		Category: "validation",
		Action:   "ページネーションパラメータを確認してください。",
	}
}

// NewQuoteNotFoundError は引用未検出エラーを生成する。
func NewQuoteNotFoundError(quoteID string) *APIError {
	return &APIError{
		Code:     ErrCodeQuoteNotFound,
		Message:  fmt.Sprintf("指定された引用が見つかりません: %s", quoteID),
		Category: "filter",
		Action:   "引用IDを確認してください。",
	}
}

// NewPersonalityNotFoundError は政治家未検出エラーを生成する。
func NewPersonalityNotFoundError(personalityID string) *APIError {
	return &APIError{
		Code:     ErrCodePersonalityNotFound,
		Message:  fmt.Sprintf("指定された政治家が見つかりません: %s", personalityID),
		Category: "filter",
		Action:   "政治家IDを確認してください。",
	}
}

// NewInvalidParameterError は無効なパラメータエラーを生成する。
func NewInvalidParameterError(name, reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidParameter,
		Message:  fmt.Sprintf("パラメータ %s が無効です: %s", name, reason),
		Category: "validation",
		Action:   "リクエストパラメータを確認してください。",
	}
}

// NewListingFailedError は一覧取得失敗エラーを生成する。
// 部分的な結果は件数を誤って表すため、一覧クエリの失敗はリクエスト全体を失敗させる。
func NewListingFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeListingFailed,
		Message:  "一覧の取得に失敗しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
