// Package model はドメインモデルを定義する。
package model

// Party は政党を表す。
type Party struct {
	ID        string
	Name      string
	ShortName string
	Color     string
}

// Tag は引用に付与されるタグを表す。
// QuotesCountはquote_tagsテーブルから導出されるカウント。
type Tag struct {
	ID          string
	Name        string
	Color       string
	QuotesCount int
}

// MandateType はマンダ種別（選挙職のカテゴリ）を表す。
// 例: maire（市長）、depute（国会議員）、senateur（上院議員）。
type MandateType struct {
	ID    int
	Code  string
	Label string
}
