// Package model はドメインモデルを定義する。
package model

import "time"

// Quote は政治家の発言（引用）を表す。
// 外部のデータ入力でのみ作成・編集され、本システムからは読み取り専用。
type Quote struct {
	ID            string
	Text          string
	Date          *time.Time
	Link          string
	SourceID      string
	PersonalityID string
	Tags          []Tag
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// QuoteWithPersonality は引用と発言者情報を結合したモデル。
// 一覧表示用にpersonalitiesテーブルとLEFT JOINして取得される。
type QuoteWithPersonality struct {
	Quote
	PersonalityName  string
	PersonalityTitle string
	PartyID          string
	PartyShortName   string
}

// Source は引用の出典（記事・動画など）を表す。
type Source struct {
	ID    string
	Label string
	URL   string
}
