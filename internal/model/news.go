// Package model はドメインモデルを定義する。
package model

import "time"

// PressSource はニュース取り込み対象の報道機関フィードを表す。
type PressSource struct {
	ID                string
	Name              string
	SiteURL           string
	FeedURL           string
	ETag              string
	LastModified      string
	FetchStatus       FetchStatus
	ConsecutiveErrors int
	ErrorMessage      string
	NextFetchAt       time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// FetchStatus はプレスソースのフェッチ状態を表す。
type FetchStatus string

const (
	// FetchStatusActive はアクティブなフェッチ状態。
	FetchStatusActive FetchStatus = "active"
	// FetchStatusStopped は停止されたフェッチ状態。
	FetchStatusStopped FetchStatus = "stopped"
	// FetchStatusError はエラーによるフェッチ停止状態。
	FetchStatusError FetchStatus = "error"
)

// NewsItem は報道機関フィードから取り込んだニュース記事を表す。
type NewsItem struct {
	ID          string
	SourceID    string
	GuidOrID    string
	Title       string // サニタイズ済み
	Link        string
	Summary     string // サニタイズ済み
	PublishedAt *time.Time
	FetchedAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ParsedNewsItem はフィードパーサーから取得した未保存のニュース記事を表す。
// ワーカーがフィードをパースした後、NewsUpsertServiceに渡される。
type ParsedNewsItem struct {
	GuidOrID    string
	Title       string // 未サニタイズ
	Link        string
	Summary     string // 未サニタイズ
	PublishedAt *time.Time
}
