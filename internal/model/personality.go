// Package model はドメインモデルを定義する。
package model

import (
	"strings"
	"time"
)

// Personality は政治家・公人を表す。
// QuotesCountはquotesテーブルから導出されるカウントで、
// バッチジョブで再計算される（勝手にドリフトしない）。
type Personality struct {
	ID          string
	Firstname   string
	Lastname    string
	City        string
	Department  string
	Region      string
	PartyID     string
	Title       string
	PortraitURL string
	WikipediaID string
	QuotesCount int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DisplayName は表示用の氏名を返す。
// firstname・lastnameのいずれかが空の場合は空白を挟まない。
func (p *Personality) DisplayName() string {
	return strings.TrimSpace(p.Firstname + " " + p.Lastname)
}

// PersonalityWithParty は政治家と所属政党情報を結合したモデル。
// 一覧表示用にpartiesテーブルとLEFT JOINして取得される。
type PersonalityWithParty struct {
	Personality
	PartyName      string
	PartyShortName string
	PartyColor     string
}

// Mandate は政治家とマンダ種別（選挙職）の多対多の橋渡しを表す。
// 期間付きで、任意で地域（Territory）に紐づく。
type Mandate struct {
	ID            string
	PersonalityID string
	MandateTypeID int
	TerritoryID   string
	StartDate     *time.Time
	EndDate       *time.Time
	CreatedAt     time.Time
}

// IsCurrent は現在有効なマンダかどうかを返す。
// end_dateがnilまたは未来の場合に有効とみなす。
func (m *Mandate) IsCurrent(now time.Time) bool {
	return m.EndDate == nil || m.EndDate.After(now)
}
