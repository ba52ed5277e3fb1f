// Package model はドメインモデルを定義する。
package model

// TerritoryType は地域区分の種類を表す。
type TerritoryType string

const (
	// TerritoryTypeCountry は国。
	TerritoryTypeCountry TerritoryType = "country"
	// TerritoryTypeRegion は地方圏。
	TerritoryTypeRegion TerritoryType = "region"
	// TerritoryTypeDepartment は県。
	TerritoryTypeDepartment TerritoryType = "department"
	// TerritoryTypeCommune は市町村。
	TerritoryTypeCommune TerritoryType = "commune"
	// TerritoryTypeConstituency は選挙区。
	TerritoryTypeConstituency TerritoryType = "constituency"
	// TerritoryTypeOther はその他の区分。
	TerritoryTypeOther TerritoryType = "other"
)

// Territory は地域（国・地方圏・県・市町村・選挙区）を表す。
// ParentIDで階層構造を形成する。
type Territory struct {
	ID       string
	Name     string
	Type     TerritoryType
	ParentID string
}
