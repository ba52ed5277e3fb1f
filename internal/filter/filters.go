package filter

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/laboussole/boussole-api/internal/model"
)

// Filters は解決済みのフィルタ状態を表す。
// リクエストスコープの値で、URLパラメータから毎回再構築される。
// 各ディメンションは独立しており、ディメンション間の合成は常にAND。
type Filters struct {
	Tags          []model.Tag
	Parties       []model.Party
	Roles         []model.MandateType
	Personalities []model.Personality
	Departments   []string
	Text          string
}

// IsEmpty はアクティブなディメンションが1つもないかどうかを返す。
func (f *Filters) IsEmpty() bool {
	return len(f.Tags) == 0 && len(f.Parties) == 0 && len(f.Roles) == 0 &&
		len(f.Personalities) == 0 && len(f.Departments) == 0 && f.Text == ""
}

// TagIDs は解決済みタグのID一覧を返す。
func (f *Filters) TagIDs() []string {
	ids := make([]string, 0, len(f.Tags))
	for _, t := range f.Tags {
		ids = append(ids, t.ID)
	}
	return ids
}

// PartyIDs は解決済み政党のID一覧を返す。
func (f *Filters) PartyIDs() []string {
	ids := make([]string, 0, len(f.Parties))
	for _, p := range f.Parties {
		ids = append(ids, p.ID)
	}
	return ids
}

// RoleIDs は解決済みマンダ種別のID一覧を返す。
func (f *Filters) RoleIDs() []int {
	ids := make([]int, 0, len(f.Roles))
	for _, r := range f.Roles {
		ids = append(ids, r.ID)
	}
	return ids
}

// PersonalityIDs は解決済み政治家のID一覧を返す。
func (f *Filters) PersonalityIDs() []string {
	ids := make([]string, 0, len(f.Personalities))
	for _, p := range f.Personalities {
		ids = append(ids, p.ID)
	}
	return ids
}

// QueryParams はフィルタ状態をURLクエリパラメータに直列化する。
// 多値ディメンションはカンマ区切りで結合される。
// Resolverで再パースすると同等のフィルタ状態が復元される（往復可能）。
func (f *Filters) QueryParams() url.Values {
	params := url.Values{}

	if ids := f.PersonalityIDs(); len(ids) > 0 {
		params.Set(ParamPersonality, strings.Join(ids, ","))
	}
	if len(f.Roles) > 0 {
		codes := make([]string, 0, len(f.Roles))
		for _, r := range f.Roles {
			codes = append(codes, strconv.Itoa(r.ID))
		}
		params.Set(ParamRole, strings.Join(codes, ","))
	}
	if ids := f.PartyIDs(); len(ids) > 0 {
		params.Set(ParamParty, strings.Join(ids, ","))
	}
	if ids := f.TagIDs(); len(ids) > 0 {
		params.Set(ParamTag, strings.Join(ids, ","))
	}
	if len(f.Departments) > 0 {
		params.Set(ParamDepartment, strings.Join(f.Departments, ","))
	}
	if f.Text != "" {
		params.Set(ParamText, f.Text)
	}

	return params
}
