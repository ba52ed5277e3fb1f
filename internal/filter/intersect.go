package filter

import (
	"context"
	"fmt"
)

// PersonalityIDSource は間接ディメンションを政治家ID集合に解決するインターフェース。
// role（mandates橋渡しテーブル経由）とtag（quotes経由）が対象。
type PersonalityIDSource interface {
	// FindPersonalityIDsByRoles は指定マンダ種別のマンダを1つ以上保持する政治家IDを返す。
	FindPersonalityIDsByRoles(ctx context.Context, roleIDs []int) ([]string, error)
	// FindPersonalityIDsByTags は指定タグ付きの引用を持つ政治家IDを返す。
	FindPersonalityIDsByTags(ctx context.Context, tagIDs []string) ([]string, error)
}

// Intersector は政治家一覧に間接的にしか作用しないディメンションを
// 政治家ID集合に解決し、全集合の積集合を計算する。
//
// 多対多の橋渡しテーブルを複数混ぜた単一JOINクエリは行の重複と件数の
// 破壊を招くため、各ディメンションを独立にフラットなID集合へ解決してから
// 積集合を取る2段階方式を採用している。
type Intersector struct {
	source PersonalityIDSource
}

// NewIntersector はIntersectorの新しいインスタンスを生成する。
func NewIntersector(source PersonalityIDSource) *Intersector {
	return &Intersector{source: source}
}

// ResolveIndirect はアクティブな間接ディメンションをそれぞれ政治家ID集合に解決し、
// 積集合を返す。
//
// 戻り値の規約:
//   - nil: 間接ディメンションが1つもアクティブでない（ID制限なし）
//   - 空スライス: 積集合が空（一覧クエリを実行せずに空結果とする）
//
// いずれかの集合が空の場合は残りの解決をスキップして即座に空を返す
// （空集合とのANDは常に空）。
// ID解決の失敗は一覧の件数を誤らせるため、ここではエラーとして伝播する。
func (i *Intersector) ResolveIndirect(ctx context.Context, f *Filters) ([]string, error) {
	var sets [][]string

	if ids := f.PersonalityIDs(); len(ids) > 0 {
		sets = append(sets, ids)
	}

	if roleIDs := f.RoleIDs(); len(roleIDs) > 0 {
		ids, err := i.source.FindPersonalityIDsByRoles(ctx, roleIDs)
		if err != nil {
			return nil, fmt.Errorf("マンダ種別による政治家IDの解決に失敗しました: %w", err)
		}
		if len(ids) == 0 {
			return []string{}, nil
		}
		sets = append(sets, ids)
	}

	if tagIDs := f.TagIDs(); len(tagIDs) > 0 {
		ids, err := i.source.FindPersonalityIDsByTags(ctx, tagIDs)
		if err != nil {
			return nil, fmt.Errorf("タグによる政治家IDの解決に失敗しました: %w", err)
		}
		if len(ids) == 0 {
			return []string{}, nil
		}
		sets = append(sets, ids)
	}

	if len(sets) == 0 {
		return nil, nil
	}

	return Intersect(sets...), nil
}

// Intersect は複数のID集合の積集合を返す。
// 積集合は可換かつ結合的で、集合の順序は結果に影響しない。
// 結果の要素順は最初の集合の順序を保つ。引数なしの場合はnilを返す。
func Intersect(sets ...[]string) []string {
	if len(sets) == 0 {
		return nil
	}

	result := sets[0]
	for _, set := range sets[1:] {
		members := make(map[string]bool, len(set))
		for _, id := range set {
			members[id] = true
		}

		filtered := make([]string, 0, len(result))
		for _, id := range result {
			if members[id] {
				filtered = append(filtered, id)
			}
		}
		result = filtered
	}

	// 最初の集合をそのまま返す場合もコピーして呼び出し側の変更から守る
	if len(sets) == 1 {
		result = append([]string(nil), result...)
	}

	return result
}
