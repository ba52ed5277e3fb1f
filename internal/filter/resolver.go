package filter

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/laboussole/boussole-api/internal/model"
)

// Dimension はフィルタの独立した1軸を表す。
type Dimension string

const (
	// DimensionTag はタグディメンション。
	DimensionTag Dimension = "tag"
	// DimensionParty は政党ディメンション。
	DimensionParty Dimension = "party"
	// DimensionRole はマンダ種別ディメンション。
	DimensionRole Dimension = "role"
	// DimensionPersonality は政治家ディメンション。
	DimensionPersonality Dimension = "personality"
)

// ResolutionStatus はディメンション解決の結果種別を表す。
// ログの副作用に頼らずにテストで検証できるよう、明示的な結果型として表現する。
type ResolutionStatus int

const (
	// ResolutionResolved はエンティティが1件以上解決されたことを表す。
	ResolutionResolved ResolutionStatus = iota
	// ResolutionNotFound は指定IDに一致するエンティティがなかったことを表す。
	ResolutionNotFound
	// ResolutionFailed はデータアクセスの失敗を表す。非致命で、他のディメンションの解決は続行される。
	ResolutionFailed
)

// Resolution は1ディメンションの解決結果を表す。
type Resolution struct {
	Dimension Dimension
	Status    ResolutionStatus
	Err       error
}

// TagFinder はタグの一括取得インターフェース。
type TagFinder interface {
	FindByIDs(ctx context.Context, ids []string) ([]model.Tag, error)
}

// PartyFinder は政党の個別取得インターフェース。
type PartyFinder interface {
	FindByID(ctx context.Context, id string) (*model.Party, error)
}

// MandateTypeFinder はマンダ種別の個別取得インターフェース。
type MandateTypeFinder interface {
	FindByID(ctx context.Context, id int) (*model.MandateType, error)
}

// PersonalityFinder は政治家の一括取得インターフェース。
type PersonalityFinder interface {
	FindByIDs(ctx context.Context, ids []string) ([]model.Personality, error)
}

// Resolver は未解決のURLパラメータを型付きのFiltersに変換する。
// 各ディメンションは対応するパラメータが存在する場合のみ独立に解決される。
// 単一ディメンションの解決失敗はログに記録して続行し、全体を失敗させない
// （ページの残りは描画できるようにする）。
type Resolver struct {
	tags          TagFinder
	parties       PartyFinder
	roles         MandateTypeFinder
	personalities PersonalityFinder
	logger        *slog.Logger
	metrics       ResolutionMetrics
}

// ResolutionMetrics はフィルタ解決失敗のメトリクス記録インターフェース。
type ResolutionMetrics interface {
	RecordResolutionFailure(dimension string)
}

// NewResolver はResolverの新しいインスタンスを生成する。
func NewResolver(
	tags TagFinder,
	parties PartyFinder,
	roles MandateTypeFinder,
	personalities PersonalityFinder,
	logger *slog.Logger,
) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		tags:          tags,
		parties:       parties,
		roles:         roles,
		personalities: personalities,
		logger:        logger,
	}
}

// SetMetrics はフィルタ解決失敗のメトリクス収集を有効にする。
func (r *Resolver) SetMetrics(metrics ResolutionMetrics) {
	r.metrics = metrics
}

// Resolve はパラメータの各ディメンションを解決してFiltersを返す。
// 戻り値のResolution一覧にはDB参照を伴ったディメンションの解決結果のみが含まれる
// （department・textはDB解決されないため含まれない）。
func (r *Resolver) Resolve(ctx context.Context, p Params) (*Filters, []Resolution) {
	filters := &Filters{}
	var resolutions []Resolution

	if res, ok := r.resolveTags(ctx, p.Tags, filters); ok {
		resolutions = append(resolutions, res)
	}
	if res, ok := r.resolveParties(ctx, p.Parties, filters); ok {
		resolutions = append(resolutions, res)
	}
	if res, ok := r.resolveRoles(ctx, p.Roles, filters); ok {
		resolutions = append(resolutions, res)
	}
	if res, ok := r.resolvePersonalities(ctx, p.Personalities, filters); ok {
		resolutions = append(resolutions, res)
	}

	// departmentはTerritoryドメインの表示文字列そのままフィルタリテラルとして使用するため、
	// DB解決は行わない。
	filters.Departments = ParseIDs(p.Departments)
	filters.Text = strings.TrimSpace(p.Text)

	if r.metrics != nil {
		for _, res := range resolutions {
			if res.Status == ResolutionFailed {
				r.metrics.RecordResolutionFailure(string(res.Dimension))
			}
		}
	}

	return filters, resolutions
}

// resolveTags はタグIDを一括で解決する。
// 未知のIDは解決済みタグが減るだけで、エラーにはならない。
func (r *Resolver) resolveTags(ctx context.Context, raw string, filters *Filters) (Resolution, bool) {
	ids := ParseIDs(raw)
	if len(ids) == 0 {
		return Resolution{}, false
	}

	tags, err := r.tags.FindByIDs(ctx, ids)
	if err != nil {
		r.logger.Warn("タグフィルタの解決に失敗しました",
			slog.String("dimension", string(DimensionTag)),
			slog.String("error", err.Error()),
		)
		return Resolution{Dimension: DimensionTag, Status: ResolutionFailed, Err: err}, true
	}

	filters.Tags = tags
	if len(tags) == 0 {
		return Resolution{Dimension: DimensionTag, Status: ResolutionNotFound}, true
	}
	return Resolution{Dimension: DimensionTag, Status: ResolutionResolved}, true
}

// resolveParties は政党IDを1件ずつ解決する。
// カーディナリティが小さいため逐次参照で十分。解決できないIDはスキップする。
func (r *Resolver) resolveParties(ctx context.Context, raw string, filters *Filters) (Resolution, bool) {
	ids := ParseIDs(raw)
	if len(ids) == 0 {
		return Resolution{}, false
	}

	var failed error
	for _, id := range ids {
		party, err := r.parties.FindByID(ctx, id)
		if err != nil {
			r.logger.Warn("政党フィルタの解決に失敗しました",
				slog.String("party_id", id),
				slog.String("error", err.Error()),
			)
			failed = err
			continue
		}
		if party == nil {
			continue
		}
		filters.Parties = append(filters.Parties, *party)
	}

	switch {
	case len(filters.Parties) > 0:
		return Resolution{Dimension: DimensionParty, Status: ResolutionResolved}, true
	case failed != nil:
		return Resolution{Dimension: DimensionParty, Status: ResolutionFailed, Err: failed}, true
	default:
		return Resolution{Dimension: DimensionParty, Status: ResolutionNotFound}, true
	}
}

// resolveRoles はマンダ種別IDを整数としてパースして解決する。
// 数値でないトークンと解決できないIDはスキップする。
func (r *Resolver) resolveRoles(ctx context.Context, raw string, filters *Filters) (Resolution, bool) {
	tokens := ParseIDs(raw)
	if len(tokens) == 0 {
		return Resolution{}, false
	}

	var failed error
	for _, token := range tokens {
		id, err := strconv.Atoi(token)
		if err != nil {
			continue
		}
		role, err := r.roles.FindByID(ctx, id)
		if err != nil {
			r.logger.Warn("マンダ種別フィルタの解決に失敗しました",
				slog.Int("mandate_type_id", id),
				slog.String("error", err.Error()),
			)
			failed = err
			continue
		}
		if role == nil {
			continue
		}
		filters.Roles = append(filters.Roles, *role)
	}

	switch {
	case len(filters.Roles) > 0:
		return Resolution{Dimension: DimensionRole, Status: ResolutionResolved}, true
	case failed != nil:
		return Resolution{Dimension: DimensionRole, Status: ResolutionFailed, Err: failed}, true
	default:
		return Resolution{Dimension: DimensionRole, Status: ResolutionNotFound}, true
	}
}

// resolvePersonalities は政治家IDを一括で解決する。
func (r *Resolver) resolvePersonalities(ctx context.Context, raw string, filters *Filters) (Resolution, bool) {
	ids := ParseIDs(raw)
	if len(ids) == 0 {
		return Resolution{}, false
	}

	personalities, err := r.personalities.FindByIDs(ctx, ids)
	if err != nil {
		r.logger.Warn("政治家フィルタの解決に失敗しました",
			slog.String("dimension", string(DimensionPersonality)),
			slog.String("error", err.Error()),
		)
		return Resolution{Dimension: DimensionPersonality, Status: ResolutionFailed, Err: err}, true
	}

	filters.Personalities = personalities
	if len(personalities) == 0 {
		return Resolution{Dimension: DimensionPersonality, Status: ResolutionNotFound}, true
	}
	return Resolution{Dimension: DimensionPersonality, Status: ResolutionResolved}, true
}
