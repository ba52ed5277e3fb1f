package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/laboussole/boussole-api/internal/middleware"
	"github.com/laboussole/boussole-api/internal/model"
)

// TagLister はタグ一覧の取得インターフェース。
type TagLister interface {
	ListAll(ctx context.Context) ([]model.Tag, error)
}

// PartyLister は政党一覧の取得インターフェース。
type PartyLister interface {
	ListAll(ctx context.Context) ([]model.Party, error)
}

// MandateTypeLister はマンダ種別一覧の取得インターフェース。
type MandateTypeLister interface {
	ListAll(ctx context.Context) ([]model.MandateType, error)
}

// DepartmentLister は県一覧の取得インターフェース。
type DepartmentLister interface {
	ListDepartments(ctx context.Context) ([]model.Territory, error)
}

// ReferenceHandler はフィルタウィジェット用の参照データを提供するHTTPハンドラー。
// タグ・政党・マンダ種別・県の一覧を返す。
type ReferenceHandler struct {
	tags         TagLister
	parties      PartyLister
	mandateTypes MandateTypeLister
	departments  DepartmentLister
}

// NewReferenceHandler はReferenceHandlerの新しいインスタンスを生成する。
func NewReferenceHandler(tags TagLister, parties PartyLister, mandateTypes MandateTypeLister, departments DepartmentLister) *ReferenceHandler {
	return &ReferenceHandler{
		tags:         tags,
		parties:      parties,
		mandateTypes: mandateTypes,
		departments:  departments,
	}
}

// partyResponse は政党のAPIレスポンス。
type partyResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name,omitempty"`
	Color     string `json:"color,omitempty"`
}

// mandateTypeResponse はマンダ種別のAPIレスポンス。
type mandateTypeResponse struct {
	ID    int    `json:"id"`
	Code  string `json:"code"`
	Label string `json:"label"`
}

// ListTags は全タグを件数付きで返す。
// GET /api/tags
func (h *ReferenceHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tags.ListAll(r.Context())
	if err != nil {
		writeListingError(w, "tags", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toTagResponses(tags))
}

// ListParties は全政党を返す。
// GET /api/partis
func (h *ReferenceHandler) ListParties(w http.ResponseWriter, r *http.Request) {
	parties, err := h.parties.ListAll(r.Context())
	if err != nil {
		writeListingError(w, "parties", err)
		return
	}

	result := make([]partyResponse, 0, len(parties))
	for _, p := range parties {
		result = append(result, partyResponse{
			ID:        p.ID,
			Name:      p.Name,
			ShortName: p.ShortName,
			Color:     p.Color,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// ListMandateTypes は全マンダ種別を返す。
// GET /api/mandat-types
func (h *ReferenceHandler) ListMandateTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.mandateTypes.ListAll(r.Context())
	if err != nil {
		writeListingError(w, "mandate_types", err)
		return
	}

	result := make([]mandateTypeResponse, 0, len(types))
	for _, mt := range types {
		result = append(result, mandateTypeResponse{
			ID:    mt.ID,
			Code:  mt.Code,
			Label: mt.Label,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// ListDepartments はフィルタに使用できる県名の一覧を返す。
// GET /api/departements
func (h *ReferenceHandler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.departments.ListDepartments(r.Context())
	if err != nil {
		writeListingError(w, "departments", err)
		return
	}

	result := make([]string, 0, len(departments))
	for _, d := range departments {
		result = append(result, d.Name)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// writeListingError は参照データ一覧の取得失敗を記録し、統一エラーを返す。
func writeListingError(w http.ResponseWriter, resource string, err error) {
	slog.Error("参照データの取得に失敗しました",
		slog.String("resource", resource),
		slog.String("error", err.Error()),
	)
	middleware.WriteErrorResponse(w, http.StatusInternalServerError, model.NewListingFailedError())
}
