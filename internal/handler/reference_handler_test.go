package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/laboussole/boussole-api/internal/model"
)

type mockTagLister struct {
	listAllFn func(ctx context.Context) ([]model.Tag, error)
}

func (m *mockTagLister) ListAll(ctx context.Context) ([]model.Tag, error) {
	return m.listAllFn(ctx)
}

type mockPartyLister struct {
	listAllFn func(ctx context.Context) ([]model.Party, error)
}

func (m *mockPartyLister) ListAll(ctx context.Context) ([]model.Party, error) {
	return m.listAllFn(ctx)
}

type mockMandateTypeLister struct {
	listAllFn func(ctx context.Context) ([]model.MandateType, error)
}

func (m *mockMandateTypeLister) ListAll(ctx context.Context) ([]model.MandateType, error) {
	return m.listAllFn(ctx)
}

type mockDepartmentLister struct {
	listFn func(ctx context.Context) ([]model.Territory, error)
}

func (m *mockDepartmentLister) ListDepartments(ctx context.Context) ([]model.Territory, error) {
	return m.listFn(ctx)
}

func TestListTags_ReturnsTagsWithCounts(t *testing.T) {
	h := NewReferenceHandler(
		&mockTagLister{listAllFn: func(ctx context.Context) ([]model.Tag, error) {
			return []model.Tag{
				{ID: "t1", Name: "climat", QuotesCount: 30},
				{ID: "t2", Name: "europe", QuotesCount: 12},
			}, nil
		}},
		nil, nil, nil,
	)

	req := httptest.NewRequest(http.MethodGet, "/api/tags", nil)
	w := httptest.NewRecorder()
	h.ListTags(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	var body []tagResponse
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(body) != 2 {
		t.Fatalf("tags length = %d, want 2", len(body))
	}
	if body[0].Name != "climat" || body[0].QuotesCount != 30 {
		t.Errorf("tags[0] = %+v, want climat with 30 quotes", body[0])
	}
}

func TestListTags_FailureReturns500(t *testing.T) {
	h := NewReferenceHandler(
		&mockTagLister{listAllFn: func(ctx context.Context) ([]model.Tag, error) {
			return nil, errors.New("connection refused")
		}},
		nil, nil, nil,
	)

	req := httptest.NewRequest(http.MethodGet, "/api/tags", nil)
	w := httptest.NewRecorder()
	h.ListTags(w, req)

	if w.Result().StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusInternalServerError)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["code"] != model.ErrCodeListingFailed {
		t.Errorf("code = %q, want %q", body["code"], model.ErrCodeListingFailed)
	}
}

func TestListParties_ReturnsParties(t *testing.T) {
	h := NewReferenceHandler(
		nil,
		&mockPartyLister{listAllFn: func(ctx context.Context) ([]model.Party, error) {
			return []model.Party{
				{ID: "p1", Name: "Parti Exemple", ShortName: "PE", Color: "#ff0000"},
			}, nil
		}},
		nil, nil,
	)

	req := httptest.NewRequest(http.MethodGet, "/api/partis", nil)
	w := httptest.NewRecorder()
	h.ListParties(w, req)

	var body []partyResponse
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(body) != 1 {
		t.Fatalf("parties length = %d, want 1", len(body))
	}
	if body[0].ShortName != "PE" {
		t.Errorf("short_name = %q, want %q", body[0].ShortName, "PE")
	}
}

func TestListMandateTypes_ReturnsTypes(t *testing.T) {
	h := NewReferenceHandler(
		nil, nil,
		&mockMandateTypeLister{listAllFn: func(ctx context.Context) ([]model.MandateType, error) {
			return []model.MandateType{
				{ID: 1, Code: "maire", Label: "Maire"},
				{ID: 2, Code: "depute", Label: "Député"},
			}, nil
		}},
		nil,
	)

	req := httptest.NewRequest(http.MethodGet, "/api/mandat-types", nil)
	w := httptest.NewRecorder()
	h.ListMandateTypes(w, req)

	var body []mandateTypeResponse
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(body) != 2 {
		t.Fatalf("mandate types length = %d, want 2", len(body))
	}
	if body[1].Code != "depute" {
		t.Errorf("types[1].code = %q, want %q", body[1].Code, "depute")
	}
}

func TestListDepartments_ReturnsNamesOnly(t *testing.T) {
	h := NewReferenceHandler(
		nil, nil, nil,
		&mockDepartmentLister{listFn: func(ctx context.Context) ([]model.Territory, error) {
			return []model.Territory{
				{ID: "d33", Name: "Gironde", Type: model.TerritoryTypeDepartment},
				{ID: "d75", Name: "Paris", Type: model.TerritoryTypeDepartment},
			}, nil
		}},
	)

	req := httptest.NewRequest(http.MethodGet, "/api/departements", nil)
	w := httptest.NewRecorder()
	h.ListDepartments(w, req)

	var body []string
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(body) != 2 || body[0] != "Gironde" || body[1] != "Paris" {
		t.Errorf("departments = %v, want [Gironde Paris]", body)
	}
}

func TestListEndpoints_EmptyResultIsEmptyArray(t *testing.T) {
	h := NewReferenceHandler(
		&mockTagLister{listAllFn: func(ctx context.Context) ([]model.Tag, error) {
			return nil, nil
		}},
		nil, nil, nil,
	)

	req := httptest.NewRequest(http.MethodGet, "/api/tags", nil)
	w := httptest.NewRecorder()
	h.ListTags(w, req)

	// 0件でもJSONのnullではなく空配列を返す
	if got := w.Body.String(); got != "[]\n" {
		t.Errorf("body = %q, want %q", got, "[]\n")
	}
}
