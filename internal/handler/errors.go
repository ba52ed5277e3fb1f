package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/laboussole/boussole-api/internal/middleware"
	"github.com/laboussole/boussole-api/internal/model"
)

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidPagination, model.ErrCodeInvalidParameter:
		return http.StatusBadRequest
	case model.ErrCodeQuoteNotFound, model.ErrCodePersonalityNotFound:
		return http.StatusNotFound
	case model.ErrCodeListingFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
