package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/DRSN-tech/pos-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

const maxBodySize = 1 << 20

// Машиночитаемые коды ошибок в теле ответа.
const (
	codeValidation         = "validation_error"
	codeNotFound           = "not_found"
	codeInsufficientStock  = "insufficient_stock"
	codeInconsistentTotals = "inconsistent_totals"
	codeConflict           = "conflict"
	codeUnsupportedMedia   = "unsupported_media_type"
	codeInternal           = "internal_error"
)

type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func NewErrorResponse(code, message string, details map[string]any) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// ToHTTPResponse переводит ошибку слоя usecase в HTTP-статус и тело ответа.
// Ошибки хранилища и всё неизвестное отдаются как непрозрачная 500.
func ToHTTPResponse(err error) (int, *ErrorResponse) {
	details := map[string]any{}
	if commitErr, ok := e.AsCommit(err); ok {
		details["stage"] = commitErr.Stage
	}

	var (
		stockErr  *e.InsufficientStockError
		totalsErr *e.InconsistentTotalsError
		notFound  *e.NotFoundError
	)

	switch {
	case errors.As(err, &stockErr):
		details["product_id"] = stockErr.ProductID
		details["product_name"] = stockErr.ProductName
		details["requested"] = stockErr.Requested
		details["available"] = stockErr.Available
		return http.StatusConflict, NewErrorResponse(codeInsufficientStock, e.ErrInsufficientStock.Error(), details)
	case errors.As(err, &totalsErr):
		details["field"] = totalsErr.Field
		details["expected"] = totalsErr.Expected.StringFixed(2)
		details["got"] = totalsErr.Got.StringFixed(2)
		return http.StatusUnprocessableEntity, NewErrorResponse(codeInconsistentTotals, e.ErrInconsistentTotals.Error(), details)
	case errors.Is(err, e.ErrValidation):
		msg := e.ErrValidation.Error()
		if v, ok := e.AsValidation(err); ok {
			if v.Field != "" {
				details["field"] = v.Field
			}
			msg = v.Reason
		}
		return http.StatusBadRequest, NewErrorResponse(codeValidation, msg, nilIfEmpty(details))
	case errors.Is(err, e.ErrInvalidJSON), errors.Is(err, e.ErrInvalidID), errors.Is(err, e.ErrStatusBadRequest):
		return http.StatusBadRequest, NewErrorResponse(codeValidation, rootMessage(err), nil)
	case errors.As(err, &notFound):
		details["entity"] = notFound.Entity
		details["id"] = notFound.ID
		return http.StatusNotFound, NewErrorResponse(codeNotFound, notFound.Error(), details)
	case errors.Is(err, e.ErrNotFound):
		return http.StatusNotFound, NewErrorResponse(codeNotFound, e.ErrNotFound.Error(), nil)
	case errors.Is(err, e.ErrTxConflict), errors.Is(err, e.ErrAlreadyExists):
		return http.StatusConflict, NewErrorResponse(codeConflict, "concurrent update, retry the request", nilIfEmpty(details))
	case errors.Is(err, e.ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType, NewErrorResponse(codeUnsupportedMedia, e.ErrUnsupportedMediaType.Error(), nil)
	default:
		return http.StatusInternalServerError, NewErrorResponse(codeInternal, e.ErrInternalServerError.Error(), nil)
	}
}

func WriteError(w http.ResponseWriter, err error) {
	code, body := ToHTTPResponse(err)
	WriteSuccess(w, code, body)
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON читает тело запроса в dst, ограничивая его размер.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return e.Wrap("empty body", e.ErrInvalidJSON)
		}
		return e.Wrap(err.Error(), e.ErrInvalidJSON)
	}

	return nil
}

// pathID достаёт положительный int64 из параметра маршрута.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, e.NewValidationError(name, e.ErrInvalidID.Error())
	}

	return id, nil
}

func rootMessage(err error) string {
	switch {
	case errors.Is(err, e.ErrInvalidJSON):
		return e.ErrInvalidJSON.Error()
	case errors.Is(err, e.ErrInvalidID):
		return e.ErrInvalidID.Error()
	default:
		return e.ErrStatusBadRequest.Error()
	}
}

func nilIfEmpty(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	return m
}

func logFailure(log logger.Logger, r *http.Request, err error) {
	code, _ := ToHTTPResponse(err)
	if code >= http.StatusInternalServerError {
		log.Errorf(err, "%d %s %s", code, r.Method, r.URL.Path)
		return
	}
	log.Warnf("%d %s %s: %s", code, r.Method, r.URL.Path, err.Error())
}
