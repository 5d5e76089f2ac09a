package http

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/DRSN-tech/pos-backend/internal/report"
	"github.com/DRSN-tech/pos-backend/internal/usecase"
	"github.com/DRSN-tech/pos-backend/pkg/logger"
)

type AnalyticsHandler struct {
	analyticsUsecase usecase.AnalyticsUC
	logger           logger.Logger
}

func NewAnalyticsHandler(analyticsUsecase usecase.AnalyticsUC, logger logger.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsUsecase: analyticsUsecase, logger: logger}
}

// dashboard
//
//	@Summary		Дашборд продаж
//	@Description	При недоступности истории возвращает нулевые показатели с degraded = true
//	@Tags			analytics
//	@Produce		json
//	@Success		200	{object}	DashboardResponse
//	@Router			/dashboard [get]
func (h *AnalyticsHandler) dashboard(w http.ResponseWriter, r *http.Request) {
	res := h.analyticsUsecase.Dashboard(r.Context())
	if res.Degraded {
		h.logger.Warnf("Serving degraded dashboard")
	}

	WriteSuccess(w, http.StatusOK, toDashboardResponse(res))
}

// downloadReport
//
//	@Summary	XLSX-отчёт по продажам
//	@Tags		analytics
//	@Produce	application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
//	@Success	200	{file}		file
//	@Failure	500	{object}	ErrorResponse
//	@Router		/reports/sales.xlsx [get]
func (h *AnalyticsHandler) downloadReport(w http.ResponseWriter, r *http.Request) {
	// Отчёт собирается в буфер целиком, чтобы при ошибке ещё можно было отдать JSON
	var buf bytes.Buffer
	if err := h.analyticsUsecase.WriteReport(r.Context(), &buf); err != nil {
		logFailure(h.logger, r, err)
		WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="sales.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// storeReport
//
//	@Summary		Сохранение отчёта в хранилище
//	@Description	Строит XLSX-отчёт, кладёт его в MinIO и возвращает временную ссылку
//	@Tags			analytics
//	@Produce		json
//	@Success		201	{object}	StoredReportResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/reports [post]
func (h *AnalyticsHandler) storeReport(w http.ResponseWriter, r *http.Request) {
	stored, err := h.analyticsUsecase.StoreReport(r.Context())
	if err != nil {
		logFailure(h.logger, r, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, StoredReportResponse{
		Key:       stored.Key,
		URL:       stored.URL,
		ExpiresAt: stored.ExpiresAt,
		Size:      stored.Size,
	})
}
