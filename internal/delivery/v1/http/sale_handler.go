package http

import (
	"net/http"

	"github.com/DRSN-tech/pos-backend/internal/usecase"
	"github.com/DRSN-tech/pos-backend/pkg/logger"
)

const idempotencyHeader = "Idempotency-Key"

type SaleHandler struct {
	saleUsecase usecase.SaleUC
	logger      logger.Logger
}

func NewSaleHandler(saleUsecase usecase.SaleUC, logger logger.Logger) *SaleHandler {
	return &SaleHandler{saleUsecase: saleUsecase, logger: logger}
}

func (h *SaleHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	logFailure(h.logger, r, err)
	WriteError(w, err)
}

// commitSale
//
//	@Summary		Проведение продажи
//	@Description	Атомарно списывает остатки и сохраняет продажу. Суммы пересчитываются сервером,
//	@Description	переданные клиентом итоги только сверяются (допуск 0.01).
//	@Tags			sales
//	@Accept			json
//	@Produce		json
//	@Param			Idempotency-Key	header		string				false	"Ключ идемпотентности"
//	@Param			body			body		CommitSaleRequest	true	"Чек"
//	@Success		201				{object}	SaleResponse		"Продажа проведена"
//	@Success		200				{object}	SaleResponse		"Повтор с тем же ключом"
//	@Failure		400				{object}	ErrorResponse		"Ошибка валидации"
//	@Failure		404				{object}	ErrorResponse		"Товар не найден"
//	@Failure		409				{object}	ErrorResponse		"Недостаточно товара"
//	@Failure		422				{object}	ErrorResponse		"Итоги не сходятся"
//	@Router			/sales [post]
func (h *SaleHandler) commitSale(w http.ResponseWriter, r *http.Request) {
	var req CommitSaleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.saleUsecase.CommitSale(r.Context(), req.toUseCase(r.Header.Get(idempotencyHeader)))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	body := toSaleResponse(res.Sale)
	body.Replayed = res.Replayed

	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	WriteSuccess(w, status, body)
}

// listSales
//
//	@Summary	История продаж
//	@Tags		sales
//	@Produce	json
//	@Success	200	{array}	SaleResponse
//	@Router		/sales [get]
func (h *SaleHandler) listSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.saleUsecase.ListSales(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	WriteSuccess(w, http.StatusOK, mapSlice(sales, toSaleResponse))
}

// getSale
//
//	@Summary	Продажа по id
//	@Tags		sales
//	@Produce	json
//	@Param		id	path		int	true	"ID продажи"
//	@Success	200	{object}	SaleResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/sales/{id} [get]
func (h *SaleHandler) getSale(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	sale, err := h.saleUsecase.GetSale(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toSaleResponse(sale))
}

// shareLink
//
//	@Summary		Ссылка для отправки чека
//	@Description	Формирует текст чека и ссылку wa.me. Сообщение не отправляется.
//	@Tags			sales
//	@Produce		json
//	@Param			id	path		int	true	"ID продажи"
//	@Success		200	{object}	ShareLinkResponse
//	@Failure		400	{object}	ErrorResponse	"Некорректный телефон"
//	@Failure		404	{object}	ErrorResponse
//	@Router			/sales/{id}/share-link [get]
func (h *SaleHandler) shareLink(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	link, err := h.saleUsecase.ShareLink(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	WriteSuccess(w, http.StatusOK, ShareLinkResponse{Phone: link.Phone, Message: link.Message, URL: link.URL})
}

// getStock
//
//	@Summary	Остаток товара
//	@Tags		products
//	@Produce	json
//	@Param		id	path		int	true	"ID товара"
//	@Success	200	{object}	StockResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/products/{id}/stock [get]
func (h *SaleHandler) getStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	qty, err := h.saleUsecase.GetStock(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	WriteSuccess(w, http.StatusOK, StockResponse{ProductID: id, Quantity: qty})
}

// adjustStock
//
//	@Summary		Корректировка остатка
//	@Description	Условное изменение: остаток не может стать отрицательным
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int					true	"ID товара"
//	@Param			body	body		AdjustStockRequest	true	"Изменение"
//	@Success		200		{object}	StockResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse	"Недостаточно товара"
//	@Router			/products/{id}/stock [post]
func (h *SaleHandler) adjustStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req AdjustStockRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	qty, err := h.saleUsecase.AdjustStock(r.Context(), id, req.Delta)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	WriteSuccess(w, http.StatusOK, StockResponse{ProductID: id, Quantity: qty})
}
