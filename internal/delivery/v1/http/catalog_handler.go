package http

import (
	"net/http"

	"github.com/DRSN-tech/pos-backend/internal/usecase"
	"github.com/DRSN-tech/pos-backend/pkg/logger"
)

type CatalogHandler struct {
	catalogUsecase usecase.CatalogUC
	logger         logger.Logger
}

func NewCatalogHandler(catalogUsecase usecase.CatalogUC, logger logger.Logger) *CatalogHandler {
	return &CatalogHandler{catalogUsecase: catalogUsecase, logger: logger}
}

// fail логирует ошибку с уровнем по статусу и пишет ответ.
func (h *CatalogHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	logFailure(h.logger, r, err)
	WriteError(w, err)
}

// createCategory
//
//	@Summary	Создание категории
//	@Tags		categories
//	@Accept		json
//	@Produce	json
//	@Param		body	body		CategoryRequest	true	"Категория"
//	@Success	201		{object}	CategoryResponse
//	@Failure	400		{object}	ErrorResponse	"Ошибка валидации"
//	@Router		/categories [post]
func (h *CatalogHandler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	category, err := h.catalogUsecase.CreateCategory(r.Context(), &usecase.CategoryReq{Name: req.Name})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, toCategoryResponse(category))
}

// listCategories
//
//	@Summary	Список категорий
//	@Tags		categories
//	@Produce	json
//	@Success	200	{array}	CategoryResponse
//	@Router		/categories [get]
func (h *CatalogHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalogUsecase.ListCategories(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	WriteSuccess(w, http.StatusOK, mapSlice(categories, toCategoryResponse))
}

// getCategory
//
//	@Summary	Категория по id
//	@Tags		categories
//	@Produce	json
//	@Param		id	path		int	true	"ID категории"
//	@Success	200	{object}	CategoryResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/categories/{id} [get]
func (h *CatalogHandler) getCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	category, err := h.catalogUsecase.GetCategory(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toCategoryResponse(category))
}

// updateCategory
//
//	@Summary	Обновление категории
//	@Tags		categories
//	@Accept		json
//	@Produce	json
//	@Param		id		path		int				true	"ID категории"
//	@Param		body	body		CategoryRequest	true	"Категория"
//	@Success	200		{object}	CategoryResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	404		{object}	ErrorResponse
//	@Router		/categories/{id} [put]
func (h *CatalogHandler) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req CategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	category, err := h.catalogUsecase.UpdateCategory(r.Context(), id, &usecase.CategoryReq{Name: req.Name})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toCategoryResponse(category))
}

// deleteCategory
//
//	@Summary	Удаление категории
//	@Description	Товары категории остаются, ссылка на категорию обнуляется
//	@Tags		categories
//	@Param		id	path	int	true	"ID категории"
//	@Success	204
//	@Failure	404	{object}	ErrorResponse
//	@Router		/categories/{id} [delete]
func (h *CatalogHandler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.catalogUsecase.DeleteCategory(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// createSupplier
//
//	@Summary	Создание поставщика
//	@Tags		suppliers
//	@Accept		json
//	@Produce	json
//	@Param		body	body		SupplierRequest	true	"Поставщик"
//	@Success	201		{object}	SupplierResponse
//	@Failure	400		{object}	ErrorResponse
//	@Router		/suppliers [post]
func (h *CatalogHandler) createSupplier(w http.ResponseWriter, r *http.Request) {
	var req SupplierRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	supplier, err := h.catalogUsecase.CreateSupplier(r.Context(), toSupplierReq(&req))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, toSupplierResponse(supplier))
}

// listSuppliers
//
//	@Summary	Список поставщиков
//	@Tags		suppliers
//	@Produce	json
//	@Success	200	{array}	SupplierResponse
//	@Router		/suppliers [get]
func (h *CatalogHandler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.catalogUsecase.ListSuppliers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	WriteSuccess(w, http.StatusOK, mapSlice(suppliers, toSupplierResponse))
}

// getSupplier
//
//	@Summary	Поставщик по id
//	@Tags		suppliers
//	@Produce	json
//	@Param		id	path		int	true	"ID поставщика"
//	@Success	200	{object}	SupplierResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/suppliers/{id} [get]
func (h *CatalogHandler) getSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	supplier, err := h.catalogUsecase.GetSupplier(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toSupplierResponse(supplier))
}

// updateSupplier
//
//	@Summary	Обновление поставщика
//	@Tags		suppliers
//	@Accept		json
//	@Produce	json
//	@Param		id		path		int				true	"ID поставщика"
//	@Param		body	body		SupplierRequest	true	"Поставщик"
//	@Success	200		{object}	SupplierResponse
//	@Failure	404		{object}	ErrorResponse
//	@Router		/suppliers/{id} [put]
func (h *CatalogHandler) updateSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req SupplierRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	supplier, err := h.catalogUsecase.UpdateSupplier(r.Context(), id, toSupplierReq(&req))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toSupplierResponse(supplier))
}

// deleteSupplier
//
//	@Summary	Удаление поставщика
//	@Tags		suppliers
//	@Param		id	path	int	true	"ID поставщика"
//	@Success	204
//	@Failure	404	{object}	ErrorResponse
//	@Router		/suppliers/{id} [delete]
func (h *CatalogHandler) deleteSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.catalogUsecase.DeleteSupplier(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// createProduct
//
//	@Summary		Регистрация нового товара
//	@Description	Цены передаются строкой с точностью до копеек
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ProductRequest	true	"Товар"
//	@Success		201		{object}	ProductResponse
//	@Failure		400		{object}	ErrorResponse	"Ошибка валидации"
//	@Router			/products [post]
func (h *CatalogHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	product, err := h.catalogUsecase.CreateProduct(r.Context(), req.toUseCase())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, toProductResponse(product))
}

// listProducts
//
//	@Summary	Список товаров (без архивных)
//	@Tags		products
//	@Produce	json
//	@Success	200	{array}	ProductResponse
//	@Router		/products [get]
func (h *CatalogHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalogUsecase.ListProducts(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	WriteSuccess(w, http.StatusOK, mapSlice(products, toProductResponse))
}

// getProduct
//
//	@Summary	Товар по id
//	@Tags		products
//	@Produce	json
//	@Param		id	path		int	true	"ID товара"
//	@Success	200	{object}	ProductResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/products/{id} [get]
func (h *CatalogHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	product, err := h.catalogUsecase.GetProduct(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toProductResponse(product))
}

// updateProduct
//
//	@Summary	Обновление товара
//	@Tags		products
//	@Accept		json
//	@Produce	json
//	@Param		id		path		int				true	"ID товара"
//	@Param		body	body		ProductRequest	true	"Товар"
//	@Success	200		{object}	ProductResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	404		{object}	ErrorResponse
//	@Router		/products/{id} [put]
func (h *CatalogHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req ProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	product, err := h.catalogUsecase.UpdateProduct(r.Context(), id, req.toUseCase())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toProductResponse(product))
}

// deleteProduct
//
//	@Summary		Архивация товара
//	@Description	Товар скрывается из каталога, история продаж сохраняется
//	@Tags			products
//	@Param			id	path	int	true	"ID товара"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Router			/products/{id} [delete]
func (h *CatalogHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.catalogUsecase.DeleteProduct(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toSupplierReq(req *SupplierRequest) *usecase.SupplierReq {
	return &usecase.SupplierReq{Name: req.Name, Contact: req.Contact, Address: req.Address}
}
