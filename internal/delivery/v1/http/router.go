package http

import (
	"net/http"
	"time"

	_ "github.com/DRSN-tech/pos-backend/docs" // Регистрация swagger-спецификации
	"github.com/DRSN-tech/pos-backend/internal/usecase"
	"github.com/DRSN-tech/pos-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

func (r *Router) Init(catalogUC usecase.CatalogUC, saleUC usecase.SaleUC, analyticsUC usecase.AnalyticsUC) {
	r.router.Use(middleware.RequestID)
	r.router.Use(middleware.RealIP)
	r.router.Use(accessLog(r.logger))
	r.router.Use(middleware.Recoverer)

	r.router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.router.Route("/api/v1", func(v1 chi.Router) {
		catalogHandler := NewCatalogHandler(catalogUC, r.logger)
		saleHandler := NewSaleHandler(saleUC, r.logger)
		analyticsHandler := NewAnalyticsHandler(analyticsUC, r.logger)

		registerCategoryRoutes(v1, catalogHandler)
		registerSupplierRoutes(v1, catalogHandler)
		registerProductRoutes(v1, catalogHandler, saleHandler)
		registerSaleRoutes(v1, saleHandler)
		registerAnalyticsRoutes(v1, analyticsHandler)
	})
}

func (r *Router) Handler() http.Handler {
	return r.router
}

func registerCategoryRoutes(router chi.Router, h *CatalogHandler) {
	router.Route("/categories", func(c chi.Router) {
		c.Get("/", h.listCategories)
		c.Post("/", h.createCategory)
		c.Get("/{id}", h.getCategory)
		c.Put("/{id}", h.updateCategory)
		c.Delete("/{id}", h.deleteCategory)
	})
}

func registerSupplierRoutes(router chi.Router, h *CatalogHandler) {
	router.Route("/suppliers", func(s chi.Router) {
		s.Get("/", h.listSuppliers)
		s.Post("/", h.createSupplier)
		s.Get("/{id}", h.getSupplier)
		s.Put("/{id}", h.updateSupplier)
		s.Delete("/{id}", h.deleteSupplier)
	})
}

func registerProductRoutes(router chi.Router, h *CatalogHandler, sh *SaleHandler) {
	router.Route("/products", func(pr chi.Router) {
		pr.Get("/", h.listProducts)
		pr.Post("/", h.createProduct)
		pr.Get("/{id}", h.getProduct)
		pr.Put("/{id}", h.updateProduct)
		pr.Delete("/{id}", h.deleteProduct)
		pr.Get("/{id}/stock", sh.getStock)
		pr.Post("/{id}/stock", sh.adjustStock)
	})
}

func registerSaleRoutes(router chi.Router, h *SaleHandler) {
	router.Route("/sales", func(s chi.Router) {
		s.Get("/", h.listSales)
		s.Post("/", h.commitSale)
		s.Get("/{id}", h.getSale)
		s.Get("/{id}/share-link", h.shareLink)
	})
}

func registerAnalyticsRoutes(router chi.Router, h *AnalyticsHandler) {
	router.Get("/dashboard", h.dashboard)
	router.Get("/reports/sales.xlsx", h.downloadReport)
	router.Post("/reports", h.storeReport)
}

// accessLog пишет одну строку на запрос: метод, путь, статус, размер и длительность.
func accessLog(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				log.Infof("%s %s -> %d (%d bytes) in %s, request_id: %s",
					r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(), time.Since(start),
					middleware.GetReqID(r.Context()))
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
