package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/pos-backend/internal/cfg"
	v1Grpc "github.com/DRSN-tech/pos-backend/internal/delivery/v1/grpc"
	v1Http "github.com/DRSN-tech/pos-backend/internal/delivery/v1/http"
	"github.com/DRSN-tech/pos-backend/internal/infrastructure/kafka"
	"github.com/DRSN-tech/pos-backend/internal/invoice"
	s3Repo "github.com/DRSN-tech/pos-backend/internal/repository/minio"
	"github.com/DRSN-tech/pos-backend/internal/repository/pgdb"
	pgdbConv "github.com/DRSN-tech/pos-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/pos-backend/internal/repository/redis"
	"github.com/DRSN-tech/pos-backend/internal/usecase"
	"github.com/DRSN-tech/pos-backend/pkg/closer"
	"github.com/DRSN-tech/pos-backend/pkg/clients"
	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/DRSN-tech/pos-backend/pkg/jitter"
	"github.com/DRSN-tech/pos-backend/pkg/logger"
	"github.com/DRSN-tech/pos-backend/pkg/postgres"
	"github.com/DRSN-tech/pos-backend/pkg/tr"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

const (
	startupTimeout     = 10 * time.Second
	topicCreateTimeout = 10 * time.Second
)

// App — собранное приложение: HTTP и gRPC серверы и воркер outbox поверх общих зависимостей.
type App struct {
	cfg     *config.Config
	logger  logger.Logger
	closer  *closer.Closer
	httpSrv *v1Http.Server
	grpcSrv *v1Grpc.GRPCServer
	worker  *kafka.OutboxWorker
}

// NewApp подключается ко всем внешним системам, применяет миграции и собирает слои.
// Всё открытое регистрируется в closer, в том числе при ошибке на полпути.
func NewApp(cfg *config.Config, log logger.Logger) (_ *App, err error) {
	cl := closer.NewCloser(0)
	defer func() {
		if err != nil {
			if closeErr := cl.Close(context.Background()); closeErr != nil {
				log.Warnf("partial startup cleanup: %v", closeErr)
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	db, err := initPGDB(ctx, log, cfg.Db)
	if err != nil {
		return nil, err
	}
	cl.AddSimple("postgres", func() error { db.Close(); return nil })

	redisClient := clients.NewRedisClient(cfg.Redis)
	cl.AddSimple("redis", redisClient.Close)
	if err := redisClient.Ping(ctx); err != nil {
		log.Errorf(err, "failed to connect to redis")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minioClient, err := clients.NewMinIOClient(cfg.Minio)
	if err != nil {
		log.Errorf(err, "failed to initialize minio client")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	if err := clients.EnsureBucket(ctx, minioClient, cfg.Minio.BucketName); err != nil {
		log.Errorf(err, "failed to initialize MinIO bucket")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	producer := kafka.NewProducer(log, cfg.Kafka)
	cl.AddSimple("kafka producer", producer.Close)
	if err := producer.EnsureTopic(topicCreateTimeout); err != nil {
		// События копятся в outbox и уйдут, когда брокер станет доступен
		log.Warnf("Kafka topic check failed, outbox will retry: %v", err)
	}

	productRepo := pgdb.NewProductRepo(db.Pool, pgdbConv.ProductConverter{})
	categoryRepo := pgdb.NewCategoryRepo(db.Pool, pgdbConv.CategoryConverter{})
	supplierRepo := pgdb.NewSupplierRepo(db.Pool, pgdbConv.SupplierConverter{})
	saleRepo := pgdb.NewSaleRepo(db.Pool, pgdbConv.SaleConverter{}, pgdbConv.ProductConverter{})
	outboxRepo := pgdb.NewOutboxEventRepo(db.Pool, pgdbConv.OutboxEventConverter{})
	cacheRepo := redis.NewCacheRepo(redisClient, cfg.Redis, log)
	reportRepo := s3Repo.NewReportRepo(minioClient, cfg.Minio)

	catalogUC := usecase.NewCatalogUC(productRepo, categoryRepo, supplierRepo, cacheRepo, log)
	saleUC := usecase.NewSaleUC(
		tr.NewManager(db.Pool),
		productRepo,
		saleRepo,
		outboxRepo,
		cacheRepo,
		invoice.NewBuilder(cfg.Invoice.ShopName, cfg.Invoice.CountryCode, cfg.Invoice.Currency, cfg.Report.Location),
		jitter.Policy{Attempts: cfg.Sale.MaxAttempts, Base: cfg.Sale.BaseBackoff, Max: cfg.Sale.MaxBackoff},
		log,
	)
	analyticsUC := usecase.NewAnalyticsUC(saleRepo, cacheRepo, reportRepo, usecase.ReportOptions{
		Location:   cfg.Report.Location,
		KeyPrefix:  cfg.Report.KeyPrefix,
		PresignTTL: cfg.Report.PresignTTL,
	}, log)

	worker := kafka.NewOutboxWorker(outboxRepo, log, producer, cfg.Outbox, db.Dsn)
	cl.AddSimple("outbox worker", func() error { worker.Stop(); return nil })

	grpcSrv := v1Grpc.NewGRPCServer(cfg.Grpc, log)
	grpcSrv.RegisterServices(saleUC)
	cl.Add("grpc server", grpcSrv.Stop)

	router := v1Http.NewRouter(chi.NewRouter(), log)
	router.Init(catalogUC, saleUC, analyticsUC)
	httpSrv := v1Http.NewServer(router.Handler(), cfg.Http)
	cl.Add("http server", httpSrv.Stop)

	return &App{
		cfg:     cfg,
		logger:  log,
		closer:  cl,
		httpSrv: httpSrv,
		grpcSrv: grpcSrv,
		worker:  worker,
	}, nil
}

// Run запускает серверы и воркер и блокируется до сигнала остановки или ошибки сервера.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.worker.Start(ctx)

	errCh := make(chan error, 2)
	go func() {
		a.logger.Infof("gRPC server starting on %s:%s", a.cfg.Grpc.NetworkMode, a.cfg.Grpc.Port)
		if err := a.grpcSrv.Start(); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "server fatal error")
	case <-ctx.Done():
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Shutdown)
	defer cancel()

	if err := a.closer.Close(shutdownCtx); err != nil {
		a.logger.Errorf(err, "shutdown finished with errors")
	}

	a.logger.Infof("Application shutdown complete")
	return appErr
}

// Migrate применяет миграции и завершается.
func Migrate(ctx context.Context, cfg *config.PGDBCfg, log logger.Logger) error {
	db, err := initPGDB(ctx, log, cfg)
	if err != nil {
		return err
	}
	db.Close()

	return nil
}

// ReportOptions — куда выгрузить отчёт из CLI.
type ReportOptions struct {
	Out   io.Writer
	Store bool // дополнительно сохранить в MinIO и вывести ссылку
}

// GenerateReport строит XLSX-отчёт без запуска серверов.
func GenerateReport(ctx context.Context, cfg *config.Config, log logger.Logger, opts ReportOptions) (*usecase.StoredReport, error) {
	db, err := postgres.Connect(ctx, cfg.Db)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer db.Close()

	saleRepo := pgdb.NewSaleRepo(db.Pool, pgdbConv.SaleConverter{}, pgdbConv.ProductConverter{})

	var storage usecase.ReportStorage
	if opts.Store {
		minioClient, err := clients.NewMinIOClient(cfg.Minio)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		if err := clients.EnsureBucket(ctx, minioClient, cfg.Minio.BucketName); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		storage = s3Repo.NewReportRepo(minioClient, cfg.Minio)
	}

	analyticsUC := usecase.NewAnalyticsUC(saleRepo, usecase.NoopCache{}, storage, usecase.ReportOptions{
		Location:   cfg.Report.Location,
		KeyPrefix:  cfg.Report.KeyPrefix,
		PresignTTL: cfg.Report.PresignTTL,
	}, log)

	if opts.Out != nil {
		if err := analyticsUC.WriteReport(ctx, opts.Out); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
	}

	if !opts.Store {
		return nil, nil
	}

	return analyticsUC.StoreReport(ctx)
}

func initPGDB(ctx context.Context, log logger.Logger, cfg *config.PGDBCfg) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(ctx, cfg)
	if err != nil {
		log.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(log); err != nil {
		db.Close()
		log.Errorf(err, "failed to run migrations")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}
