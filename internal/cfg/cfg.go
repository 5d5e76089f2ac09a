package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/DRSN-tech/pos-backend/pkg/logger"
	"github.com/jimlawless/whereami"
)

type Config struct {
	Minio    *MinIOCfg
	Http     *HTTPConfig
	Grpc     *GRPCConfig
	Db       *PGDBCfg
	Redis    *RedisCfg
	Kafka    *KafkaCfg
	Outbox   *OutboxCfg
	Sale     *SaleCfg
	Report   *ReportCfg
	Invoice  *InvoiceCfg
	Shutdown time.Duration
}

type KafkaCfg struct {
	Topic             string
	Brokers           []string
	NetworkMode       string
	Partitions        int
	ReplicationFactor int
}

// OutboxCfg — параметры воркера, публикующего события продаж.
type OutboxCfg struct {
	BatchSize    int
	PollInterval time.Duration // страховочный опрос, если NOTIFY потерялся
	StaleAfter   time.Duration // через сколько событие в processing считается зависшим
}

type MinIOCfg struct {
	MinioEndpoint     string // Адрес конечной точки Minio
	BucketName        string // Бакет для отчётов
	MinioRootUser     string // Имя пользователя для доступа к Minio
	MinioRootPassword string // Пароль для доступа к Minio
	MinioUseSSL       bool
}

type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type GRPCConfig struct {
	Port        string
	NetworkMode string
}

type PGDBCfg struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN возвращает строку подключения в формате key=value.
func (c *PGDBCfg) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

type RedisCfg struct {
	Addr         string
	Password     string
	User         string
	DB           int
	MaxRetries   int
	DialTimeout  time.Duration
	Timeout      time.Duration
	ProductTTL   time.Duration
	DashboardTTL time.Duration
}

// SaleCfg — повтор транзакции проведения при конфликте.
type SaleCfg struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// ReportCfg — часовой пояс аналитики и хранение XLSX-отчётов.
type ReportCfg struct {
	Location   *time.Location
	KeyPrefix  string
	PresignTTL time.Duration
}

// InvoiceCfg — оформление чека для отправки покупателю.
type InvoiceCfg struct {
	ShopName    string
	CountryCode string
	Currency    string
}

// Load безопасно загружает конфигурацию и возвращает ошибку в случае неудачи.
func Load(log logger.Logger) (*Config, error) {
	db, err := loadPGDBCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	http, err := loadHTTPConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	redis, err := loadRedisCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minio, err := loadMinIOCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	kafka, err := loadKafkaCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	outbox, err := loadOutboxCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	sale, err := loadSaleCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	report, err := loadReportCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	shutdown, err := parseDurationEnv("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, e.Wrap("SHUTDOWN_TIMEOUT", err)
	}

	return &Config{
		Minio:    minio,
		Http:     http,
		Grpc:     loadGRPCConfig(),
		Db:       db,
		Redis:    redis,
		Kafka:    kafka,
		Outbox:   outbox,
		Sale:     sale,
		Report:   report,
		Invoice:  loadInvoiceCfg(),
		Shutdown: shutdown,
	}, nil
}

// LoadDB загружает только настройки PostgreSQL (для команды migrate).
func LoadDB(log logger.Logger) (*PGDBCfg, error) {
	return loadPGDBCfg(log)
}

// LoadReport загружает то, что нужно для выгрузки отчёта из CLI: PostgreSQL, MinIO и параметры отчёта.
func LoadReport(log logger.Logger) (*Config, error) {
	db, err := loadPGDBCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minio, err := loadMinIOCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	report, err := loadReportCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Config{Db: db, Minio: minio, Report: report}, nil
}

func loadKafkaCfg() (*KafkaCfg, error) {
	const (
		defaultPartitions        = 3
		defaultReplicationFactor = 1
		defaultNetworkMode       = "tcp"
	)

	brokerStr := os.Getenv("KAFKA_BROKERS")
	if brokerStr == "" {
		return nil, fmt.Errorf("KAFKA_BROKERS environment variable is required")
	}

	brokers := make([]string, 0)
	for _, b := range strings.Split(brokerStr, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}

	topic := getEnvOrDefault("KAFKA_TOPIC", "pos.sales")

	partitions, err := parseIntEnv("KAFKA_PARTITIONS", defaultPartitions)
	if err != nil {
		return nil, e.Wrap("KAFKA_PARTITIONS", err)
	}

	replicationFactor, err := parseIntEnv("REPLICATION_FACTOR", defaultReplicationFactor)
	if err != nil {
		return nil, e.Wrap("REPLICATION_FACTOR", err)
	}

	return &KafkaCfg{
		Brokers:           brokers,
		Topic:             topic,
		Partitions:        partitions,
		ReplicationFactor: replicationFactor,
		NetworkMode:       getEnvOrDefault("KAFKA_NETWORK_MODE", defaultNetworkMode),
	}, nil
}

func loadOutboxCfg() (*OutboxCfg, error) {
	batchSize, err := parseIntEnv("OUTBOX_BATCH_SIZE", 10)
	if err != nil {
		return nil, e.Wrap("OUTBOX_BATCH_SIZE", err)
	}

	pollInterval, err := parseDurationEnv("OUTBOX_POLL_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, e.Wrap("OUTBOX_POLL_INTERVAL", err)
	}

	staleAfter, err := parseDurationEnv("OUTBOX_STALE_AFTER", 5*time.Minute)
	if err != nil {
		return nil, e.Wrap("OUTBOX_STALE_AFTER", err)
	}

	return &OutboxCfg{
		BatchSize:    batchSize,
		PollInterval: pollInterval,
		StaleAfter:   staleAfter,
	}, nil
}

func loadMinIOCfg(log logger.Logger) (*MinIOCfg, error) {
	const (
		defaultUseSSL   = false
		defaultEndpoint = "minio:9000"
		defaultBucket   = "pos-reports"
	)

	useSSL, err := strconv.ParseBool(getEnvOrDefault("MINIO_USE_SSL", strconv.FormatBool(defaultUseSSL)))
	if err != nil {
		log.Errorf(err, "invalid MINIO_USE_SSL")
		return nil, err
	}

	return &MinIOCfg{
		MinioEndpoint:     getEnvOrDefault("MINIO_ENDPOINT", defaultEndpoint),
		BucketName:        getEnvOrDefault("BUCKET_NAME", defaultBucket),
		MinioRootUser:     getEnv("MINIO_ROOT_USER"),
		MinioRootPassword: getEnv("MINIO_ROOT_PASSWORD"),
		MinioUseSSL:       useSSL,
	}, nil
}

func loadHTTPConfig(log logger.Logger) (*HTTPConfig, error) {
	const (
		defaultPort         = "8080"
		defaultReadTimeout  = 5 * time.Second
		defaultWriteTimeout = 30 * time.Second
		defaultIdleTimeout  = 60 * time.Second
	)

	port := getEnvOrDefault("HTTP_PORT", defaultPort)

	readTimeout, err := parseDurationEnv("HTTP_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("HTTP_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_WRITE_TIMEOUT")
		return nil, err
	}

	idleTimeout, err := parseDurationEnv("KEEP_ALIVE", defaultIdleTimeout)
	if err != nil {
		log.Errorf(err, "invalid KEEP_ALIVE")
		return nil, err
	}

	return &HTTPConfig{
		Port:         port,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}, nil
}

func loadGRPCConfig() *GRPCConfig {
	const (
		defaultPort        = "8091"
		defaultNetworkMode = "tcp"
	)

	return &GRPCConfig{
		Port:        getEnvOrDefault("GRPC_PORT", defaultPort),
		NetworkMode: getEnvOrDefault("GRPC_NETWORK_MODE", defaultNetworkMode),
	}
}

func loadPGDBCfg(log logger.Logger) (*PGDBCfg, error) {
	const (
		defaultHost    = "localhost"
		defaultPort    = "5432"
		defaultSSLMode = "disable"
	)

	user := getEnv("POSTGRES_USER")
	if user == "" {
		err := fmt.Errorf("POSTGRES_USER is required")
		log.Errorf(err, "missing POSTGRES_USER")
		return nil, err
	}

	password := getEnv("POSTGRES_PASSWORD")
	if password == "" {
		err := fmt.Errorf("POSTGRES_PASSWORD is required")
		log.Errorf(err, "missing POSTGRES_PASSWORD")
		return nil, err
	}

	dbName := getEnv("POSTGRES_DB")
	if dbName == "" {
		err := fmt.Errorf("POSTGRES_DB is required")
		log.Errorf(err, "missing POSTGRES_DB")
		return nil, err
	}

	return &PGDBCfg{
		Host:     getEnvOrDefault("POSTGRES_HOST", defaultHost),
		Port:     getEnvOrDefault("POSTGRES_PORT", defaultPort),
		User:     user,
		Password: password,
		DBName:   dbName,
		SSLMode:  getEnvOrDefault("SSL_MODE", defaultSSLMode),
	}, nil
}

func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultAddr         = "localhost:6379"
		defaultDB           = 0
		defaultMaxRetries   = 3
		defaultDialTimeout  = 5 * time.Second
		defaultReadTimeout  = 3 * time.Second
		defaultWriteTimeout = 3 * time.Second
		defaultProductTTL   = 3 * time.Minute
		defaultDashboardTTL = 30 * time.Second
	)

	addr := getEnvOrDefault("REDIS_ADDR", defaultAddr)
	password := getEnv("REDIS_PASSWORD")
	user := getEnv("REDIS_USER")

	db, err := parseIntEnv("REDIS_DB_ID", defaultDB)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DB_ID")
		return nil, err
	}

	maxRetries, err := parseIntEnv("REDIS_MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid REDIS_MAX_RETRIES")
		return nil, err
	}

	dialTimeout, err := parseDurationEnv("REDIS_DIAL_TIMEOUT", defaultDialTimeout)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DIAL_TIMEOUT")
		return nil, err
	}

	readTimeout, err := parseDurationEnv("REDIS_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid REDIS_READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("REDIS_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid REDIS_WRITE_TIMEOUT")
		return nil, err
	}

	productTTL, err := parseDurationEnv("PRODUCT_TTL", defaultProductTTL)
	if err != nil {
		log.Errorf(err, "invalid PRODUCT_TTL")
		return nil, err
	}

	dashboardTTL, err := parseDurationEnv("DASHBOARD_TTL", defaultDashboardTTL)
	if err != nil {
		log.Errorf(err, "invalid DASHBOARD_TTL")
		return nil, err
	}

	timeout := readTimeout
	if writeTimeout > timeout {
		timeout = writeTimeout
	}

	return &RedisCfg{
		Addr:         addr,
		Password:     password,
		User:         user,
		DB:           db,
		MaxRetries:   maxRetries,
		DialTimeout:  dialTimeout,
		Timeout:      timeout,
		ProductTTL:   productTTL,
		DashboardTTL: dashboardTTL,
	}, nil
}

func loadSaleCfg() (*SaleCfg, error) {
	const (
		defaultMaxAttempts = 5
		defaultBaseBackoff = 20 * time.Millisecond
		defaultMaxBackoff  = 500 * time.Millisecond
	)

	attempts, err := parseIntEnv("SALE_MAX_ATTEMPTS", defaultMaxAttempts)
	if err != nil {
		return nil, e.Wrap("SALE_MAX_ATTEMPTS", err)
	}
	if attempts < 1 {
		return nil, e.Wrap("SALE_MAX_ATTEMPTS", e.ErrIncorrectEnvVariable)
	}

	base, err := parseDurationEnv("SALE_BASE_BACKOFF", defaultBaseBackoff)
	if err != nil {
		return nil, e.Wrap("SALE_BASE_BACKOFF", err)
	}

	maxBackoff, err := parseDurationEnv("SALE_MAX_BACKOFF", defaultMaxBackoff)
	if err != nil {
		return nil, e.Wrap("SALE_MAX_BACKOFF", err)
	}

	return &SaleCfg{
		MaxAttempts: attempts,
		BaseBackoff: base,
		MaxBackoff:  maxBackoff,
	}, nil
}

func loadReportCfg() (*ReportCfg, error) {
	const (
		defaultTimezone   = "UTC"
		defaultKeyPrefix  = "reports"
		defaultPresignTTL = 15 * time.Minute
	)

	loc, err := time.LoadLocation(getEnvOrDefault("REPORT_TIMEZONE", defaultTimezone))
	if err != nil {
		return nil, e.Wrap("REPORT_TIMEZONE", err)
	}

	presignTTL, err := parseDurationEnv("REPORT_PRESIGN_TTL", defaultPresignTTL)
	if err != nil {
		return nil, e.Wrap("REPORT_PRESIGN_TTL", err)
	}

	return &ReportCfg{
		Location:   loc,
		KeyPrefix:  getEnvOrDefault("REPORT_KEY_PREFIX", defaultKeyPrefix),
		PresignTTL: presignTTL,
	}, nil
}

func loadInvoiceCfg() *InvoiceCfg {
	return &InvoiceCfg{
		ShopName:    getEnv("INVOICE_SHOP_NAME"),
		CountryCode: getEnvOrDefault("INVOICE_COUNTRY_CODE", "91"),
		Currency:    getEnvOrDefault("INVOICE_CURRENCY", "₹"),
	}
}

// getEnv возвращает значение переменной окружения.
// Возвращает пустую строку, если переменная не задана.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// parseDurationEnv считывает длительность или возвращает значение по умолчанию.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		return time.ParseDuration(v)
	}

	return defaultValue, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return intValue, nil
}
