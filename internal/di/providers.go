package di

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"MacroPull/internal/domain/models"
	"MacroPull/internal/domain/repository"
	"MacroPull/internal/domain/service"
	"MacroPull/internal/handler/api"
	mid "MacroPull/internal/middleware"
	internalrepo "MacroPull/internal/repository"
	"MacroPull/internal/service/fred"
	"MacroPull/internal/service/notify"
	"MacroPull/internal/service/ratelimit"
	"MacroPull/internal/services/analytics"
	"MacroPull/internal/services/features"
	"MacroPull/internal/services/forecast"
	"MacroPull/internal/usecase"
	"MacroPull/pkg/cache"
	pkgch "MacroPull/pkg/clickhouse"
	"MacroPull/pkg/config"
	xhttp "MacroPull/pkg/http"
	pkgkafka "MacroPull/pkg/kafka"
	applogger "MacroPull/pkg/logger"
	"MacroPull/pkg/metrics"
	"MacroPull/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache creates the key/value backend for stats, thresholds and forecasts.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	switch cfg.Store.Backend {
	case "redis", "layered":
		rc, err := cache.NewRedisCache(
			cache.WithRedisAddr(cfg.Store.Redis.Addr),
			cache.WithRedisPassword(cfg.Store.Redis.Password),
			cache.WithRedisDB(cfg.Store.Redis.DB),
			cache.WithRedisPrefix(cfg.Store.Redis.Prefix),
			cache.WithRedisPool(10, 2, 4*time.Second),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		if cfg.Store.Backend == "layered" {
			return cache.NewLayeredCache(rc,
				cache.WithLayeredMemorySize(5000),
				cache.WithLayeredMemoryTTL(time.Minute),
			), nil
		}
		return rc, nil
	default:
		return cache.NewMemoryCache(
			cache.WithMemoryMaxSize(10000),
			cache.WithMemoryCleanup(5*time.Minute),
		), nil
	}
}

func ProvideStatsStore(c cache.Service) repository.StatsStore {
	return internalrepo.NewCacheStatsStore(c)
}

// ProvideThresholdStore creates the threshold table and seeds catalog defaults.
func ProvideThresholdStore(c cache.Service, cfg *config.Config) (*internalrepo.CacheThresholdStore, error) {
	s := internalrepo.NewCacheThresholdStore(c)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Seed(ctx, cfg.Catalog); err != nil {
		return nil, fmt.Errorf("seed thresholds: %w", err)
	}
	return s, nil
}

func ProvideForecastStore(c cache.Service, cfg *config.Config) repository.ForecastStore {
	return internalrepo.NewCacheForecastStore(c, cfg.Store.ForecastTTL)
}

func ProvideSeriesStore(cfg *config.Config) *internalrepo.SeriesStore {
	return internalrepo.NewSeriesStore(models.NormalizeFrequency(cfg.Pipeline.Frequency))
}

// ProvideDataSource picks FRED or the offline CSV directory.
func ProvideDataSource(cfg *config.Config, l *applogger.Logger) repository.DataSource {
	if cfg.Source.Type == "csv" {
		return fred.NewCSVSource(cfg.Source.CSVDir)
	}
	if cfg.FRED.APIKey == "" {
		l.Warn("FRED api key not set, fetches will fail")
	}
	return fred.New(cfg.FRED.APIKey,
		fred.WithBaseURL(cfg.FRED.BaseURL),
		fred.WithObservationStart(cfg.FRED.Start),
		fred.WithHTTPClient(xhttp.NewClient(xhttp.WithTimeout(cfg.FRED.Timeout))),
		fred.WithRateLimit(cfg.FRED.RateLimit, cfg.FRED.Burst),
		fred.WithLogger(l),
	)
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when the archive is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.Loader.Archive {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(4, 2),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideArchive creates the observation archive and its schema. It returns a nil
// archive when ClickHouse is disabled.
func ProvideArchive(ch *pkgch.Client, cfg *config.Config, l *applogger.Logger) (repository.ObservationArchive, error) {
	if ch == nil {
		return nil, nil
	}
	archive := internalrepo.NewCHObservationArchive(ch, "", l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := archive.Init(ctx, cfg.ClickHouse.Database); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return archive, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when alert publishing is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	k := cfg.Alerts.Kafka
	if !k.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(k.Brokers),
		pkgkafka.WithCompression(k.Compression),
		pkgkafka.WithRequiredAcks(k.RequiredAcks),
		pkgkafka.WithMaxAttempts(k.MaxAttempts),
		pkgkafka.WithBatchSize(1),
		pkgkafka.WithBatchTimeout(10*time.Millisecond),
		pkgkafka.WithTimeouts(k.WriteTimeout, k.WriteTimeout),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithAutoCreateTopic(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideAlertHub creates the websocket broadcast hub, or nil when disabled.
func ProvideAlertHub(cfg *config.Config, l *applogger.Logger) *notify.Hub {
	if !cfg.Alerts.Websocket {
		return nil
	}
	return notify.NewHub(l)
}

// ProvideNotifiers assembles every enabled alert channel. The log channel is always on.
func ProvideNotifiers(cfg *config.Config, l *applogger.Logger, producer *pkgkafka.Producer, hub *notify.Hub) []service.AlertNotifier {
	out := []service.AlertNotifier{notify.NewLogNotifier(l)}
	if producer != nil {
		out = append(out, notify.NewKafkaNotifier(producer, cfg.Alerts.Kafka.Topic))
	}
	if hub != nil {
		out = append(out, hub)
	}
	return out
}

func ProvideAlertPipeline(cfg *config.Config, notifiers []service.AlertNotifier, m repository.Metrics, l *applogger.Logger) *mid.AlertPipeline {
	return mid.NewAlertPipeline(notifiers, m,
		mid.WithBufferSize(cfg.Alerts.BufferSize),
		mid.WithCooldown(cfg.Alerts.Cooldown),
		mid.WithNotifyTimeout(cfg.Alerts.Timeout),
		mid.WithRetry(2, 100*time.Millisecond),
		mid.WithPipelineLogger(l),
	)
}

func ProvideDifferencingEngine(
	cfg *config.Config,
	stats repository.StatsStore,
	thresholds repository.ThresholdStore,
	pipeline *mid.AlertPipeline,
	l *applogger.Logger,
	m repository.Metrics,
) *features.DifferencingEngine {
	names := make(map[string]string, len(cfg.Catalog))
	for _, s := range cfg.Catalog {
		names[s.ID] = s.Name
	}
	return features.NewDifferencingEngine(stats, thresholds, pipeline, l, m, features.WithSeriesNames(names))
}

func ProvideInverter(cfg *config.Config, stats repository.StatsStore, l *applogger.Logger) *forecast.Inverter {
	return forecast.NewInverter(stats, models.NormalizeFrequency(cfg.Pipeline.DefaultFrequency), l)
}

func ProvideSeriesLoader(
	cfg *config.Config,
	source repository.DataSource,
	archive repository.ObservationArchive,
	store *internalrepo.SeriesStore,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.SeriesLoader {
	return usecase.NewSeriesLoader(source, archive, store, cfg.Catalog,
		models.NormalizeFrequency(cfg.Pipeline.Frequency), cfg.Loader.Lookback, m, l)
}

func ProvideAnalysisUseCase(cfg *config.Config, store *internalrepo.SeriesStore, engine *features.DifferencingEngine, m repository.Metrics) *usecase.AnalysisUseCase {
	return usecase.NewAnalysisUseCase(store, engine, cfg.Catalog, m)
}

func ProvideForecastUseCase(
	cfg *config.Config,
	store *internalrepo.SeriesStore,
	engine *features.DifferencingEngine,
	inverter *forecast.Inverter,
	results repository.ForecastStore,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.ForecastUseCase {
	return usecase.NewForecastUseCase(store, engine, inverter, results, cfg.Catalog,
		cfg.Pipeline.MaxLags, cfg.Pipeline.Steps, m, l)
}

func ProvideImpulseUseCase(cfg *config.Config, store *internalrepo.SeriesStore, m repository.Metrics) *usecase.ImpulseUseCase {
	return usecase.NewImpulseUseCase(store, cfg.Catalog, cfg.Pipeline.MaxLags, m)
}

func ProvideVolatilityModeler(cfg *config.Config) service.VolatilityModeler {
	return analytics.NewHTTPGarchModeler(cfg.Volatility.ServiceURL, cfg.Volatility.Timeout)
}

func ProvideVolatilityUseCase(cfg *config.Config, store *internalrepo.SeriesStore, modeler service.VolatilityModeler, m repository.Metrics) *usecase.VolatilityUseCase {
	return usecase.NewVolatilityUseCase(store, modeler, cfg.Catalog, m)
}

func ProvideAlertUseCase(cfg *config.Config, thresholds repository.ThresholdStore, pipeline *mid.AlertPipeline) *usecase.AlertUseCase {
	return usecase.NewAlertUseCase(thresholds, pipeline, cfg.Catalog)
}

func ProvideFitLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Server.FitRateLimit, cfg.Server.FitBurst)
}

// ProvideDashboardHandler builds the HTTP surface. A nil hub leaves the alert stream unregistered.
func ProvideDashboardHandler(
	analysis *usecase.AnalysisUseCase,
	forecaster *usecase.ForecastUseCase,
	impulse *usecase.ImpulseUseCase,
	volatility *usecase.VolatilityUseCase,
	alerts *usecase.AlertUseCase,
	loader *usecase.SeriesLoader,
	hub *notify.Hub,
	limiter *ratelimit.Limiter,
	l *applogger.Logger,
) *api.DashboardHandler {
	var stream http.Handler
	if hub != nil {
		stream = hub
	}
	return api.NewDashboardHandler(analysis, forecaster, impulse, volatility, alerts, loader, stream, limiter, l)
}

// ProvideScheduler runs the loader on the configured cron schedule.
func ProvideScheduler(cfg *config.Config, loader *usecase.SeriesLoader, l *applogger.Logger) *usecase.RefreshScheduler {
	job := usecase.RefreshFunc(func(ctx context.Context) error {
		_, err := loader.Refresh(ctx)
		return err
	})
	return usecase.NewRefreshScheduler(job, cfg.Loader.Timeout, l)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	dashboard *api.DashboardHandler,
	pipeline *mid.AlertPipeline,
	scheduler *usecase.RefreshScheduler,
	c cache.Service,
	archive repository.ObservationArchive,
	producer *pkgkafka.Producer,
	hub *notify.Hub,
) *server.App {
	return server.New(cfg, l, []xhttp.Handler{dashboard}, pipeline, scheduler, server.Infra{
		Cache:    c,
		Archive:  archive,
		Producer: producer,
		Hub:      hub,
	})
}
