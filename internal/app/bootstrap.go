package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/dnscache"

	"github.com/Gunvolt24/storefront-sync/config"
	"github.com/Gunvolt24/storefront-sync/internal/auth"
	"github.com/Gunvolt24/storefront-sync/internal/backend"
	"github.com/Gunvolt24/storefront-sync/internal/cache/tagged"
	"github.com/Gunvolt24/storefront-sync/internal/kafka"
	"github.com/Gunvolt24/storefront-sync/internal/ports"
	"github.com/Gunvolt24/storefront-sync/internal/push"
	"github.com/Gunvolt24/storefront-sync/internal/realtime"
	rest "github.com/Gunvolt24/storefront-sync/internal/transport/http"
	"github.com/Gunvolt24/storefront-sync/internal/usecase"
	"github.com/Gunvolt24/storefront-sync/internal/worker"
	"github.com/Gunvolt24/storefront-sync/pkg/logger"
	"github.com/Gunvolt24/storefront-sync/pkg/metrics"
	"github.com/Gunvolt24/storefront-sync/pkg/telemetry"
	"github.com/Gunvolt24/storefront-sync/pkg/validate"
)

// backgroundRunner — фоновые воркеры (обновление базовых списков, DNS).
type backgroundRunner interface {
	Run(ctx context.Context) error
}

// App — собранное приложение и его внешние интерфейсы (HTTP, consumer, воркеры).
type App struct {
	Logger          ports.Logger          // логгер
	HTTPServer      *http.Server          // HTTP-сервер
	MetricsServer   *http.Server          // отдельный /metrics; nil — только на основном роутере
	KafkaConsumer   ports.MessageConsumer // консьюмер change-event; nil — Kafka выключена
	Workers         backgroundRunner      // фоновые воркеры; nil — без них
	gracefulTimeout time.Duration         // время ожидания завершения HTTP-сервера
}

// Cleanup — функция освобождения ресурсов.
type Cleanup func()

// applyGinMode — устанавливает режим Gin по строке;
// неизвестное значение → debug и предупреждение в лог.
func applyGinMode(ctx context.Context, mode string, log ports.Logger) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	case "", "debug":
		gin.SetMode(gin.DebugMode)
	default:
		gin.SetMode(gin.DebugMode)
		log.Warnf(ctx, "unknown GIN_MODE=%q, fallback to debug", mode)
	}
}

// Bootstrap — собирает зависимости и возвращает приложение, функцию очистки и ошибку.
func Bootstrap(ctx context.Context, cfg *config.Config) (*App, Cleanup, error) {
	// Логгер (dev/prod режим задаётся конфигурацией).
	logg, cleanupLogger, err := logger.NewZapLogger(cfg.Logger.IsProd)
	if err != nil {
		return nil, func() {}, err
	}

	// Регистрация метрик (Prometheus).
	metrics.MustRegister()

	// Хранилище под кэшем.
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		if cErr := cleanupLogger(); cErr != nil {
			logg.Warnf(ctx, "cleanup logger: %v", cErr)
		}
		return nil, func() {}, err
	}
	logg.Infof(ctx, "cache store driver=%s", cfg.Store.Driver)

	// Трейсинг OTEL (при включённой конфигурации); по умолчанию — no-op.
	shutdownTrace := func(context.Context) error { return nil }
	if cfg.Tracing.Enabled {
		setup, tErr := telemetry.SetupTracing(ctx, cfg.Tracing.ServiceName, cfg.Tracing.Endpoint, cfg.Tracing.SampleRatio)
		if tErr != nil {
			logg.Warnf(ctx, "failed to setup tracing: %v", tErr)
		} else {
			logg.Infof(ctx, "otel tracing enabled service=%s endpoint=%s sample=%.2f",
				cfg.Tracing.ServiceName, cfg.Tracing.Endpoint, cfg.Tracing.SampleRatio)
			shutdownTrace = setup
		}
	}

	// Кэш и push-хаб.
	cache := tagged.New(store, logg,
		tagged.WithPrefix(cfg.Cache.Prefix),
		tagged.WithTagPrefix(cfg.Cache.TagPrefix),
		tagged.WithDefaultTTL(cfg.Cache.TTL),
		tagged.WithMaxTagKeys(cfg.Cache.MaxTagKeys),
	)
	hub := push.NewHub(logg,
		push.WithJoinTimeout(cfg.Push.JoinTimeout),
		push.WithAckDelay(cfg.Push.AckDelay),
	)

	// Клиент бэкенда с кэшем DNS.
	resolver := &dnscache.Resolver{}
	var tokens ports.TokenSource = backend.StaticToken(cfg.Backend.Token)
	if cfg.Backend.OAuthTokenURL != "" {
		tokens = backend.NewOAuthToken(ctx, backend.OAuthConfig{
			TokenURL:     cfg.Backend.OAuthTokenURL,
			ClientID:     cfg.Backend.OAuthClientID,
			ClientSecret: cfg.Backend.OAuthClientSecret,
			Scopes:       cfg.Backend.OAuthScopes,
		}, &http.Client{Timeout: cfg.Backend.Timeout})
		logg.Infof(ctx, "backend auth: oauth client credentials client_id=%s", cfg.Backend.OAuthClientID)
	}
	source := backend.New(cfg.Backend.BaseURL, tokens, logg,
		backend.WithResolver(resolver, cfg.Backend.Timeout))

	orderService := usecase.NewOrderService(source, cache, logg, cfg.Cache.TTL)

	// Подписки; отставшая подписка перезагружает список через сервис заказов.
	rs := realtime.New(hub, logg,
		realtime.WithTable(cfg.Realtime.Table),
		realtime.WithProbeDelay(cfg.Realtime.ProbeDelay),
		realtime.WithQueueSize(cfg.Realtime.QueueSize),
		realtime.WithResync(orderService.RefreshBaseline, cfg.Realtime.ResyncTimeout),
	)

	// abort — откат уже поднятых ресурсов при ошибке сборки.
	abort := func(err error) (*App, Cleanup, error) {
		rs.Close()
		closeStore()
		_ = shutdownTrace(context.Background())
		_ = cleanupLogger()
		return nil, func() {}, err
	}

	ingest := usecase.NewEventIngest(validate.NewEventValidator(), hub, orderService, logg, cfg.Realtime.Table)

	// Режим Gin.
	applyGinMode(ctx, cfg.HTTP.GinMode, logg)

	// Имя сервиса для otelgin (только при включённом трейсинге).
	otelServiceName := ""
	if cfg.Tracing.Enabled {
		otelServiceName = cfg.Tracing.ServiceName
	}

	handlerOpts := []rest.HandlerOption{
		rest.WithCacheAdmin(orderService),
		rest.WithStreams(rs, orderService, cfg.HTTP.StreamHeartbeat),
	}
	if cfg.Auth.Disabled {
		logg.Warnf(ctx, "auth disabled: every request is trusted")
	} else {
		verifier, vErr := auth.NewVerifier(cfg.Auth.Secret, cfg.Auth.Issuer)
		if vErr != nil {
			return abort(vErr)
		}
		handlerOpts = append(handlerOpts, rest.WithAuth(verifier))
	}

	// Роутер и HTTP-сервер.
	httpHandler := rest.NewHandler(orderService, logg, cfg.HTTP.HandlerTimeout, handlerOpts...)
	router := rest.NewRouter(httpHandler, cfg.HTTP.StaticDir, otelServiceName)

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	var metricsSrv *http.Server
	if addr := strings.TrimSpace(cfg.Metrics.Addr); addr != "" && addr != cfg.HTTP.Addr {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout}
	}

	// Консьюмер Kafka (если включён).
	var consumer *kafka.Consumer
	if cfg.Kafka.Enabled {
		c, kErr := kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers:        cfg.Kafka.Brokers,
			GroupID:        cfg.Kafka.GroupID,
			Topic:          cfg.Kafka.Topic,
			StartOffset:    cfg.Kafka.StartOffset,
			MaxWait:        cfg.Kafka.MaxWait,
			ProcessTimeout: cfg.Kafka.ProcessTimeout,
			RetryInitial:   cfg.Kafka.RetryInitial,
			RetryMax:       cfg.Kafka.RetryMax,
		}, ingest, logg)
		if kErr != nil {
			return abort(kErr)
		}
		consumer = c
	} else {
		logg.Warnf(ctx, "kafka disabled: change events are not consumed")
	}

	// Фоновые воркеры.
	runner := worker.NewRunner(logg,
		worker.NewRefresher(rs, orderService, cache, cfg.Realtime.RefreshInterval, logg),
		worker.NewDNSRefresher(resolver, cfg.Backend.DNSRefresh),
	)

	app := &App{
		Logger:          logg,
		HTTPServer:      httpSrv,
		MetricsServer:   metricsSrv,
		Workers:         runner,
		gracefulTimeout: cfg.HTTP.GracefulTimeout,
	}
	if consumer != nil {
		app.KafkaConsumer = consumer
	}

	// Очистка ресурсов (в обратном порядке).
	cleanup := func() {
		if terr := shutdownTrace(context.Background()); terr != nil {
			logg.Warnf(ctx, "shutdown tracing: %v", terr)
		}
		if consumer != nil {
			if err := consumer.Close(); err != nil {
				logg.Warnf(ctx, "kafka consumer close error: %v", err)
			}
		}
		rs.Close()
		closeStore()
		if cerr := cleanupLogger(); cerr != nil {
			logg.Warnf(ctx, "cleanup logger: %v", cerr)
		}
	}

	return app, cleanup, nil
}

// Run — запускает HTTP-сервер, консьюмера и воркеры; ждёт отмены контекста или ошибки и останавливает их.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 4)

	// Фоновые компоненты останавливаются общим контекстом.
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	// Запуск консьюмера.
	if a.KafkaConsumer != nil {
		go func() {
			a.Logger.Infof(ctx, "kafka consumer starting")
			if err := a.KafkaConsumer.Run(runCtx); err != nil {
				errCh <- err
			}
		}()
	}

	// Запуск воркеров.
	if a.Workers != nil {
		go func() {
			if err := a.Workers.Run(runCtx); err != nil {
				errCh <- err
			}
		}()
	}

	// Запуск HTTP-сервера.
	go func() {
		a.Logger.Infof(ctx, "http server starting (addr=%s)", a.HTTPServer.Addr)
		if err := a.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if a.MetricsServer != nil {
		go func() {
			a.Logger.Infof(ctx, "metrics server starting (addr=%s)", a.MetricsServer.Addr)
			if err := a.MetricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	// Ожидание сигнала остановки или фоновой ошибки.
	select {
	case <-ctx.Done():
		a.Logger.Infof(ctx, "shutdown requested, starting graceful shutdown")
	case err := <-errCh:
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			a.Logger.Infof(ctx, "background component stopped: %v", err)
		} else {
			a.Logger.Warnf(ctx, "background error: %v", err)
		}
	}
	cancelRun()

	gt := a.gracefulTimeout
	if gt <= 0 {
		gt = 5 * time.Second
	}

	// Корректная остановка HTTP-серверов.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), gt)
	defer cancel()

	if err := a.HTTPServer.Shutdown(shutdownCtx); err != nil {
		a.Logger.Warnf(ctx, "http server shutdown failed: %v", err)
	} else {
		a.Logger.Infof(ctx, "http server stopped gracefully")
	}
	if a.MetricsServer != nil {
		if err := a.MetricsServer.Shutdown(shutdownCtx); err != nil {
			a.Logger.Warnf(ctx, "metrics server shutdown failed: %v", err)
		}
	}

	// Остановка Kafka-консьюмера
	if a.KafkaConsumer != nil {
		if err := a.KafkaConsumer.Close(); err != nil {
			a.Logger.Warnf(ctx, "kafka consumer close error: %v", err)
		}
	}

	a.Logger.Infof(ctx, "service stopped")
	return nil
}
