package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/blockmap/internal/api"
	"github.com/annel0/blockmap/internal/app"
	"github.com/annel0/blockmap/internal/config"
	"github.com/annel0/blockmap/internal/eventbus"
	"github.com/annel0/blockmap/internal/logging"
	"github.com/annel0/blockmap/internal/observability"
	"github.com/annel0/blockmap/internal/spatial"
	"github.com/annel0/blockmap/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации")
	flag.Parse()

	// Инициализируем систему логирования
	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	logging.Info("🗺️  Запуск BlockMap Server (палитра блоков + пространственные запросы)...")

	// === КОНФИГУРАЦИЯ ===
	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Error("❌ Ошибка чтения конфигурации: %v", err)
		log.Fatalf("❌ Ошибка чтения конфигурации: %v", err)
	}
	if cfg == nil {
		cfg = &config.Config{}
	}

	restPort := cfg.Server.GetRESTPort()
	metricsPort := cfg.Server.GetMetricsPort()
	dataPath := cfg.Storage.GetDataPath()

	spatialCfg := spatial.DefaultConfig()
	if cfg.Spatial.CellSize > 0 {
		spatialCfg.CellSize = cfg.Spatial.CellSize
	}
	if cfg.Spatial.MaxStepHeight > 0 {
		spatialCfg.MaxStepHeight = cfg.Spatial.MaxStepHeight
	}

	logging.Info("📡 Конфигурация: REST=:%d, metrics=:%d, data=%s", restPort, metricsPort, dataPath)

	// === TELEMETRY ===
	ctx := context.Background()
	shutdownTelemetry, err := observability.InitTelemetry(ctx, "blockmap-server")
	if err != nil {
		// Трассировка не критична для работы сервера
		logging.Warn("OpenTelemetry недоступен: %v", err)
		shutdownTelemetry = func(context.Context) error { return nil }
	}

	// === ХРАНИЛИЩЕ ===
	store, err := storage.NewMapStorage(dataPath)
	if err != nil {
		logging.Error("❌ Ошибка открытия хранилища карт: %v", err)
		log.Fatalf("❌ Ошибка открытия хранилища карт: %v", err)
	}
	defer store.Close()

	// === EVENT BUS ===
	// JetStream при наличии NATS, иначе in-memory шина
	var bus eventbus.EventBus
	if cfg.EventBus.URL != "" {
		retention := time.Duration(cfg.EventBus.Retention) * time.Hour
		if retention <= 0 {
			retention = 24 * time.Hour
		}
		jsBus, err := eventbus.NewJetStreamBus(cfg.EventBus.URL, cfg.EventBus.Stream, retention)
		if err != nil {
			logging.Warn("NATS недоступен (%v), используется in-memory шина", err)
			bus = eventbus.NewMemoryBus(1024)
		} else {
			logging.Info("✅ Подключено к NATS JetStream: %s", cfg.EventBus.URL)
			bus = jsBus
		}
	} else {
		bus = eventbus.NewMemoryBus(1024)
	}
	eventbus.Init(bus)

	if err := eventbus.StartLoggingListener(bus); err != nil {
		logging.Warn("Не удалось запустить LoggingListener: %v", err)
	}

	exporter := eventbus.NewMetricsExporter(bus)
	exporter.StartHTTP(fmt.Sprintf(":%d", metricsPort))

	// === РЕЕСТР КАРТ И REST API ===
	registry := app.NewMapRegistry(store, bus)

	restServer, err := api.NewRestServer(&api.Config{
		Port:     fmt.Sprintf("%d", restPort),
		Registry: registry,
		Spatial:  spatialCfg,
	})
	if err != nil {
		logging.Error("❌ Ошибка создания REST сервера: %v", err)
		log.Fatalf("❌ Ошибка создания REST сервера: %v", err)
	}
	if err := restServer.Start(); err != nil {
		logging.Error("❌ Ошибка запуска REST сервера: %v", err)
		log.Fatalf("❌ Ошибка запуска REST сервера: %v", err)
	}

	logging.Info("✅ Все сервисы запущены")
	logging.Info("   🌐 REST API: http://localhost:%d", restPort)
	logging.Info("   📈 Метрики: http://localhost:%d/metrics", metricsPort)
	logging.Info("   ❤️  Health check: http://localhost:%d/health", restPort)

	// Ждем сигнала для завершения
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logging.Info("📡 Получен сигнал %v, завершение работы...", sig)

	// === GRACEFUL SHUTDOWN ===
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := restServer.Stop(shutdownCtx); err != nil {
		logging.Error("Ошибка остановки REST сервера: %v", err)
	}
	if err := registry.Close(); err != nil {
		logging.Error("Ошибка сохранения карт при завершении: %v", err)
	}
	exporter.Stop()
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logging.Warn("Ошибка остановки телеметрии: %v", err)
	}

	logging.Info("👋 Сервер остановлен")
}
