package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bouquet-recommender/internal/api"
	"bouquet-recommender/internal/api/handlers/health"
	"bouquet-recommender/internal/core/ai/ark"
	"bouquet-recommender/internal/core/ai/cache"
	"bouquet-recommender/internal/core/ai/openrouter"
	"bouquet-recommender/internal/core/ai/provider"
	"bouquet-recommender/internal/core/ai/queue"
	"bouquet-recommender/internal/core/ai/service"
	"bouquet-recommender/internal/core/bouquet"
	"bouquet-recommender/internal/core/inventory"
	"bouquet-recommender/internal/infrastructure/config"
	"bouquet-recommender/internal/infrastructure/database"
	"bouquet-recommender/internal/pkg/common"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 載入 .env
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("ai_provider", cfg.AI.Provider),
		zap.Bool("ai_enabled", cfg.AI.Enabled),
		zap.String("openrouter_api_key", config.MaskAPIKey(cfg.OpenRouter.APIKey)),
		zap.String("database_driver", cfg.Database.Driver),
		zap.String("strategy", cfg.Recommend.Strategy),
	)

	ctx := context.Background()

	catalog, closeCatalog, err := newCatalog(cfg)
	if err != nil {
		common.LogFatal("Failed to initialize catalog", zap.Error(err))
	}
	defer closeCatalog()

	genQueue := queue.NewManager(&cfg.Queue)
	defer genQueue.Close()

	// 生成服務無法使用時只提供備援推薦
	var (
		generator  bouquet.Generator
		cacheStats health.StatsReporter
	)
	aiService, err := newGenerationService(ctx, cfg, genQueue)
	if err != nil {
		common.LogWarn("生成服務未啟用，僅使用備援推薦", zap.Error(err))
	} else if aiService != nil {
		defer aiService.Close()
		generator = aiService
		cacheStats = aiService
	}

	assembler := bouquet.NewAssembler(
		catalog,
		generator,
		bouquet.NewRandom(cfg.Recommend.RandomSeed),
		bouquet.OptionsFromConfig(cfg.Recommend),
	)

	router, cleanup := api.SetupRouter(cfg, api.Dependencies{
		Recommender: assembler,
		Catalog:     catalog,
		Queue:       genQueue,
		Cache:       cacheStats,
	})
	defer cleanup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Int("port", cfg.Server.Port),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogFatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	// 進行中的串流需要時間寫出結果
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
	}

	common.LogInfo("Server exited")
}

// newCatalog 依設定建立花卉目錄
func newCatalog(cfg *config.Config) (inventory.Gateway, func(), error) {
	if cfg.Database.Driver != "postgres" {
		common.LogInfo("使用示範花卉目錄")
		return inventory.NewMemoryGateway(inventory.SeedCatalog()), func() {}, nil
	}

	client, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := client.Close(); err != nil {
			common.LogWarn("關閉資料庫連線失敗", zap.Error(err))
		}
	}
	return inventory.NewPostgresGateway(client), closeFn, nil
}

// newGenerationService 建立生成服務，停用時返回 nil
func newGenerationService(ctx context.Context, cfg *config.Config, q *queue.Manager) (*service.Service, error) {
	if !cfg.AI.Enabled {
		return nil, nil
	}

	var (
		p   provider.Provider
		err error
	)
	switch cfg.AI.Provider {
	case "ark":
		if cfg.Ark.APIKey == "" {
			return nil, fmt.Errorf("ARK_API_KEY is not set")
		}
		p, err = ark.NewClient(ctx, cfg)
	default:
		if cfg.OpenRouter.APIKey == "" {
			return nil, fmt.Errorf("OPENROUTER_API_KEY is not set")
		}
		p = openrouter.NewClient(cfg)
	}
	if err != nil {
		return nil, err
	}

	store, err := cache.New(cfg)
	if err != nil {
		common.LogWarn("生成快取初始化失敗，停用快取", zap.Error(err))
		store = nil
	}

	return service.NewService(cfg, p, store, q), nil
}
