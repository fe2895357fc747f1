package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Totarae/shortlink/internal/config"
	"github.com/Totarae/shortlink/internal/database"
	grpcv2 "github.com/Totarae/shortlink/internal/grpc/v2"
	"github.com/Totarae/shortlink/internal/handlers"
	"github.com/Totarae/shortlink/internal/metrics"
	"github.com/Totarae/shortlink/internal/repositories"
	"github.com/Totarae/shortlink/internal/router"
	"github.com/Totarae/shortlink/internal/service"
	"github.com/Totarae/shortlink/internal/storage"
	"github.com/Totarae/shortlink/internal/util"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Инициализация конфигурации
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logger.Fatal("Ошибка конфигурации", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	// Fatal сбрасывает лог и завершает процесс с кодом 1
	if err := run(ctx, cfg, logger); err != nil {
		stop()
		logger.Fatal("Сервер остановлен с ошибкой", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Ошибка закрытия хранилища", zap.Error(err))
		}
	}()

	metrics.Init()

	rules := service.RedirectRules{
		MobileMarkers:     cfg.MobileMarkers,
		CrawlerMarkers:    cfg.CrawlerMarkers,
		MarketplaceMarker: cfg.MarketplaceMarker,
		DeepLinkURL:       cfg.DeepLinkURL,
		DeepLinkWebURL:    cfg.DeepLinkWebURL,
		OverrideURL:       cfg.OverrideURL,
		VirtualLinkURL:    cfg.VirtualLinkURL,
		RefreshDelay:      cfg.InterstitialRefresh,
		ScriptDelay:       cfg.InterstitialScriptDelay,
	}
	svc := service.NewShortenerService(store, util.NewCodeGenerator(nil, cfg.CodeLength), rules, logger, cfg.CodeAttempts)
	handler := handlers.NewHandler(svc, logger)

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           router.NewRouter(handler, logger, cfg.AllowedOrigin),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("Сервер запущен",
			zap.String("address", cfg.ServerAddress),
			zap.String("mode", cfg.Mode),
			zap.Bool("https", cfg.EnableHTTPS),
		)
		var err error
		if cfg.EnableHTTPS {
			err = srv.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var grpcServer *grpc.Server
	if cfg.GRPCAddress != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddress)
		if err != nil {
			return fmt.Errorf("listen grpc: %w", err)
		}
		grpcServer = grpc.NewServer(grpc.UnaryInterceptor(grpcv2.LoggingInterceptor(logger)))
		grpcv2.RegisterShortenerServer(grpcServer, grpcv2.NewGRPCServer(svc, logger))

		go func() {
			logger.Info("gRPC сервер запущен", zap.String("address", cfg.GRPCAddress))
			if err := grpcServer.Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Получен сигнал завершения")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Ошибка остановки HTTP сервера", zap.Error(err))
	}
	logger.Info("Сервер остановлен")
	return runErr
}

// openStorage выбирает хранилище по режиму конфигурации и применяет миграции.
func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	switch cfg.Mode {
	case config.ModeDatabase:
		db, err := database.NewDB(ctx, cfg.DatabaseDSN, logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		return repositories.NewURLRepository(db), nil
	case config.ModeSQLite:
		db, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		logger.Info("sqlite storage ready", zap.String("driver", database.DriverName(cfg.SQLitePath)))
		return repositories.NewSQLiteRepository(db), nil
	default:
		// пустой путь означает хранение только в памяти
		store, err := util.NewURLStore(cfg.FileStoragePath)
		if err != nil {
			return nil, fmt.Errorf("open file storage: %w", err)
		}
		return store, nil
	}
}
