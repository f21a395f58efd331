package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auction-engine/internal/api/handlers"
	"auction-engine/internal/config"
	"auction-engine/internal/domain"
	"auction-engine/internal/infrastructure/leader"
	"auction-engine/internal/infrastructure/mysql"
	"auction-engine/internal/infrastructure/redis"
	"auction-engine/internal/services"
	"auction-engine/pkg/logger"
	"auction-engine/pkg/utils"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New().Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	baseLog, err := logger.Build(logger.Options{Level: cfg.Log.Level, Encoding: cfg.Log.Encoding})
	if err != nil {
		logger.New().Error("Failed to build logger", "error", err)
		os.Exit(1)
	}
	defer logger.Sync(baseLog)
	log := baseLog.With("service", "auction-manager", "instance_id", cfg.Instance.ID)
	log.Info("Starting Auction Manager Service", "config", cfg.GetConfigString())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	initCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rdb, err := utils.InitializeRedis(initCtx, cfg, log)
	if err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()

	db, err := utils.InitializeMysql(initCtx, cfg, log)
	if err != nil {
		log.Error("Failed to connect to MySQL", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.MySQL.EnsureSchema {
		if err := mysql.EnsureSchema(initCtx, db); err != nil {
			log.Error("Failed to ensure schema", "error", err)
			os.Exit(1)
		}
	}

	// Repositories
	auctionRepo := mysql.NewMySQLAuctionRepository(db)
	registrationRepo := mysql.NewMySQLRegistrationRepository(db)
	winnerRepo := mysql.NewMySQLWinnerRepository(db)
	bidRepo := mysql.NewMySQLBidRepository(db)

	// Redis based components
	snapshotCache := redis.NewRedisSnapshotCache(rdb)
	eventPublisher := redis.NewEventPublisher(rdb)

	biddingRuleDao := services.NewBiddingRuleDao(rdb)
	if err := biddingRuleDao.LoadRules(initCtx); err != nil {
		log.Error("Failed to load increment rules", "error", err)
		os.Exit(1)
	}

	leaderElection := leader.NewRedisLeaderElection(rdb, cfg.Leader.TTL, log)
	clock := utils.SystemClock{}

	auctionManager := services.NewAuctionManager(
		auctionRepo,
		registrationRepo,
		winnerRepo,
		snapshotCache,
		eventPublisher,
		biddingRuleDao,
		clock,
		cfg.Registration.AutoApprove,
		log,
	)

	scheduler := services.NewCronAuctionScheduler(
		cfg.Scheduler.Interval,
		auctionRepo,
		winnerRepo,
		snapshotCache,
		eventPublisher,
		leaderElection,
		cfg.Instance.ID,
		clock,
		log,
	)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: `{"time":"${time_rfc3339}","id":"${id}","remote_ip":"${remote_ip}","method":"${method}","uri":"${uri}","status":${status},"error":"${error}","latency_human":"${latency_human}","bytes_in":${bytes_in},"bytes_out":${bytes_out}}` + "\n",
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch,
			http.MethodPost, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			echo.HeaderXRequestedWith,
		},
		MaxAge: 86400,
	}))

	auctionHandler := handlers.NewAuctionHandler(auctionManager, bidRepo, log)
	auctionHandler.Register(e.Group("/api/v1"))

	e.GET("/health", func(c echo.Context) error {
		currentLeader, err := leaderElection.Leader(c.Request().Context())
		if err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "redis unavailable"})
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":      "ok",
			"leader":      currentLeader,
			"service":     "auction-manager",
			"instance_id": cfg.Instance.ID,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	if err := scheduler.Start(ctx); err != nil {
		log.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Starting auction manager server", "address", serverAddr)
		if err := e.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down auction manager service...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := scheduler.Stop(); err != nil {
			log.Error("Failed to stop scheduler", "error", err)
		}
		err := leaderElection.ReleaseLeadership(shutdownCtx, cfg.Instance.ID)
		if err != nil && !errors.Is(err, domain.ErrLockNotHeld) {
			log.Error("Failed to release leadership", "error", err)
		}
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Auction manager service exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("Auction manager service stopped")
}
