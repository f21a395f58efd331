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
	"auction-engine/internal/api/middleware"
	"auction-engine/internal/config"
	"auction-engine/internal/infrastructure/leader"
	"auction-engine/internal/infrastructure/mysql"
	"auction-engine/internal/infrastructure/redis"
	"auction-engine/internal/infrastructure/websocket"
	"auction-engine/internal/services"
	"auction-engine/pkg/logger"
	"auction-engine/pkg/utils"

	"github.com/gorilla/mux"
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
	log := baseLog.With("service", "bidding", "instance_id", cfg.Instance.ID)

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
	bidRepo := mysql.NewMySQLBidRepository(db)
	registrationRepo := mysql.NewMySQLRegistrationRepository(db)
	winnerRepo := mysql.NewMySQLWinnerRepository(db)

	// Redis services
	bidQueue := redis.NewRedisBidQueue(rdb, cfg.Queue.KeyPrefix)
	drainLock := leader.NewRedisLock(rdb, cfg.Queue.KeyPrefix, cfg.Processor.LockTTL)
	snapshotCache := redis.NewRedisSnapshotCache(rdb)
	eventPublisher := redis.NewEventPublisher(rdb)
	eventSubscriber := redis.NewRedisEventSubscriber(rdb, log)

	biddingRuleDao := services.NewBiddingRuleDao(rdb)
	if err := biddingRuleDao.LoadRules(initCtx); err != nil {
		log.Error("Failed to load increment rules", "error", err)
		os.Exit(1)
	}

	clock := utils.SystemClock{}

	validator := services.NewBidValidator(registrationRepo, clock)
	processor := services.NewBidProcessor(
		bidQueue,
		drainLock,
		auctionRepo,
		bidRepo,
		validator,
		snapshotCache,
		eventPublisher,
		clock,
		cfg.Instance.ID,
		cfg.Processor.ConflictRetries,
		log,
	)
	bidService := services.NewBidService(bidQueue, processor, bidRepo, clock, log)

	// Snapshot reads only; lifecycle writes belong to the auction manager service.
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

	sweeper := services.NewQueueSweeper(cfg.Queue.SweepInterval, bidQueue, processor, log)

	// Realtime edge
	connManager := websocket.NewConnectionManager(log)
	notifier := websocket.NewWebSocketNotifier(connManager)
	eventListener := services.NewEventListener(notifier, notifier, connManager, log)

	wsCfg := websocket.ConnectionConfig{
		SendBuffer:   cfg.Realtime.SendBuffer,
		WriteTimeout: cfg.Realtime.WriteTimeout,
		PingInterval: cfg.Realtime.PingInterval,
	}
	wsHandlers := handlers.NewWebSocketHandlers(bidService, auctionManager, connManager, wsCfg, log)
	bidHandler := handlers.NewBidHandler(bidService, log)

	router := mux.NewRouter()
	router.Use(middleware.CORSWithLogging(log))

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/auctions/{id}/bids", bidHandler.PlaceBid).Methods(http.MethodPost, http.MethodOptions)

	router.HandleFunc("/ws/auctions/{auctionID}", wsHandlers.HandleConnection)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if err := sweeper.Start(ctx); err != nil {
		log.Error("Failed to start queue sweeper", "error", err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := eventListener.Start(gctx, eventSubscriber)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		log.Info("Starting bidding service", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down bidding service...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		sweeper.Stop()
		err := server.Shutdown(shutdownCtx)
		processor.Wait()
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error("Bidding service exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("Bidding service stopped")
}
