package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"grab-a-time/internal/account"
	"grab-a-time/internal/booking"
	"grab-a-time/internal/cache"
	"grab-a-time/internal/config"
	gweb "grab-a-time/internal/grpcweb"
	"grab-a-time/internal/handler"
	"grab-a-time/internal/logger"
	"grab-a-time/internal/metrics"
	"grab-a-time/internal/middleware"
	"grab-a-time/internal/rpc"
	"grab-a-time/internal/store"
)

type repository interface {
	booking.Repository
	account.Repository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		// no logger yet
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(cfg.Debug)
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()
	sugar := log.Sugar()

	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	metrics.Register()

	ctx := context.Background()

	// storage
	var repo repository
	if cfg.DatabaseURL == "" {
		sugar.Warn("DATABASE_URL empty, meetings are kept in memory")
		repo = store.NewMemory()
	} else {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			sugar.Fatalf("db: %v", err)
		}
		defer pool.Close()
		st := store.New(pool)
		if err := st.Ping(ctx); err != nil {
			sugar.Fatalf("db ping: %v", err)
		}
		sugar.Info("connected to postgres")

		if err := st.Migrate(ctx, cfg.MigrationFile); err != nil {
			sugar.Warnf("migration: %v", err)
		} else {
			sugar.Info("migration applied")
		}
		repo = st
	}

	opts := []booking.Option{}
	if cfg.RedisAddr != "" {
		rdb, err := cache.NewClient(ctx, cache.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			sugar.Warnf("redis unavailable, meeting cache off: %v", err)
		} else {
			defer rdb.Close()
			opts = append(opts, booking.WithCache(cache.NewMeetings(rdb, cfg.CacheTTL)))
			sugar.Infof("meeting cache on %s", cfg.RedisAddr)
		}
	}

	meetings := booking.New(repo, log.Named("booking"), opts...)
	accounts := account.New(repo, cfg.JWTSecret, log.Named("account"))

	rl := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	defer rl.Close()

	// grpc server
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			middleware.RateLimit(rl),
			middleware.Auth(cfg.JWTSecret),
		),
	)
	rpc.RegisterMeetingServiceServer(srv, rpc.NewServer(meetings, accounts, log.Named("rpc")))

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		sugar.Fatalf("listen: %v", err)
	}
	go func() {
		sugar.Infof("grpc on :%s", cfg.GRPCPort)
		if err := srv.Serve(lis); err != nil {
			sugar.Errorf("grpc: %v", err)
		}
	}()

	// grpc-web bridge -> forwards browser requests to grpc on localhost
	bridge, err := gweb.New("localhost:"+cfg.GRPCPort, log.Named("grpcweb"))
	if err != nil {
		sugar.Fatalf("bridge: %v", err)
	}
	defer bridge.Close()

	webSrv := &http.Server{
		Addr:              ":" + cfg.GRPCWebPort,
		Handler:           bridge.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go serve(sugar, "grpc-web", webSrv)

	// json api
	h := handler.New(meetings, accounts, cfg.JWTSecret, rl, log.Named("http"),
		handler.WithTrustedProxies(cfg.TrustedProxies))
	apiSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go serve(sugar, "http", apiSrv)

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
	sugar.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		sugar.Warnf("http shutdown: %v", err)
	}
	if err := webSrv.Shutdown(shutdownCtx); err != nil {
		sugar.Warnf("grpc-web shutdown: %v", err)
	}
	srv.GracefulStop()
}

func serve(sugar *zap.SugaredLogger, name string, srv *http.Server) {
	sugar.Infof("%s on %s", name, srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		sugar.Errorf("%s: %v", name, err)
	}
}
