package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"Jazz_Forum/internal/config"
	"Jazz_Forum/internal/logger"
	"Jazz_Forum/internal/metrics"
	"Jazz_Forum/internal/pkg"
	"Jazz_Forum/internal/repository/mysql"
	"Jazz_Forum/internal/repository/redis"
	"Jazz_Forum/internal/router"
	"Jazz_Forum/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}
	cfg := config.Load()

	lg, err := logger.Init(cfg.Debug)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err = mysql.InitDB(cfg.MySQLDSN, cfg.Debug); err != nil {
		lg.Fatal("connect mysql", zap.Error(err))
	}
	// 自动建表
	if err = mysql.AutoMigrate(mysql.DB); err != nil {
		lg.Fatal("auto migrate", zap.Error(err))
	}

	// 连接redis
	rdb, err := redis.Init(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		lg.Fatal("connect redis", zap.Error(err))
	}
	defer func() { _ = redis.Close() }()

	metrics.MustRegister()
	pkg.SetSecrets(cfg.AccessSecret, cfg.RefreshSecret)

	db := mysql.DB
	sessions := redis.NewSessionRepository(rdb)
	users := service.NewUserService(db, sessions, lg)
	lifecycleSvc := service.NewLifecycleService(db, lg)
	threads := service.NewThreadService(db, lg)

	if err = users.EnsureSuperAdmin(ctx, cfg.SuperAdminUsername, cfg.SuperAdminPassword, cfg.SuperAdminEmail); err != nil {
		lg.Fatal("seed super admin", zap.Error(err))
	}

	// 事件投递：配置了 broker 才走 Kafka
	sender := service.LogSender(lg)
	if len(cfg.KafkaBrokers) > 0 {
		producer := pkg.NewKafkaProducer(pkg.KafkaConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic})
		defer func() { _ = producer.Close() }()
		sender = service.KafkaSender(producer)
	}

	smtp := pkg.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}
	var notifier service.Notifier = service.NewLogNotifier(lg)
	if smtp.Enabled() {
		notifier = service.NewEmailNotifier(smtp)
	}

	// 后台任务
	var wg sync.WaitGroup
	workers := []func(context.Context){
		service.NewOutboxRelayer(db, sender, cfg.OutboxInterval, lg).Run,
		service.NewReplyCountReconciler(db, cfg.ReconcileInterval, lg).Run,
		service.NewPurgeSweeper(lifecycleSvc, redis.NewDistLock(rdb), redis.NewWarningRepository(rdb),
			notifier, cfg.PurgeSweepInterval, lg).Run,
	}
	for _, run := range workers {
		wg.Add(1)
		go func(run func(context.Context)) {
			defer wg.Done()
			run(ctx)
		}(run)
	}

	r := router.InitRouter(router.Deps{
		Users:         users,
		WorkingGroups: service.NewWorkingGroupService(db, lg),
		Threads:       threads,
		Posts:         service.NewPostService(db, threads, lg),
		Lifecycle:     lifecycleSvc,
		Sessions:      sessions,
		Log:           lg,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		lg.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("http server", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	lg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("http shutdown", zap.Error(err))
	}
	wg.Wait()
}
