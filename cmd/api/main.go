package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	httpadp "lendpool-backend/internal/adapter/http"
	"lendpool-backend/internal/adapter/middleware"
	"lendpool-backend/internal/adapter/repository/mysql"
	"lendpool-backend/internal/config"
	loandomain "lendpool-backend/internal/domain/loan"
	tokendomain "lendpool-backend/internal/domain/token"
	"lendpool-backend/internal/events"
	"lendpool-backend/internal/infrastructure/cache"
	"lendpool-backend/internal/infrastructure/db"
	"lendpool-backend/internal/infrastructure/oracle"
	"lendpool-backend/internal/monitor"
	"lendpool-backend/internal/settlement"
	loanuc "lendpool-backend/internal/usecase/loan"
	tokenuc "lendpool-backend/internal/usecase/token"
	"lendpool-backend/internal/usecase/valuation"
)

// submitAdapter narrows the settlement submitter to the monitor's view; the
// monitor has no use for the receipt.
type submitAdapter struct{ s *settlement.Submitter }

func (a submitAdapter) Submit(ctx context.Context, loanID string) error {
	_, err := a.s.Submit(ctx, loanID)
	return err
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	zlog, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("zap: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	if err := gdb.AutoMigrate(
		&loandomain.Loan{},
		&loandomain.Contribution{},
		&loandomain.Vote{},
		&tokendomain.Token{},
	); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}

	loans := mysql.NewLoanRepository(gdb)
	contribs := mysql.NewContributionRepository(gdb)
	tokens := mysql.NewTokenRepository(gdb)
	uow := mysql.NewGormUoW(gdb)
	emitter := events.NewRedisEmitter(rdb)

	tokenUC := tokenuc.NewUsecase(tokens)
	loanUC := loanuc.NewUsecase(loans, contribs, tokens, uow, emitter, cfg.FundingPeriod())

	valuer := valuation.NewEngine(tokenUC, oracle.NewHTTPClient(cfg.OracleBaseURL), cfg.StaleBound())

	signKey, err := cfg.SettlementKey()
	if err != nil {
		log.Fatalf("settlement key: %v", err)
	}
	submitter := settlement.NewSubmitter(loanUC, signKey, settlement.Policy{
		MaxAttempts: cfg.SettleMaxAttempts,
		Delay:       cfg.SettleRetryDelay(),
	}, zlog.Named("settlement"))

	mon := monitor.New(loans, valuer, submitAdapter{s: submitter}, cfg.MonitorInterval(), zlog.Named("monitor"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go mon.Run(ctx)

	h := httpadp.NewHandler()
	tokenH := httpadp.NewTokenHandler(tokenUC)
	loanH := httpadp.NewLoanHandler(loanUC)

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(echomw.Logger(), echomw.Recover())
	e.Use(middleware.Idempotency(rdb, cfg.IdempTTL()))

	// routes
	e.GET("/health", h.Health)

	e.POST("/tokens", tokenH.Register)
	e.GET("/tokens/:id", tokenH.Get)
	e.POST("/tokens/:id/deactivate", tokenH.Deactivate)

	e.POST("/loans", loanH.CreateLoan)
	e.GET("/loans/active", loanH.ActiveLoans)
	e.GET("/loans/:loan_id", loanH.GetLoan)
	e.GET("/loans/:loan_id/contributions", loanH.ListContributions)
	e.POST("/loans/:loan_id/contributions", loanH.Contribute)
	e.POST("/loans/:loan_id/refund", loanH.Refund)
	e.POST("/loans/:loan_id/repayment", loanH.Repay)
	e.POST("/loans/:loan_id/votes", loanH.Vote)

	go func() {
		addr := ":" + cfg.AppPort
		log.Printf("listening on %s", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
}
