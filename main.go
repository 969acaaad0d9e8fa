package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/thenavnitdev/pawatasty-sub002/docs"
	"github.com/thenavnitdev/pawatasty-sub002/internal/platform/auth"
	"github.com/thenavnitdev/pawatasty-sub002/internal/platform/db"
	"github.com/thenavnitdev/pawatasty-sub002/internal/platform/metrics"
	"github.com/thenavnitdev/pawatasty-sub002/internal/platform/payment"
	"github.com/thenavnitdev/pawatasty-sub002/internal/platform/reqlog"
	"github.com/thenavnitdev/pawatasty-sub002/internal/platform/validation"
	"github.com/thenavnitdev/pawatasty-sub002/internal/rental_mgmt/points"
	"github.com/thenavnitdev/pawatasty-sub002/internal/rental_mgmt/pricing"
	"github.com/thenavnitdev/pawatasty-sub002/internal/rental_mgmt/rentals"
	"github.com/thenavnitdev/pawatasty-sub002/internal/rental_mgmt/stations"
)

// @title                      PawaTasty rental API
// @version                    2.0
// @BasePath                   /api/v2
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
func main() {
	// 設定読み込み
	cfg, err := db.LoadConfig("config/config.yaml")
	if err != nil {
		panic(err)
	}

	// 動作モード取得
	mode := cfg.Mode
	log.Printf("[INFO] mode:%s\n", mode)

	if cfg.Mode != "dev" && cfg.Mode != "release" {
		fmt.Println("Usage: APP_MODE=[dev|release] go run main.go")
		return
	}

	logger := newLogger(mode, cfg.LogLevel)
	slog.SetDefault(logger)

	// 料金ポリシーは起動時に1回だけ確定させる
	policy := policyFromConfig(cfg.Pricing)
	if err := policy.Validate(); err != nil {
		log.Fatalf("[ERROR] invalid pricing config: %v", err)
	}
	log.Printf("[INFO] pricing: %s per %d min, cap %s/day, validation fee %s",
		policy.Format(policy.BlockRateCents), policy.BlockMinutes,
		policy.Format(policy.DailyCapCents), policy.Format(policy.ValidationFeeCents))

	if cfg.Auth.JWTSecret == "" {
		log.Fatal("[ERROR] auth.jwt_secret (JWT_SECRET) is empty")
	}

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		panic(err)
	}
	defer conn.Close()

	log.Printf("[INFO] connected to DB: %s", cfg.DB.DBName)

	if err := validation.Register(); err != nil {
		log.Fatal(err)
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), reqlog.RequestID(), reqlog.Slog(logger))
	_ = r.SetTrustedProxies(nil)

	if mode == "dev" {
		// CORS（開発中のみ必要）
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:3000"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
			ExposeHeaders:    []string{"Content-Length", "Location", "X-Request-ID"},
			AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowCredentials: true,
		}))
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// ヘルス
	r.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := conn.PingContext(ctx); err != nil {
			c.String(http.StatusServiceUnavailable, "db unreachable")
			return
		}
		c.String(http.StatusOK, "ok")
	})
	if cfg.Metrics.Enabled {
		r.GET("/metrics", metrics.Handler())
	}

	// ---------- services ----------
	stationSvc := stations.NewService(conn, logger)
	gateway := payment.NewGateway(payment.Config{
		SecretKey: cfg.Stripe.SecretKey,
		BaseURL:   cfg.Stripe.BaseURL,
		Timeout:   cfg.Stripe.Timeout,
	}, logger)
	pointSvc := points.NewService(conn, points.Rules{
		points.EventRentalCompleted: cfg.Points.RentalCompleted,
		points.EventRentalPurchased: cfg.Points.RentalPurchased,
	}, logger)
	rentalSvc := rentals.NewService(
		rentals.NewStore(conn, stationSvc.Ledger()),
		stationSvc.Ledger(),
		gateway,
		pointSvc,
		policy,
		logger,
	)
	history := rentals.NewHistory(conn, policy)

	// /api/v2
	api := r.Group("/api/v2")
	stations.RegisterRoutes(api, stationSvc)

	authed := api.Group("", auth.RequireAuth([]byte(cfg.Auth.JWTSecret)))
	rentals.RegisterRoutes(authed, rentalSvc, history)
	points.RegisterRoutes(authed, pointSvc)
	admin := authed.Group("", auth.RequireRole("admin"))
	stations.RegisterAdminRoutes(admin, stationSvc)
	rentals.RegisterAdminRoutes(admin, gateway, history)

	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "route not found", "code": "NOT_FOUND"})
			return
		}
		c.Status(http.StatusNotFound)
	})

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// TLS設定（証明書が無ければ平文。ロードバランサ配下を想定）
	var certFile, keyFile string
	if cfg.Certificate.Cert != "" && cfg.Certificate.Key != "" {
		if mode == "dev" {
			//開発用
			certFile = fmt.Sprintf("config/tls/dev/%s", cfg.Certificate.Cert)
			keyFile = fmt.Sprintf("config/tls/dev/%s", cfg.Certificate.Key)
		} else {
			//本番用
			certFile = fmt.Sprintf("config/tls/release/%s", cfg.Certificate.Cert)
			keyFile = fmt.Sprintf("config/tls/release/%s", cfg.Certificate.Key)
		}
	}

	go func() {
		var err error
		if certFile != "" {
			log.Printf("[INFO] listening on https://%s", cfg.Listen)
			err = srv.ListenAndServeTLS(certFile, keyFile)
		} else {
			log.Printf("[INFO] listening on http://%s", cfg.Listen)
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("[INFO] shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err)
	}
}

func policyFromConfig(c db.PricingConfig) pricing.Policy {
	return pricing.Policy{
		Currency:           c.Currency,
		BlockMinutes:       c.BlockMinutes,
		BlockRateCents:     c.BlockRateCents,
		DailyCapCents:      c.DailyCapCents,
		LateThresholdDays:  c.LateThresholdDays,
		LateRentalFeeCents: c.LateRentalFeeCents,
		PurchaseFeeCents:   c.PurchaseFeeCents,
		ValidationFeeCents: c.ValidationFeeCents,
	}
}

// release は JSON、dev は読みやすいテキスト
func newLogger(mode, level string) *slog.Logger {
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(level)); err != nil {
		lv = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lv}
	if mode == "release" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
