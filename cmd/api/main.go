package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"bonvet-api/internal/adapters/auth/jwtauth"
	mem "bonvet-api/internal/adapters/storage/memory"
	pg "bonvet-api/internal/adapters/storage/postgres"
	"bonvet-api/internal/domain/pets"
	"bonvet-api/internal/domain/records"
	"bonvet-api/internal/domain/sharetokens"
	"bonvet-api/internal/domain/users"
	"bonvet-api/internal/platform/config"
	"bonvet-api/internal/platform/logger"
	"bonvet-api/internal/router"
)

func main() {
	log := logger.NewFromEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Error("config error", map[string]any{"err": err.Error()})
		os.Exit(1)
	}

	log = logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})

	var (
		userRepo   users.Repository
		petRepo    pets.Repository
		recordRepo records.Repository
		tokenRepo  sharetokens.Repository
	)

	// Si no hay DSN, repos in-memory (modo dev/handoff).
	if cfg.DBDSN != "" {
		db, err := pg.Open(cfg.DBDSN)
		if err != nil {
			log.Error("db open error", map[string]any{"err": err.Error()})
			os.Exit(1)
		}
		defer db.Close()

		userRepo = pg.NewUsersRepo(db)
		petRepo = pg.NewPetsRepo(db)
		recordRepo = pg.NewRecordsRepo(db)
		tokenRepo = pg.NewShareTokensRepo(db)
		log.Info("storage: postgres", nil)
	} else {
		userRepo = mem.NewUsersRepo()
		petRepo = mem.NewPetsRepo()
		recordRepo = mem.NewRecordsRepo()
		tokenRepo = mem.NewShareTokensRepo()
		log.Info("storage: in-memory", nil)
	}

	// Services por módulo
	usersSvc := users.NewService(userRepo)
	petsSvc := pets.NewService(petRepo)
	recordsSvc := records.NewService(recordRepo)
	tokensSvc := sharetokens.NewService(tokenRepo, sharetokens.Options{
		TTL:     cfg.QRTTL(),
		BaseURL: cfg.BaseURL,
		Logger:  log.With(map[string]any{"module": "sharetokens"}),
	})

	issuer := jwtauth.NewIssuer([]byte(cfg.JWTSecret), cfg.SessionTTL(), usersSvc)

	// Barrido periódico de tokens QR vencidos.
	go sweepLoop(tokensSvc, cfg.QRSweepInterval, log)

	r := router.NewRouter(router.Options{
		Verifier: issuer,
		Issuer:   issuer,
		Users:    usersSvc,
		Pets:     petsSvc,
		Record:   recordsSvc,
		Tokens:   tokensSvc,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	log.Info("starting server", map[string]any{"addr": srv.Addr})
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", map[string]any{"err": err.Error()})
		os.Exit(1)
	}
}

func sweepLoop(svc *sharetokens.Service, interval time.Duration, log logger.Logger) {
	if interval <= 0 {
		return
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	for range t.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		n, err := svc.SweepExpired(ctx)
		cancel()

		if err != nil {
			log.Warn("qr sweep failed", map[string]any{"err": err.Error()})
			continue
		}
		if n > 0 {
			log.Info("qr sweep", map[string]any{"deleted": n})
		}
	}
}
