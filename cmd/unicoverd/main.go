package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "github.com/unicover/unicover-lms/internal/api/http"
	"github.com/unicover/unicover-lms/internal/attempt"
	"github.com/unicover/unicover-lms/internal/audit"
	auth "github.com/unicover/unicover-lms/internal/auth/middleware"
	"github.com/unicover/unicover-lms/internal/cache"
	"github.com/unicover/unicover-lms/internal/config"
	"github.com/unicover/unicover-lms/internal/contact"
	"github.com/unicover/unicover-lms/internal/course"
	"github.com/unicover/unicover-lms/internal/db"
	"github.com/unicover/unicover-lms/internal/grading"
	"github.com/unicover/unicover-lms/internal/lang"
	"github.com/unicover/unicover-lms/internal/license"
	"github.com/unicover/unicover-lms/internal/storage"
	"github.com/unicover/unicover-lms/internal/testbank"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	driver, err := db.ParseDriver(cfg.DBDriver)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	dbh, err := db.Open(ctx, driver, cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	defer dbh.Close()

	// --- Auth ---
	users := auth.NewUserStore(dbh)
	if err := bootstrapAdmin(ctx, users, cfg); err != nil {
		log.Fatalf("admin bootstrap: %v", err)
	}
	authSvc := auth.NewAuthService(cfg.AuthHMACSecret, cfg.TokenTTL)

	// --- Catalog cache ---
	var cc cache.Cache = cache.Noop{}
	if cfg.RedisAddr != "" {
		rc := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := rc.Ping(ctx); err != nil {
			log.Printf("redis %s unreachable, catalog cache disabled: %v", cfg.RedisAddr, err)
			_ = rc.Close()
		} else {
			defer rc.Close()
			cc = rc
		}
	}

	// --- Contact notifications ---
	var notifier contact.Notifier = contact.LogNotifier{}
	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		tn, err := contact.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID, "")
		if err != nil {
			log.Fatalf("telegram: %v", err)
		}
		notifier = tn
	}

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	defLang, ok := lang.Parse(cfg.DefaultLang)
	if !ok {
		log.Fatalf("config: unknown default language %q", cfg.DefaultLang)
	}

	tests := testbank.NewSQLStore(dbh)
	grader := grading.NewDefaultGrader()

	r := api.NewRouter(api.Deps{
		Auth:        authSvc,
		Users:       users,
		Tests:       tests,
		Courses:     course.NewSQLStore(dbh),
		Contacts:    &contact.Service{Store: contact.NewSQLStore(dbh), Notifier: notifier},
		Licenses:    &license.Service{Store: license.NewSQLStore(dbh), Blobs: bs},
		Attempts:    &attempt.Service{Store: attempt.NewSQLStore(dbh), Tests: tests, Grader: grader},
		Audit:       audit.NewEventRepo(dbh),
		Cache:       cc,
		CacheTTL:    cfg.CatalogCacheTTL,
		Grader:      grader,
		DefaultLang: defLang,
		PublicURL:   cfg.PublicURL,
		CORSOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("listening on %s (db=%s, cache=%T)", cfg.HTTPAddr, driver, cc)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	if err := srv.Shutdown(shCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Printf("stopped")
}

// bootstrapAdmin creates the configured admin account on first start. A
// stored hash wins over a plain password; with neither, nothing is created.
func bootstrapAdmin(ctx context.Context, users *auth.UserStore, cfg config.Config) error {
	hash := cfg.AdminPassHash
	if hash == "" && cfg.AdminPassword != "" {
		h, err := auth.HashPassword(cfg.AdminPassword)
		if err != nil {
			return err
		}
		hash = h
	}
	if hash == "" {
		log.Printf("no ADMIN_PASS_HASH or ADMIN_PASSWORD set; skipping admin bootstrap")
		return nil
	}
	return users.EnsureAdmin(ctx, cfg.AdminUser, hash)
}
