package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"spacesBack/internal/autoquote"
	"spacesBack/internal/autoquote/hostlock"
	"spacesBack/internal/autoquote/notify"
	"spacesBack/internal/autoquote/store"
	"spacesBack/internal/autoquote/timeutil"
	"spacesBack/internal/config"
	"spacesBack/internal/handlers"
	"spacesBack/internal/repositories"
	"spacesBack/internal/services"
	"spacesBack/migrations"
	"spacesBack/utils"
)

type application struct {
	errorLog *log.Logger
	infoLog  *log.Logger
	tokens   *utils.Manager
	registry *prometheus.Registry

	module           *autoquote.Module
	autoQuoteHandler *handlers.AutoQuoteHandler
	quoteHandler     *handlers.QuoteHandler
	walletHandler    *handlers.WalletHandler
	adminHandler     *handlers.AdminAutoQuoteHandler
}

func initializeApp(m *autoquote.Module, reg *prometheus.Registry, tokens *utils.Manager, errorLog, infoLog *log.Logger) *application {
	autoQuoteService := &services.AutoQuoteService{Store: m.Store, Quota: m.Quota, Clock: m.Clock}

	return &application{
		errorLog: errorLog,
		infoLog:  infoLog,
		tokens:   tokens,
		registry: reg,

		module:           m,
		autoQuoteHandler: &handlers.AutoQuoteHandler{Service: autoQuoteService},
		quoteHandler:     &handlers.QuoteHandler{Lifecycle: m.Lifecycle},
		walletHandler:    &handlers.WalletHandler{Wallet: m.Wallet},
		adminHandler: &handlers.AdminAutoQuoteHandler{
			Service:    autoQuoteService,
			Dispatcher: m.Dispatcher,
			Store:      m.Store,
			Monitor:    m.Monitor,
		},
	}
}

// openStore returns the configured store and a close func. The mysql store
// is migrated before use.
func openStore(cfg config.Config, engineCfg autoquote.Config, locker hostlock.Locker) (store.Store, func(), error) {
	if cfg.Database.Driver == "memory" {
		return store.NewMemory(locker), func() {}, nil
	}
	db, err := openDB(cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	if err := migrations.Up(db); err != nil {
		db.Close()
		return nil, nil, err
	}
	return &repositories.AutoQuoteStore{
		DB:     db,
		Locker: locker,
		Loc:    timeutil.LoadLocation(engineCfg.Timezone),
	}, func() { db.Close() }, nil
}

func openDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Printf("Failed to open DB: %v", err)
		return nil, err
	}
	if err = db.Ping(); err != nil {
		log.Printf("Failed to ping DB: %v", err)
		return nil, err
	}
	db.SetMaxIdleConns(35)
	log.Println("Successfully connected to database")
	return db, nil
}

// openLocker always serializes in process; with redis.addr set it also
// excludes other instances.
func openLocker(ctx context.Context, cfg config.Config, engineCfg autoquote.Config) (hostlock.Locker, func(), error) {
	local := hostlock.NewLocal()
	if cfg.Redis.Addr == "" {
		return local, func() {}, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	return hostlock.Chain{local, hostlock.NewRedis(rdb, engineCfg.LockTTL)}, func() { rdb.Close() }, nil
}

// openUploader returns nil when no storage bucket is configured.
func openUploader(cfg config.Config) (*utils.Uploader, error) {
	if !cfg.Storage.Enabled() {
		return nil, nil
	}
	return utils.NewUploader(cfg.Storage)
}

// openPush returns nil when no Firebase credentials are configured.
func openPush(ctx context.Context, cfg config.Config, tokens notify.TokenSource, logger engineLogger) (*notify.Publisher, error) {
	if cfg.Firebase.Credentials == "" {
		return nil, nil
	}
	client, err := notify.NewMessagingClient(ctx, cfg.Firebase.Credentials)
	if err != nil {
		return nil, err
	}
	return notify.NewPublisher(client, tokens, logger), nil
}

func addSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Cross-Origin-Resource-Policy", "same-origin")
		next.ServeHTTP(w, r)
	})
}
