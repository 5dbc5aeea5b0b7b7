package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/cors"

	"spacesBack/internal/autoquote"
	"spacesBack/internal/config"
	"spacesBack/utils"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}
	cfg := config.LoadConfig()

	addr := flag.String("addr", cfg.Server.Address, "HTTP network address")
	flag.Parse()

	infoLog := log.New(os.Stdout, "INFO\t", log.Ldate|log.Ltime)
	errorLog := log.New(os.Stderr, "ERROR\t", log.Ldate|log.Ltime|log.Lshortfile)
	logger := engineLogger{info: infoLog, err: errorLog}

	engineCfg, err := autoquote.LoadConfig()
	if err != nil {
		errorLog.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	locker, closeLocker, err := openLocker(ctx, cfg, engineCfg)
	if err != nil {
		errorLog.Fatal(err)
	}
	defer closeLocker()

	st, closeStore, err := openStore(cfg, engineCfg, locker)
	if err != nil {
		errorLog.Fatal(err)
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	deps := &autoquote.Deps{Store: st, Logger: logger, Config: engineCfg, Registerer: reg}
	push, err := openPush(ctx, cfg, st, logger)
	if err != nil {
		errorLog.Printf("push notifications disabled: %v", err)
	} else if push != nil {
		deps.Push = push
		go push.Run(ctx)
	}

	module, err := autoquote.New(deps)
	if err != nil {
		errorLog.Fatal(err)
	}
	tokens, err := utils.NewManager(cfg.Auth.JWTSecret)
	if err != nil {
		errorLog.Fatal(err)
	}
	uploader, err := openUploader(cfg)
	if err != nil {
		errorLog.Printf("report archive disabled: %v", err)
	}
	app := initializeApp(module, reg, tokens, errorLog, infoLog)

	module.StartWorkers(ctx)
	startRefundSweeper(ctx, module.Lifecycle, engineCfg.SweepInterval, infoLog, errorLog)
	startUsageCleaner(ctx, module, engineCfg.CleanerInterval, infoLog, errorLog)
	startAbuseScanner(ctx, module.Monitor, uploader, engineCfg.AbuseWindow, infoLog, errorLog)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: true,
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
	})

	srv := &http.Server{
		Addr:         *addr,
		ErrorLog:     errorLog,
		Handler:      addSecurityHeaders(c.Handler(app.routes())),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errorLog.Printf("shutdown: %v", err)
		}
	}()

	infoLog.Printf("Starting server on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errorLog.Fatal(err)
	}
	infoLog.Printf("Server stopped")
}
