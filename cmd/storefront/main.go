package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/http/handlers"
	"storefront/internal/http/router"
	applog "storefront/internal/log"
	"storefront/internal/repos"
	"storefront/internal/storage"
)

func fatal(action string, err error) {
	applog.Event(action, err, nil)
	os.Exit(1)
}

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			applog.Event("log.file.open.fail", err, map[string]any{"path": cfg.LogFile})
		} else {
			defer f.Close()
			applog.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		fatal("db.open.fail", err)
	}
	defer db.Close()
	if err := repos.SeedAdmin(db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		fatal("seed.admin.fail", err)
	}

	var b handlers.Backends
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			applog.Event("redis.ping.fail", err, map[string]any{"addr": cfg.RedisAddr})
		}
		b.CartStore = cache.NewCartStore(client, cfg.CartTTL, repos.NewCartRepo(db))
	}
	if cfg.S3Bucket != "" {
		s3Store, err := storage.NewS3(ctx, storage.S3Config{
			Bucket:       cfg.S3Bucket,
			Endpoint:     cfg.S3Endpoint,
			Region:       cfg.S3Region,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			PublicDomain: cfg.S3PublicDomain,
		})
		if err != nil {
			fatal("storage.s3.fail", err)
		}
		b.Images = s3Store
	}

	app, deps := router.New(cfg, db, b)
	go deps.Sweeper.Run(ctx)

	go func() {
		<-ctx.Done()
		applog.Event("server.shutdown", nil, nil)
		_ = app.Shutdown()
	}()

	applog.Event("server.start", nil, map[string]any{"port": cfg.Port})
	if err := app.Listen(":" + cfg.Port); err != nil {
		fatal("server.listen.fail", err)
	}
}
