package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	applog "storefront/internal/log"
)

type Config struct {
	Port         string
	DBDSN        string
	MediaDir     string
	TemplatesDir string
	LogFile      string
	CookieSecure bool
	PublicURL    string

	StripeSecretKey      string
	StripePublishableKey string
	Currency             string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CartTTL       time.Duration

	S3Bucket       string
	S3Endpoint     string
	S3Region       string
	S3AccessKey    string
	S3SecretKey    string
	S3PublicDomain string

	AdminEmail    string
	AdminPassword string

	MainDomain string
	DomainCLI  string

	DealSweepInterval time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8081")
	v.SetDefault("DB_DSN", "storefront.db") // sqlite file in project root
	v.SetDefault("MEDIA_DIR", "./web/media")
	v.SetDefault("TEMPLATES_DIR", "./web/templates")
	v.SetDefault("LOG_FILE", "./storefront.log")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("PUBLIC_URL", "http://localhost:8081")
	v.SetDefault("CURRENCY", "usd")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CART_TTL", "72h")
	v.SetDefault("S3_REGION", "auto")
	v.SetDefault("MAIN_DOMAIN", "plotunknown.com")
	v.SetDefault("DOMAIN_CLI", "vercel")
	v.SetDefault("DEAL_SWEEP_INTERVAL", "1h")
}

// Load reads .env (if present) and then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		applog.Event("config.dotenv.skip", nil, map[string]any{"reason": err.Error()})
	}
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	cfg := FromViper(v)
	applog.Event("config.loaded", nil, map[string]any{
		"port":      cfg.Port,
		"db_dsn":    cfg.DBDSN,
		"media_dir": cfg.MediaDir,
		"log_file":  cfg.LogFile,
		"redis":     cfg.RedisAddr != "",
		"s3":        cfg.S3Bucket != "",
		"stripe":    cfg.StripeSecretKey != "",
	})
	return cfg
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) Config {
	return Config{
		Port:         v.GetString("PORT"),
		DBDSN:        v.GetString("DB_DSN"),
		MediaDir:     v.GetString("MEDIA_DIR"),
		TemplatesDir: v.GetString("TEMPLATES_DIR"),
		LogFile:      v.GetString("LOG_FILE"),
		CookieSecure: v.GetBool("COOKIE_SECURE"),
		PublicURL:    v.GetString("PUBLIC_URL"),

		StripeSecretKey:      v.GetString("STRIPE_SECRET_KEY"),
		StripePublishableKey: v.GetString("STRIPE_PUBLISHABLE_KEY"),
		Currency:             v.GetString("CURRENCY"),

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),
		CartTTL:       v.GetDuration("CART_TTL"),

		S3Bucket:       v.GetString("S3_BUCKET"),
		S3Endpoint:     v.GetString("S3_ENDPOINT"),
		S3Region:       v.GetString("S3_REGION"),
		S3AccessKey:    v.GetString("S3_ACCESS_KEY_ID"),
		S3SecretKey:    v.GetString("S3_SECRET_ACCESS_KEY"),
		S3PublicDomain: v.GetString("S3_PUBLIC_DOMAIN"),

		AdminEmail:    v.GetString("ADMIN_EMAIL"),
		AdminPassword: v.GetString("ADMIN_PASSWORD"),

		MainDomain: v.GetString("MAIN_DOMAIN"),
		DomainCLI:  v.GetString("DOMAIN_CLI"),

		DealSweepInterval: v.GetDuration("DEAL_SWEEP_INTERVAL"),
	}
}

// Defaults returns the configuration with no environment applied.
func Defaults() Config {
	v := viper.New()
	setDefaults(v)
	return FromViper(v)
}
