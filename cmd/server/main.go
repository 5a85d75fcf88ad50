package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ignite/contact-intake/internal/api"
	"github.com/ignite/contact-intake/internal/config"
	"github.com/ignite/contact-intake/internal/contact"
	"github.com/ignite/contact-intake/internal/media"
	"github.com/ignite/contact-intake/internal/notify"
	"github.com/ignite/contact-intake/internal/storage"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"
)

// checkPortAvailable verifies that the target port is not already in use.
// This prevents confusion from stale processes occupying the port.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v\n"+
			"  Hint: Run 'lsof -i :%d' to find the blocking process", port, addr, err, port)
	}
	ln.Close()
	return nil
}

func extractHost(dsn string) string {
	at := strings.Index(dsn, "@")
	if at < 0 {
		return "(unknown)"
	}
	rest := dsn[at+1:]
	slash := strings.Index(rest, "/")
	if slash >= 0 {
		rest = rest[:slash]
	}
	return rest
}

// buildStore selects the submission store from config. Returning a nil
// store with a nil error means persistence is not configured and the
// service runs in degraded mode.
func buildStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case "dynamodb":
		if cfg.DynamoDBTable == "" {
			return nil, fmt.Errorf("storage provider dynamodb requires dynamodb_table")
		}
		store, err := storage.NewDynamoStore(ctx, cfg.DynamoDBTable, cfg.AWSRegion, cfg.GetAWSProfile())
		if err != nil {
			return nil, fmt.Errorf("initializing DynamoDB store: %w", err)
		}
		log.Printf("[Storage] DynamoDB store initialized (table: %s, region: %s)", cfg.DynamoDBTable, cfg.AWSRegion)
		return store, nil
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("storage provider postgres requires database_url")
		}
		log.Printf("[Storage] DB URL host portion: ...@%s/...", extractHost(cfg.DatabaseURL))
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("opening postgres connection: %w", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(3)
		db.SetConnMaxLifetime(5 * time.Minute)
		db.SetConnMaxIdleTime(30 * time.Second)

		store := storage.NewPostgresStore(db)
		schemaCtx, cancel := context.WithTimeout(ctx, cfg.Timeout())
		defer cancel()
		if err := store.EnsureSchema(schemaCtx); err != nil {
			return nil, fmt.Errorf("ensuring postgres schema: %w", err)
		}
		log.Println("[Storage] PostgreSQL store initialized, schema ensured")
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}

// wrapWithCache layers the Redis recent-submissions cache over the
// durable store when a cache address is configured. Cache failures at
// startup are warnings, not fatal: the durable store alone is correct.
func wrapWithCache(ctx context.Context, store storage.Store, cfg config.CacheConfig) storage.Store {
	if store == nil || cfg.Addr == "" {
		return store
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Printf("[Storage] Warning: Redis connection failed (%s): %v, recent cache disabled", cfg.Addr, err)
		client.Close()
		return store
	}

	log.Printf("[Storage] Redis recent cache connected: %s (keeps %d submissions)", cfg.Addr, cfg.Recent)
	return storage.NewCachedStore(store, client, cfg.Recent)
}

// buildNotifier selects the mail transport from config. Returning nil
// means notifications are not configured.
func buildNotifier(cfg config.MailConfig) (*notify.Notifier, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	var sender notify.Sender
	switch cfg.Provider {
	case "ses":
		sender = notify.NewSESSender(cfg.SES.AccessKey, cfg.SES.SecretKey, cfg.SES.Region)
	case "smtp":
		if cfg.SMTP.Host == "" {
			return nil, fmt.Errorf("mail provider smtp requires smtp host")
		}
		sender = notify.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password)
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}

	to := splitRecipients(cfg.To)
	notifier, err := notify.NewNotifier(sender, cfg.From, to)
	if err != nil {
		return nil, err
	}
	log.Printf("[Mail] Notifier initialized (provider: %s, recipients: %d)", sender.Name(), len(to))
	return notifier, nil
}

func splitRecipients(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// buildMediaHost selects the upload destination from config. Returning
// a nil host with a nil error means the upload route is disabled.
func buildMediaHost(ctx context.Context, cfg config.MediaConfig) (media.Host, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case "s3":
		if cfg.S3.Bucket == "" {
			return nil, fmt.Errorf("media provider s3 requires a bucket")
		}
		host, err := media.NewS3Host(ctx, cfg.S3.Bucket, cfg.S3.CDNDomain, cfg.S3.Region, cfg.S3.Variants)
		if err != nil {
			return nil, fmt.Errorf("initializing S3 media host: %w", err)
		}
		log.Printf("[Media] S3 host initialized (bucket: %s, cdn: %s, variants: %v)", cfg.S3.Bucket, cfg.S3.CDNDomain, cfg.S3.Variants)
		return host, nil
	case "relay":
		if cfg.Relay.URL == "" {
			return nil, fmt.Errorf("media provider relay requires a url")
		}
		host := media.NewRelayHost(cfg.Relay.URL, cfg.Relay.AuthToken, cfg.Relay.MaxRetries)
		log.Printf("[Media] Relay host initialized (endpoint: %s)", cfg.Relay.URL)
		return host, nil
	default:
		return nil, fmt.Errorf("unknown media provider %q", cfg.Provider)
	}
}

func main() {
	log.Println("╔════════════════════════════════════════════════════════╗")
	log.Println("║  Contact Intake Server (cmd/server/main.go)            ║")
	log.Println("║  Form submissions, notifications, upload proxy         ║")
	log.Println("╚════════════════════════════════════════════════════════╝")

	// Load configuration
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("DATABASE_URL") != "" {
		log.Println("[config] DATABASE_URL env override active")
	}

	// Pre-flight check: verify the target port is available
	host := cfg.Server.GetHost()
	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}
	if err := checkPortAvailable(host, port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}
	log.Printf("Pre-flight check passed: port %d is available", port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage (optional)
	store, err := buildStore(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	if store == nil {
		log.Println("[Storage] Not configured, submissions will be accepted without persistence")
	} else {
		store = wrapWithCache(ctx, store, cfg.Storage.Cache)
	}

	// Initialize mail notifications (optional)
	notifier, err := buildNotifier(cfg.Mail)
	if err != nil {
		log.Fatalf("Failed to initialize mail notifier: %v", err)
	}
	if notifier == nil {
		log.Println("[Mail] Not configured (missing provider, from, or to), notifications disabled")
	}

	// Initialize media host for the upload proxy (optional)
	mediaHost, err := buildMediaHost(ctx, cfg.Media)
	if err != nil {
		log.Fatalf("Failed to initialize media host: %v", err)
	}
	if mediaHost == nil {
		log.Println("[Media] Not configured, upload route disabled")
	}

	// Wire the intake pipeline and HTTP surface
	var pipeNotifier contact.Notifier
	if notifier != nil {
		pipeNotifier = notifier
	}
	pipeline := contact.NewPipeline(store, pipeNotifier)
	health := api.NewHealthChecker(store, notifier != nil)
	handlers := api.NewHandlers(pipeline, store, mediaHost, health)
	server := api.NewServer(cfg.Server, handlers)

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
		log.Printf("Starting server on %s", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	log.Println("All services initialized, server is ready")

	<-done
	log.Println("Shutting down...")

	// Cancel background tasks
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
