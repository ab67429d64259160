package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/vaanisewa-core/server/internal/assistant/catalog"
	"github.com/vaanisewa-core/server/internal/assistant/model"
	"github.com/vaanisewa-core/server/internal/assistant/navigation"
	"github.com/vaanisewa-core/server/internal/assistant/payments"
	"github.com/vaanisewa-core/server/internal/assistant/repo"
	"github.com/vaanisewa-core/server/internal/assistant/session"
	"github.com/vaanisewa-core/server/internal/core"
	"github.com/vaanisewa-core/server/internal/server"
	"github.com/vaanisewa-core/server/internal/speech"
	logx "github.com/vaanisewa-core/server/pkg/logger"
	pkgredis "github.com/vaanisewa-core/server/pkg/redis"
	"golang.org/x/crypto/bcrypt"
)

// AppConfig defines all configurable parameters of the assistant,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	Mode        string `envconfig:"APP_MODE" default:"console"`

	// Infrastructure
	Redis pkgredis.Config

	Dialogue     model.DialogueConfig
	Catalog      model.CatalogConfig
	Payment      model.PaymentConfig
	Storefront   model.StorefrontConfig
	Conversation model.ConversationConfig
	HTTP         model.HTTPConfig
}

func main() {
	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}
	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Environment)})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ttl, err := time.ParseDuration(cfg.Conversation.TTL)
	if err != nil {
		logx.Fatal().Err(err).Str("ttl", cfg.Conversation.TTL).Msg("invalid CONVERSATION_TTL")
	}

	rdb := cfg.Redis.MustNew(ctx)
	defer rdb.Close()
	logx.Info().Msg("connected to redis")

	books := catalog.New(catalog.DefaultBooks)
	if cfg.Catalog.File != "" {
		if books, err = catalog.Load(cfg.Catalog.File); err != nil {
			logx.Fatal().Err(err).Str("file", cfg.Catalog.File).Msg("failed to load catalog")
		}
	}

	gateway := payments.NewGateway(repo.NewRedisOrderStore(rdb, cfg.Payment.OrderTTL), cfg.Payment)
	deps := session.Deps{
		Catalog:     books,
		Cart:        repo.NewRedisCartStore(rdb),
		Auth:        repo.NewRedisUserStore(rdb, bcrypt.DefaultCost),
		Orders:      gateway,
		Transcripts: repo.NewRedisConversationRepository(rdb, ttl, cfg.Dialogue.MaxHistory),
	}
	sessionCfg := session.Config{
		Dialogue: cfg.Dialogue,
		PerPage:  cfg.Catalog.PerPage,
		Payment:  cfg.Payment,
		Links:    navigation.New(cfg.Storefront.URL),
	}

	switch core.ParseMode(cfg.Mode) {
	case core.HTTPMode:
		err = serveHTTP(ctx, cfg.HTTP, deps, sessionCfg, gateway)
	default:
		err = runConsole(ctx, deps, sessionCfg, gateway)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logx.Fatal().Err(err).Msg("assistant stopped")
	}
}

func serveHTTP(ctx context.Context, cfg model.HTTPConfig, deps session.Deps, sessionCfg session.Config, gateway *payments.Gateway) error {
	registry := server.NewRegistry(func(ctx context.Context) (*session.Session, error) {
		return session.New(ctx, deps, sessionCfg)
	})
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.New(registry, cfg, server.WithPaymentSimulator(gateway)).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.SessionIdle > 0 {
		go registry.SweepEvery(ctx, cfg.SessionIdle)
	}

	errc := make(chan error, 1)
	go func() {
		logx.Info().Str("addr", cfg.Addr).Msg("http server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// runConsole is a REPL over stdin and stdout. The payment widget is simulated:
// an opened payment is paid at once.
func runConsole(ctx context.Context, deps session.Deps, sessionCfg session.Config, gateway *payments.Gateway) error {
	sess, err := session.New(ctx, deps, sessionCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := sess.Close(context.Background()); err != nil {
			logx.Warn().Err(err).Msg("failed to clear transcript")
		}
	}()

	source := speech.NewConsoleSource(os.Stdin)
	defer func() { _ = source.Close() }()
	listener := speech.NewListener(source, speech.ListenerOptions{MaxRestarts: 20})
	speaker := speech.NewSpeaker(speech.NewConsoleSynthesizer(os.Stdout, "VaaniSewa: "), listener)

	if err := speaker.Say(ctx, sess.Welcome(ctx).Text); err != nil {
		return err
	}

	return listener.Listen(ctx, func(ctx context.Context, text string) error {
		reply, err := sess.Handle(ctx, text)
		if err != nil {
			return err
		}
		if err := speaker.Say(ctx, reply.Text); err != nil {
			return err
		}
		if reply.Action != model.ActionOpenPayment || reply.Payment == nil {
			return nil
		}

		fmt.Fprintf(os.Stdout, "[payment] paying order %s (%d paise)\n", reply.Payment.OrderID, reply.Payment.Amount)
		paid, err := sess.PaymentCallback(ctx, model.PaymentSuccess, gateway.Complete(reply.Payment.OrderID))
		if err != nil {
			return err
		}
		return speaker.Say(ctx, paid.Text)
	})
}
