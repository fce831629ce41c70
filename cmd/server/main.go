package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/vedran77/frameverse/internal/cache"
	"github.com/vedran77/frameverse/internal/config"
	"github.com/vedran77/frameverse/internal/database"
	"github.com/vedran77/frameverse/internal/repository"
	memoryrepo "github.com/vedran77/frameverse/internal/repository/memory"
	mongorepo "github.com/vedran77/frameverse/internal/repository/mongo"
	postgresrepo "github.com/vedran77/frameverse/internal/repository/postgres"
	"github.com/vedran77/frameverse/internal/service"
	"github.com/vedran77/frameverse/internal/storage"
	"github.com/vedran77/frameverse/internal/transport/http/handlers"
	"github.com/vedran77/frameverse/internal/transport/http/middleware"
	"github.com/vedran77/frameverse/internal/transport/ws"
)

const shutdownTimeout = 10 * time.Second

type repositories struct {
	users    repository.UserRepository
	posts    repository.PostRepository
	chats    repository.ChatRepository
	messages repository.MessageRepository
	ping     func(ctx context.Context) error
	close    func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("server stopped")
}

func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		return err
	}
	defer repos.close()

	images, err := openImageStore(ctx, cfg)
	if err != nil {
		return err
	}

	summaries, err := cache.NewSummaryCache(repos.users)
	if err != nil {
		return fmt.Errorf("summary cache: %w", err)
	}
	defer summaries.Close()

	// Services
	tokens := service.NewTokenIssuer(cfg.JWTSecret)
	authService := service.NewAuthService(repos.users, images, summaries, tokens)
	userService := service.NewUserService(repos.users, repos.posts)
	feedService := service.NewFeedService(repos.users, repos.posts, summaries, cfg.FeedPageSize)
	postService := service.NewPostService(repos.posts, repos.users, images, summaries)
	chatService := service.NewChatService(repos.chats, repos.users, summaries)
	messageService := service.NewMessageService(repos.messages, repos.chats)
	reconcileService := service.NewReconcileService(repos.users)

	// Realtime
	hub := ws.NewHub()
	notifier := ws.NewHubNotifier(hub)
	chatService.SetNotifier(notifier)
	messageService.SetNotifier(notifier)

	var relay *ws.RedisRelay
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parsing REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		relay = ws.NewRedisRelay(rdb)
		hub.SetPublisher(relay)
		log.Info().Str("channel", ws.RelayChannel).Msg("realtime relay enabled")
	}

	// HTTP
	errs := handlers.NewErrorStage(cfg.IsProduction())
	session := handlers.SessionConfig{UseCookie: cfg.UsesCookieAuth(), CookieSecure: cfg.CookieSecure}
	router := handlers.NewRouter(handlers.RouterConfig{
		Auth:           handlers.NewAuthHandler(authService, session, errs),
		Users:          handlers.NewUserHandler(userService, feedService, errs),
		Posts:          handlers.NewPostHandler(postService, errs),
		Chats:          handlers.NewChatHandler(chatService, errs),
		Messages:       handlers.NewMessageHandler(messageService, errs),
		Realtime:       ws.NewHandler(hub, chatService, tokens, originPatterns(cfg.FrontendOrigin)),
		Authenticator:  middleware.NewAuthenticator(tokens, cfg.UsesCookieAuth()),
		Errors:         errs,
		Logger:         log.Logger,
		AllowedOrigins: []string{cfg.FrontendOrigin},
		HealthCheck:    repos.ping,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Jobs
	scheduler := cron.New(cron.WithLogger(cronLogger{}))
	if cfg.ReconcileSchedule != "" {
		if _, err := scheduler.AddFunc(cfg.ReconcileSchedule, reconcileService.Job(ctx)); err != nil {
			return fmt.Errorf("scheduling follow reconciliation %q: %w", cfg.ReconcileSchedule, err)
		}
	}

	printBanner(cfg)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		scheduler.Start()
		<-gctx.Done()
		<-scheduler.Stop().Done()
		return nil
	})

	if relay != nil {
		g.Go(func() error {
			return relay.Run(gctx, hub)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openRepositories(ctx context.Context, cfg *config.Config) (*repositories, error) {
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		pool, err := database.ConnectPostgres(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := database.MigratePostgres(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("connected to postgres")
		return &repositories{
			users:    postgresrepo.NewUserRepo(pool),
			posts:    postgresrepo.NewPostRepo(pool),
			chats:    postgresrepo.NewChatRepo(pool),
			messages: postgresrepo.NewMessageRepo(pool),
			ping:     pool.Ping,
			close:    pool.Close,
		}, nil

	case config.DriverMongo:
		client, db, err := database.ConnectMongo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		disconnect := func() {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := client.Disconnect(ctx); err != nil {
				log.Warn().Err(err).Msg("disconnecting from mongo")
			}
		}
		if err := database.MigrateMongo(ctx, db); err != nil {
			disconnect()
			return nil, err
		}
		log.Info().Str("database", cfg.MongoDatabase).Msg("connected to mongo")
		return &repositories{
			users:    mongorepo.NewUserRepo(db),
			posts:    mongorepo.NewPostRepo(db),
			chats:    mongorepo.NewChatRepo(db),
			messages: mongorepo.NewMessageRepo(db),
			ping:     func(ctx context.Context) error { return client.Ping(ctx, nil) },
			close:    disconnect,
		}, nil

	default:
		store := memoryrepo.NewStore()
		log.Warn().Msg("using in-memory store, data is lost on restart")
		return &repositories{
			users:    store.Users(),
			posts:    store.Posts(),
			chats:    store.Chats(),
			messages: store.Messages(),
			close:    func() {},
		}, nil
	}
}

func openImageStore(ctx context.Context, cfg *config.Config) (storage.ImageStore, error) {
	if cfg.ImageStore == config.ImageStoreMemory {
		return storage.NewMemoryStore("http://localhost:" + cfg.ServerPort + "/images"), nil
	}
	store, err := storage.NewMinioStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.Info().Str("bucket", cfg.MinioBucket).Msg("connected to object storage")
	return store, nil
}

// originPatterns converts the frontend origin into a host pattern for the socket origin check.
func originPatterns(origin string) []string {
	for _, scheme := range []string{"https://", "http://"} {
		if host, ok := strings.CutPrefix(origin, scheme); ok {
			return []string{host}
		}
	}
	return []string{origin}
}

type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}

func printBanner(cfg *config.Config) {
	title := color.New(color.FgCyan, color.Bold).SprintFunc()
	label := color.New(color.FgHiBlack).SprintFunc()
	value := color.New(color.FgGreen).SprintFunc()

	fmt.Println(title("Frameverse API"))
	fmt.Printf("  %s %s\n", label("env:     "), value(cfg.Env))
	fmt.Printf("  %s %s\n", label("port:    "), value(cfg.ServerPort))
	fmt.Printf("  %s %s\n", label("database:"), value(cfg.DatabaseDriver))
	fmt.Printf("  %s %s\n", label("images:  "), value(cfg.ImageStore))
	fmt.Printf("  %s %s\n", label("auth:    "), value(cfg.AuthTransport))
}
