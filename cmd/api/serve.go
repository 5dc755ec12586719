package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	gormlogger "gorm.io/gorm/logger"

	"localmart/internal/adapter/api"
	"localmart/internal/adapter/api/handler"
	apimiddleware "localmart/internal/adapter/api/middleware"
	"localmart/internal/adapter/api/router"
	"localmart/internal/adapter/repository"
	"localmart/internal/adapter/repository/memory"
	domainrepo "localmart/internal/domain/repository"
	"localmart/internal/infrastructure/auth"
	"localmart/internal/infrastructure/database"
	"localmart/internal/infrastructure/firebase"
	"localmart/internal/infrastructure/ratelimit"
	"localmart/internal/infrastructure/redis"
	"localmart/internal/infrastructure/websocket"
	"localmart/internal/usecase"
	"localmart/pkg/config"
	"localmart/pkg/logger"
)

type stores struct {
	conversations domainrepo.ConversationRepository
	users         domainrepo.UserRepository
	products      domainrepo.ProductRepository
	closers       []func() error
}

func (s *stores) close() {
	for _, fn := range s.closers {
		if err := fn(); err != nil {
			logger.Warn("Error during shutdown: %v", err)
		}
	}
}

func NewServeCommand() *cobra.Command {
	var port, storeDriver string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Runs the HTTP API and the websocket channel.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.ServerPort = port
			}
			if storeDriver != "" {
				cfg.StoreDriver = storeDriver
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "HTTP port (defaults to SERVER_PORT)")
	cmd.Flags().StringVar(&storeDriver, "store", "", "conversation store: firestore, postgres or memory (defaults to STORE_DRIVER)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	var firebaseOpt option.ClientOption
	if cfg.StoreDriver == config.StoreFirestore || cfg.AuthProvider == config.AuthFirebase {
		opt, err := firebase.ClientOption(cfg)
		if err != nil {
			return err
		}
		firebaseOpt = opt
	}

	st, err := openStores(ctx, cfg, firebaseOpt)
	if err != nil {
		return err
	}
	defer st.close()

	verifier, err := newTokenVerifier(ctx, cfg, firebaseOpt)
	if err != nil {
		return err
	}

	wsManager := websocket.NewManager()
	if cfg.RedisAddr != "" {
		bus, err := redis.NewRoomBus(cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer bus.Close()
		wsManager.SetBus(bus)
	}

	rateLimiter := ratelimit.NewRateLimiter(ratelimit.Policy{Rate: rate.Limit(1), Burst: 20}).
		WithPolicy(ratelimit.ActionSendMessage, ratelimit.Policy{
			Rate:  rate.Limit(cfg.SendMessageRate),
			Burst: cfg.SendMessageBurst,
		})
	rateLimiter.StartCleanupRoutine(ctx, 30*time.Minute)

	chatUseCase := usecase.NewChatUseCase(st.conversations, st.users, st.products, wsManager, rateLimiter)
	dashboardUseCase := usecase.NewDashboardUseCase(st.conversations, st.users, st.products, cfg.DashboardRecentLimit)
	wsManager.SetChatService(chatUseCase)
	if err := wsManager.Start(ctx); err != nil {
		return errors.WithMessage(err, "start websocket manager")
	}

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(verifier)
	router.Setup(e, router.Handlers{
		Chat:      handler.NewChatHandler(chatUseCase),
		Dashboard: handler.NewDashboardHandler(dashboardUseCase),
		Health:    handler.NewHealthHandler(wsManager, cfg.StoreDriver),
		WebSocket: handler.NewWebSocketHandler(wsManager, authMiddleware, cfg.AllowedOrigins),
	}, authMiddleware, cfg.HTTPRequestRate)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server on port %s (store=%s, auth=%s)", cfg.ServerPort, cfg.StoreDriver, cfg.AuthProvider)
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func openStores(ctx context.Context, cfg *config.Config, firebaseOpt option.ClientOption) (*stores, error) {
	switch cfg.StoreDriver {
	case config.StoreFirestore:
		client, err := firestore.NewClient(ctx, cfg.FirebaseProject, firebaseOpt)
		if err != nil {
			return nil, errors.WithMessage(err, "create firestore client")
		}
		return &stores{
			conversations: repository.NewFirestoreConversationRepository(client),
			users:         repository.NewFirestoreUserRepository(client),
			products:      repository.NewFirestoreProductRepository(client),
			closers:       []func() error{client.Close},
		}, nil

	case config.StorePostgres:
		db, err := database.NewPostgres(cfg.DatabaseURL, gormlogger.Warn)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		return &stores{
			conversations: repository.NewGormConversationRepository(db),
			users:         repository.NewGormUserRepository(db),
			products:      repository.NewGormProductRepository(db),
			closers:       []func() error{sqlDB.Close},
		}, nil

	case config.StoreMemory:
		users := memory.NewUserRepository()
		products := memory.NewProductRepository()
		if cfg.SeedFile != "" {
			seed, err := memory.LoadSeed(cfg.SeedFile)
			if err != nil {
				return nil, err
			}
			seed.Apply(users, products)
			logger.Info("Seeded %d users and %d products from %s", len(seed.Users), len(seed.Products), cfg.SeedFile)
		}
		return &stores{
			conversations: memory.NewConversationRepository(),
			users:         users,
			products:      products,
		}, nil
	}

	return nil, errors.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}

func newTokenVerifier(ctx context.Context, cfg *config.Config, firebaseOpt option.ClientOption) (usecase.TokenVerifier, error) {
	switch cfg.AuthProvider {
	case config.AuthJWT:
		if cfg.JWTSecret == "" {
			return nil, errors.New("JWT_SECRET is required for jwt auth")
		}
		return auth.NewJWTVerifier(cfg.JWTSecret), nil

	case config.AuthFirebase:
		app, err := firebase.NewApp(ctx, cfg, firebaseOpt)
		if err != nil {
			return nil, err
		}
		authClient, err := app.Auth(ctx)
		if err != nil {
			return nil, errors.WithMessage(err, "initialize firebase auth")
		}
		return firebase.NewFirebaseAuthClient(authClient), nil
	}

	return nil, errors.Errorf("unknown AUTH_PROVIDER %q", cfg.AuthProvider)
}
