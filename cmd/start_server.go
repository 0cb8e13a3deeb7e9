package server

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"

	authhttp "github.com/lanekit/auth-service/internal/auth/handler/http"
	"github.com/lanekit/auth-service/internal/auth/handler/oauth"
	"github.com/lanekit/auth-service/internal/auth/repository"
	"github.com/lanekit/auth-service/internal/auth/service"
	"github.com/lanekit/auth-service/internal/configs"
	"github.com/lanekit/auth-service/internal/database"
	"github.com/lanekit/auth-service/internal/mailqueue"
	"github.com/lanekit/auth-service/internal/middleware"
	"github.com/lanekit/auth-service/internal/worker"
	"github.com/lanekit/auth-service/pkg/jwt"
	"github.com/lanekit/auth-service/pkg/mail"
)

const defaultPort = "8080"

type AppConfig struct {
	HTTPPort string
	AppEnv   string
}

func InitConfig() (*configs.Config, *AppConfig, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := configs.Load(os.Getenv("APP_ENV"))
	if err != nil {
		return nil, nil, err
	}

	httpPort := os.Getenv("PORT")
	if httpPort == "" {
		httpPort = defaultPort
	}

	appConfig := &AppConfig{
		HTTPPort: httpPort,
		AppEnv:   os.Getenv("APP_ENV"),
	}

	return cfg, appConfig, nil
}

func SetupDatabase(cfg *configs.Config) (*database.Database, *database.RedisCache, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, err
	}
	ctx := context.Background()

	if err := db.HealthCheck(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	redisCache, redisErr := database.InitRedis(ctxWithTimeout, cfg)
	if redisErr != nil {
		db.Close()
		return nil, nil, redisErr
	}

	return db, redisCache, nil
}

// Services bundles everything the HTTP layer needs.
type Services struct {
	Auth       *service.AuthService
	OAuth      *service.OAuthService
	UserRepo   repository.UserRepository
	Signer     *jwt.Signer
	Dispatcher mailqueue.Dispatcher
}

func SetupServices(db *database.Database, redisCache *database.RedisCache, cfg *configs.Config) (*Services, error) {
	signer, err := jwt.NewSigner(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret)
	if err != nil {
		return nil, err
	}

	cacheService := database.NewCacheService(redisCache.RawClient())
	userRepo := repository.NewUserRepository(db.DB)
	dispatcher := mailqueue.NewRedisDispatcher(redisCache.RawClient())

	authService := service.NewAuthService(userRepo, cfg, signer, dispatcher, cacheService)
	oauthService := service.NewOAuthService(authService)

	return &Services{
		Auth:       authService,
		OAuth:      oauthService,
		UserRepo:   userRepo,
		Signer:     signer,
		Dispatcher: dispatcher,
	}, nil
}

// StartEmailWorker launches the background email consumer and returns
// its cancel func for shutdown.
func StartEmailWorker(redisCache *database.RedisCache, cfg *configs.Config) context.CancelFunc {
	mailerService := mail.NewMailerService(cfg)
	emailWorker := worker.NewEmailWorker(redisCache.RawClient(), mailerService)

	consumerCtx, consumerCancel := context.WithCancel(context.Background())
	go emailWorker.Start(consumerCtx)
	return consumerCancel
}

func SetupFiberApp(db *database.Database, svcs *Services) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:       "Auth Service",
		ProxyHeader:   fiber.HeaderXForwardedFor,
		CaseSensitive: true,
		ErrorHandler:  middleware.ErrorHandler,
	})

	app.Use(func(c *fiber.Ctx) error {
		if c.UserContext() == nil {
			c.SetUserContext(context.Background())
		}
		return c.Next()
	})

	app.Use(healthcheck.New(healthcheck.Config{
		LivenessProbe: func(c *fiber.Ctx) bool {
			return true
		},
		LivenessEndpoint: "/live",
	}))

	app.Use(logger.New(logger.Config{
		Format: "[${ip}]:${port} ${status} - ${method} ${path}\n",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:8080,http://localhost:3000",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := db.HealthCheck(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).SendString("UNHEALTHY")
		}
		return c.SendString("OK")
	})

	app.Get("/health/queue", func(c *fiber.Ctx) error {
		pending, err := svcs.Dispatcher.PendingCount(c.Context())
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"success": false,
				"message": "Email queue unavailable",
			})
		}
		return c.JSON(fiber.Map{
			"success": true,
			"data":    fiber.Map{"pending": pending},
		})
	})

	protect := middleware.Protect(svcs.UserRepo, svcs.Signer)

	authHandler := authhttp.NewAuthHandler(svcs.Auth)
	authHandler.RegisterRoutes(app, protect)

	oauthHandler := oauth.NewOAuthHandler(svcs.OAuth)
	oauthHandler.RegisterRoutes(app)

	return app
}
