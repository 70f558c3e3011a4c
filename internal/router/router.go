package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	health "github.com/soulteary/health-kit"
	logger "github.com/soulteary/logger-kit"
	middlewarekit "github.com/soulteary/middleware-kit"
	rediskit "github.com/soulteary/redis-kit/client"

	"github.com/soulteary/warden-mfa/internal/config"
	"github.com/soulteary/warden-mfa/internal/handler"
	"github.com/soulteary/warden-mfa/internal/identity"
	"github.com/soulteary/warden-mfa/internal/secret"
	"github.com/soulteary/warden-mfa/internal/session"
	"github.com/soulteary/warden-mfa/internal/store"
	"github.com/soulteary/warden-mfa/internal/totp"
)

// Setup creates the Fiber app and mounts routes. Call config.Initialize(log) before this.
func Setup(app *fiber.App, log *logger.Logger) (*session.Gate, error) {
	cfg := rediskit.DefaultConfig().
		WithAddr(config.RedisAddr).
		WithPassword(config.RedisPassword).
		WithDB(config.RedisDB)
	redisClient, err := rediskit.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	rateSubTTL := time.Hour
	rateIPTTL := time.Minute
	st := store.NewStore(redisClient, config.EnrollTTL, rateSubTTL, rateIPTTL)
	ids := identity.NewRedisStore(redisClient)
	sessions := session.NewRedisStore(redisClient, config.SessionTTL)

	encKey, err := secret.KeyBytes(config.EncryptionKey)
	if err != nil {
		encKey = nil
	}
	totpCfg := totp.Config{
		Issuer: config.TOTPIssuer,
		Period: uint(config.TOTPPeriod),
		Digits: config.TOTPDigits,
		Skew:   config.TOTPSkew,
	}
	gate := session.NewGate(ids, sessions, identity.BcryptVerifier{}, encKey, totpCfg)

	app.Use(recover.New())
	app.Use(logger.FiberMiddleware(logger.MiddlewareConfig{
		Logger:           log,
		SkipPaths:        []string{"/healthz"},
		IncludeRequestID: true,
		IncludeLatency:   true,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type,Authorization,X-Service,X-Signature,X-Timestamp,X-API-Key,X-Key-Id",
	}))

	healthConfig := health.DefaultConfig().WithServiceName(config.ServiceName)
	healthAgg := health.NewAggregator(healthConfig)
	healthAgg.AddChecker(health.NewRedisChecker(redisClient))
	app.Get("/healthz", health.FiberHandler(healthAgg))

	v1 := app.Group("/v1")
	zerologLogger := log.Zerolog()
	authHandler := middlewarekit.CombinedAuth(middlewarekit.AuthConfig{
		HMACConfig: &middlewarekit.HMACConfig{
			KeyProvider: config.GetHMACSecret,
		},
		APIKeyConfig: &middlewarekit.APIKeyConfig{
			APIKey: config.APIKey,
		},
		AllowNoAuth: config.AllowNoAuth(),
		Logger:      &zerologLogger,
	})

	v1.Post("/identity", authHandler, handler.Register(ids, identity.BcryptVerifier{}, log))
	v1.Post("/enroll/start", authHandler, handler.EnrollStart(st, ids, log))
	v1.Post("/enroll/confirm", authHandler, handler.EnrollConfirm(st, ids, log))
	v1.Post("/login", authHandler, handler.Login(gate, st, log))
	v1.Post("/mfa", authHandler, handler.MFA(gate, st, log))
	v1.Post("/logout", authHandler, handler.Logout(gate))
	v1.Get("/session", authHandler, handler.SessionStatus(gate))
	v1.Get("/status", authHandler, handler.Status(ids))
	v1.Post("/revoke", authHandler, handler.Revoke(st, ids))

	return gate, nil
}
