package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hongminglow/rideledger/internal/analytics"
	"github.com/hongminglow/rideledger/internal/auth"
	"github.com/hongminglow/rideledger/internal/config"
	"github.com/hongminglow/rideledger/internal/http/handlers"
	"github.com/hongminglow/rideledger/internal/logging"
	"github.com/hongminglow/rideledger/internal/middleware"
	"github.com/hongminglow/rideledger/internal/service"
	"github.com/hongminglow/rideledger/internal/storage"
)

const shutdownTimeout = 15 * time.Second

// Server wraps an http.Server with configured routes.
type Server struct {
	inner   *http.Server
	limiter *middleware.RateLimiter
	users   *service.UserService
	log     *logging.Logger
}

// New wires services, middleware and routes, and returns a ready server.
func New(cfg config.Config, store storage.Store, log *logging.Logger) *Server {
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	users := service.NewUserService(store, tokens, log)
	categories := service.NewCategoryService(store, log)
	transactions := service.NewTransactionService(store, store, cfg.Location, log)
	engine := analytics.New(store, analytics.Options{
		Location:       cfg.Location,
		FuelCategoryID: cfg.FuelCategoryID,
		Logger:         log,
	})
	ips, err := middleware.NewIPResolver(cfg.TrustedProxies)
	if err != nil {
		log.Warn("ignoring trusted proxies", logging.FieldError, err)
	}
	limiter := middleware.NewRateLimiter(cfg.AuthRateLimitPerMinute, ips)
	authn := middleware.Authenticate(users)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(time.Now(), store).Register(mux)
	handlers.NewAuthHandler(users).Register(mux, limiter.Middleware)
	handlers.NewUserHandler(users).Register(mux, authn)
	handlers.NewCategoryHandler(categories).Register(mux, authn)
	handlers.NewTransactionHandler(transactions).Register(mux, authn)
	handlers.NewAnalyticsHandler(engine).Register(mux, authn)

	handler := middleware.Chain(mux,
		middleware.RequestLogger(log, ips),
		middleware.Recover,
		middleware.CORS(cfg.CORSOrigins),
	)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer, limiter: limiter, users: users, log: log.WithComponent(logging.ComponentHTTP)}
}

// Handler exposes the fully wrapped handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.inner.Handler
}

// Users exposes the account service for startup tasks such as superuser bootstrap.
func (s *Server) Users() *service.UserService {
	return s.users
}

// Run serves HTTP traffic until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.InfoContext(gctx, "http server listening", "addr", s.inner.Addr)
		if err := s.inner.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		s.limiter.Run(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.log.Info("shutting down http server", logging.FieldOperation, logging.OpShutdown)
		return s.inner.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
