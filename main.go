package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-storefront/controllers"
	"go-storefront/middleware"
	"go-storefront/reporting"
	"go-storefront/routes"
	"go-storefront/store"
	"go-storefront/utils"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	// Load environment variables from .env file
	envErr := godotenv.Load()

	cfg, err := utils.LoadConfig()
	logger := utils.NewLogger(cfg)
	if envErr != nil {
		logger.Info().Msg("No .env file found. Proceeding with environment variables.")
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg utils.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to MongoDB
	client, err := utils.ConnectDB(ctx, cfg.MongoURI)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Error().Err(err).Msg("disconnect mongodb")
		}
	}()
	db := client.Database(cfg.MongoDB)
	if err := store.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	storage, err := utils.NewStorage(cfg)
	if err != nil {
		return err
	}
	guard, err := middleware.NewGuard()
	if err != nil {
		return err
	}
	tokens := utils.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL, cfg.ResetTokenTTL)

	// Initialize stores and controllers
	products := store.NewProductStore(db, cfg.RequestTimeout)
	orders := store.NewOrderStore(db, cfg.RequestTimeout)
	users := store.NewUserStore(db, cfg.RequestTimeout)
	reporter := reporting.NewReporter(reporting.NewMongoSource(db))

	table := routes.Table(routes.Controllers{
		Users:    controllers.NewUserController(users, tokens, utils.NewMailer(cfg, logger), cfg.BaseURL),
		Products: controllers.NewProductController(products, users),
		Orders:   controllers.NewOrderController(orders, reporter),
		Uploads:  controllers.NewUploadController(storage),
	})

	// Set up the router
	router := mux.NewRouter()
	router.Use(middleware.RequestLogger(logger), middleware.Authenticate(tokens))
	if err := routes.RegisterRoutes(router, guard, table); err != nil {
		return err
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Port).Str("db", cfg.MongoDB).Msg("server is running")
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
