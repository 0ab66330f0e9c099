package appServer

import (
	"context"
	"crypto/tls"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ticket-office/config"
	"ticket-office/internal/auth"
	"ticket-office/internal/auth/oauth"
	repository "ticket-office/internal/database/postgres"
	"ticket-office/internal/service"
	"ticket-office/internal/transport"

	"ticket-office/pkg/mailer"
	"ticket-office/pkg/postgres"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.Idle_timeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},           // ban on outdate TLS certificate
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags), // os.Stderr can be replaced with ElsasticSearch in the feature
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func NewServer(cfg *config.Config) {

	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(logrus.InfoLevel)

	// Initialize database
	db, err := postgres.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run database migrations
	if err := postgres.RunMigrations(db); err != nil {
		logrus.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewEventRepository(db)
	allocationRepo := repository.NewAllocationRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	buyerRepo := repository.NewBuyerRepository(db)

	// Seed the first admin on an empty install
	if err := service.EnsureAdmin(context.Background(), userRepo, &cfg.Admin); err != nil {
		logrus.Fatalf("Failed to seed admin account: %v", err)
	}

	// Token codecs and identity providers
	tokens := auth.NewTokenCodec(cfg.JWT.Secret, cfg.JWT.Expiration)
	activation := auth.NewActivationCodec(cfg.JWT.Secret, cfg.Activation.Salt, cfg.Activation.Expiration)

	providers := map[string]oauth.Provider{}
	if cfg.OAuth.Google.ClientID != "" {
		providers["google"] = oauth.NewGoogleProvider(oauth.ClientConfig{
			ClientID:     cfg.OAuth.Google.ClientID,
			ClientSecret: cfg.OAuth.Google.ClientSecret,
		}, nil)
		logrus.Info("Google identity provider enabled")
	}
	if cfg.OAuth.Github.ClientID != "" {
		providers["github"] = oauth.NewGithubProvider(oauth.ClientConfig{
			ClientID:     cfg.OAuth.Github.ClientID,
			ClientSecret: cfg.OAuth.Github.ClientSecret,
		}, nil)
		logrus.Info("GitHub identity provider enabled")
	}

	// Initialize services
	identity := service.NewIdentityResolver(userRepo, tokens, providers)
	userService := service.NewUserService(userRepo, identity, tokens, activation, mailer.New(&cfg.Email))
	eventService := service.NewEventService(userRepo, eventRepo, allocationRepo, identity)
	ticketService := service.NewTicketService(userRepo, ticketRepo, buyerRepo, identity)
	deviceFlow := service.NewDeviceFlowService(providers)

	// Initialize handlers
	authHandler := transport.NewAuthHandler(userService, deviceFlow)
	userHandler := transport.NewUserHandler(userService)
	eventHandler := transport.NewEventHandler(eventService)
	ticketHandler := transport.NewTicketHandler(ticketService)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, transport.InitRoutes(authHandler, userHandler, eventHandler, ticketHandler)); err != nil {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")

	if err := srv.Shutdown(context.Background()); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}
}
