// Package server wires the authentication service together: storage, mail
// delivery, the HTTP API, the gRPC health endpoint and the session purge job.
// It handles graceful shutdown on SIGINT, SIGTERM and SIGQUIT.
package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/avatars"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/httpapi"
	"github.com/dmitrijs2005/gophauth/internal/server/mail"
	"github.com/dmitrijs2005/gophauth/internal/server/oauth"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/robfig/cron"

	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
)

// mailQueueSize bounds the number of verification emails waiting for delivery.
const mailQueueSize = 256

type App struct {
	config     *config.Config
	logger     logging.Logger
	repos      repomanager.RepositoryManager
	dispatcher *mail.Dispatcher
	sessions   *services.SessionService
	http       *httpapi.Server
	grpc       *gs.GRPCServer
	cron       *cron.Cron
}

// NewApp opens the store and builds every component. Logs go to out.
func NewApp(ctx context.Context, c *config.Config, out io.Writer) (*App, error) {
	logger := logging.New(out, c.LogLevel, c.LogFormat)

	repos, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app, err := newApp(ctx, c, logger, repos)
	if err != nil {
		_ = repos.Close()
		return nil, err
	}
	return app, nil
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger, repos repomanager.RepositoryManager) (*App, error) {
	sender, err := newMailSender(c, logger)
	if err != nil {
		return nil, err
	}
	dispatcher := mail.NewDispatcher(sender, logger, mailQueueSize)

	tokens := services.RandomTokenGenerator{}
	sessions := services.NewSessionService(repos, tokens, c.SessionTTL, logger)
	verifications := services.NewVerificationService(repos, tokens, dispatcher, c.FrontendURL, c.VerificationTTL, logger)
	authService := services.NewAuthService(repos, cryptox.NewBcryptHasher(c.BcryptCost), sessions, verifications, logger)

	opts := httpapi.Options{
		Auth:           authService,
		State:          auth.NewStateSigner([]byte(c.SecretKey), auth.DefaultStateTTL),
		Logger:         logger,
		RequestTimeout: c.RequestTimeout,
	}
	if c.GoogleClientID != "" {
		opts.Google = oauth.NewGoogleProvider(c.GoogleClientID, c.GoogleClientSecret, c.GoogleRedirectURL)
	}
	if c.S3Bucket != "" {
		store, err := avatars.New(ctx, avatars.Config{
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			BaseEndpoint: c.S3BaseEndpoint,
		})
		if err != nil {
			dispatcher.Close()
			return nil, fmt.Errorf("avatar storage: %w", err)
		}
		opts.Avatars = store
	}

	app := &App{
		config:     c,
		logger:     logger,
		repos:      repos,
		dispatcher: dispatcher,
		sessions:   sessions,
		http:       httpapi.NewServer(c.EndpointAddrHTTP, httpapi.NewHandler(opts).Router(), c.ShutdownTimeout, logger),
		cron:       cron.New(),
	}
	if c.EndpointAddrGRPC != "" {
		app.grpc = gs.NewGRPCServer(c.EndpointAddrGRPC, logger)
	}

	if err := app.cron.AddFunc(c.PurgeSchedule, app.purgeExpiredSessions); err != nil {
		dispatcher.Close()
		return nil, fmt.Errorf("purge schedule %q: %w", c.PurgeSchedule, err)
	}

	return app, nil
}

func newMailSender(c *config.Config, logger logging.Logger) (mail.Sender, error) {
	if c.SMTPHost == "" {
		logger.Warn(context.Background(), "no SMTP host configured, verification emails are only logged")
		return mail.NewLogSender(logger), nil
	}
	sender, err := mail.NewSMTPSender(c.SMTPHost, c.SMTPUser, c.SMTPPassword, c.MailFrom, c.SMTPSkipVerify)
	if err != nil {
		return nil, fmt.Errorf("smtp init error: %w", err)
	}
	return sender, nil
}

func (app *App) purgeExpiredSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := app.sessions.PurgeExpired(ctx); err != nil {
		app.logger.Error(ctx, "session purge failed", "error", err)
	}
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// serve runs one server and cancels the whole app when it fails.
func (app *App) serve(ctx context.Context, cancelFunc context.CancelFunc, name string, run func(context.Context) error) {
	if err := run(ctx); err != nil {
		app.logger.Error(ctx, "server failed", "server", name, "error", err)
		cancelFunc()
	}
}

// Run serves until ctx is canceled or a signal arrives, then shuts every
// component down in order.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)
	app.cron.Start()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.serve(ctx, cancelFunc, "http", app.http.Run)
	}()

	if app.grpc != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.serve(ctx, cancelFunc, "grpc", app.grpc.Run)
		}()
	}

	wg.Wait()

	app.cron.Stop()
	app.dispatcher.Close()
	if err := app.repos.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}

	app.logger.Info(ctx, "App stopped")
}
