// Package httpapi exposes the authentication service over HTTP+JSON.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/avatars"
	"github.com/dmitrijs2005/gophauth/internal/server/oauth"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/gorilla/mux"
)

// maxBodyBytes limits every request body.
const maxBodyBytes = 1 << 20

// Options configures a Handler. Google and Avatars are optional; the
// corresponding routes answer 404 when they are nil.
type Options struct {
	Auth    *services.AuthService
	Google  oauth.Provider
	State   *auth.StateSigner
	Avatars *avatars.Store
	Logger  logging.Logger
	// RequestTimeout bounds the context of every request when positive.
	RequestTimeout time.Duration
}

type Handler struct {
	auth    *services.AuthService
	google  oauth.Provider
	state   *auth.StateSigner
	avatars *avatars.Store
	logger  logging.Logger
	timeout time.Duration
}

func NewHandler(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Handler{
		auth:    opts.Auth,
		google:  opts.Google,
		state:   opts.State,
		avatars: opts.Avatars,
		logger:  logger.With("module", "http"),
		timeout: opts.RequestTimeout,
	}
}

// Router builds the route table. Middleware runs in registration order.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(h.handleNotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(h.handleMethodNotAllowed)

	r.Use(h.recoverMiddleware)
	r.Use(h.loggingMiddleware)
	r.Use(maxBodySizeMiddleware)
	r.Use(h.timeoutMiddleware)

	r.HandleFunc("/healthz", h.handleHealth).Methods(http.MethodGet)

	// subrouters do not inherit these handlers
	a := r.PathPrefix("/auth").Subrouter()
	a.NotFoundHandler = r.NotFoundHandler
	a.MethodNotAllowedHandler = r.MethodNotAllowedHandler
	a.HandleFunc("/register", h.handleRegister).Methods(http.MethodPost)
	a.HandleFunc("/login", h.handleLogin).Methods(http.MethodPost)
	a.HandleFunc("/verify-email", h.handleVerifyEmail).Methods(http.MethodGet, http.MethodPost)
	a.HandleFunc("/check-email", h.handleCheckEmail).Methods(http.MethodGet, http.MethodPost)
	a.HandleFunc("/google", h.handleGoogle).Methods(http.MethodGet)
	a.HandleFunc("/google/callback", h.handleGoogleCallback).Methods(http.MethodGet)

	a.Handle("/logout", bearerMiddleware(http.HandlerFunc(h.handleLogout))).Methods(http.MethodPost)
	a.Handle("/me", bearerMiddleware(http.HandlerFunc(h.handleMe))).Methods(http.MethodGet)
	a.Handle("/me/avatar", bearerMiddleware(http.HandlerFunc(h.handleAvatar))).Methods(http.MethodPost)

	return r
}

// Server runs the HTTP listener until its context ends.
type Server struct {
	address         string
	handler         http.Handler
	shutdownTimeout time.Duration
	logger          logging.Logger
}

func NewServer(address string, handler http.Handler, shutdownTimeout time.Duration, l logging.Logger) *Server {
	return &Server{
		address:         address,
		handler:         handler,
		shutdownTimeout: shutdownTimeout,
		logger:          l.With("module", "http_server"),
	}
}

func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

// Serve accepts connections on lis and shuts down gracefully once ctx is done.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopped := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
		defer cancel()
		stopped <- srv.Shutdown(sctx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", lis.Addr().String())

	if err := srv.Serve(lis); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-stopped
}
