package http

import (
	"context"
	"encoding/gob"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"warbler/crud"
	"warbler/domain"
	"warbler/views"
)

// ShutdownTimeout is how long Run waits for open requests once its context is done.
const ShutdownTimeout = 5 * time.Second

func init() {
	// Flashes are stored in the cookie session, which gob encodes its values.
	gob.Register(views.Alert{})
}

// Options configures a Server.
type Options struct {
	// IsProd marks cookies as secure and expects requests to come in over TLS.
	IsProd bool
	// SessionKey signs the session cookie.
	SessionKey []byte
	// CSRFKey is the 32 byte key of the anti-forgery tokens.
	CSRFKey []byte
	// DisableCSRF turns off the anti-forgery checks. It's only meant for tests.
	DisableCSRF bool
	// Logger receives request logs and server errors. Defaults to logrus.StandardLogger().
	Logger *logrus.Logger
	// Registry is where the metrics are registered and served from.
	// Defaults to a new registry.
	Registry *prometheus.Registry
}

// Server provides the http functionality of this app, namely routing, request
// handling, sessions and middleware. It resolves the current user of every
// request before handing things over to one of the crud services.
type Server struct {
	router  *mux.Router
	handler http.Handler
	logger  *logrus.Logger
	store   *sessions.CookieStore
	metrics *metrics

	us domain.UserService
	ms domain.MessageService
	fs domain.FollowService
	ls domain.LikeService
	ss domain.SessionService

	views pages
}

// pages holds every parsed view of the app.
type pages struct {
	home     *views.View
	homeAnon *views.View
	signup   *views.View
	login    *views.View
	users    *views.View
	profile  *views.View
	follows  *views.View
	likes    *views.View
	edit     *views.View
	newMsg   *views.View
	showMsg  *views.View
	notFound *views.View
	internal *views.View
}

func newPages() pages {
	return pages{
		home:     views.NewView("home"),
		homeAnon: views.NewView("home_anon"),
		signup:   views.NewView("signup"),
		login:    views.NewView("login"),
		users:    views.NewView("users_index"),
		profile:  views.NewView("users_show"),
		follows:  views.NewView("users_follows"),
		likes:    views.NewView("users_likes"),
		edit:     views.NewView("users_edit"),
		newMsg:   views.NewView("messages_new"),
		showMsg:  views.NewView("messages_show"),
		notFound: views.NewView("404"),
		internal: views.NewView("500"),
	}
}

// NewServer returns a new instance of the server, registers all necessary
// routes and gives their handlers access to the services passed in.
func NewServer(services *crud.Services, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}

	store := sessions.NewCookieStore(opts.SessionKey)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   opts.IsProd,
		SameSite: http.SameSiteLaxMode,
	}

	// Construct a new Server with a gorilla router and the services passed in.
	s := &Server{
		router:  mux.NewRouter(),
		logger:  opts.Logger,
		store:   store,
		metrics: newMetrics(opts.Registry),
		us:      services.User,
		ms:      services.Message,
		fs:      services.Follow,
		ls:      services.Like,
		ss:      services.Session,
		views:   newPages(),
	}

	// Register routes of the auth system.
	s.registerAuthRoutes(s.router)

	// Register routes of the crud system.
	s.registerHomeRoutes(s.router)
	s.registerUserRoutes(s.router)
	s.registerFollowRoutes(s.router)
	s.registerMessageRoutes(s.router)
	s.registerLikeRoutes(s.router)

	// Serve the stylesheets and images, and the metrics for prometheus to scrape.
	s.router.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(views.Static())))
	s.router.Handle("/metrics", s.metrics.handler(opts.Registry)).Methods("GET")

	// Set up middleware that needs to run on every matched request.
	mws := []mux.MiddlewareFunc{s.instrument, noCache}
	if !opts.DisableCSRF {
		mws = append(mws, s.csrfProtect(opts))
	}
	mws = append(mws, s.checkUser)
	s.router.Use(mws...)

	// The router doesn't run middleware for requests no route matches.
	s.router.NotFoundHandler = noCache(s.checkUser(http.HandlerFunc(s.handleNotFound)))

	s.handler = s.logRequests(s.router)
	return s
}

// csrfProtect constructs the anti-forgery middleware. Every page with a form gets
// a token through views.Data.CSRFField; a POST without a matching token is rejected.
func (s *Server) csrfProtect(opts Options) mux.MiddlewareFunc {
	protect := csrf.Protect(opts.CSRFKey,
		csrf.Secure(opts.IsProd),
		csrf.Path("/"),
		csrf.FieldName("csrf_token"),
		csrf.ErrorHandler(http.HandlerFunc(s.handleCSRFFailure)))
	if opts.IsProd {
		return protect
	}
	// Outside of production the app is served over plain http, so the
	// referer checks meant for https must be skipped.
	return func(next http.Handler) http.Handler {
		h := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
}

// ServeHTTP makes the Server an http.Handler, so it can be driven by tests directly.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Run listens and serves on the specified port until ctx is done,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(port),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("port", port).Info("Starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		s.logger.Info("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}
