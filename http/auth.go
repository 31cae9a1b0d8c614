package http

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"warbler/auth"
	"warbler/domain"
	"warbler/errs"
	"warbler/forms"
	"warbler/views"
)

func (s *Server) registerAuthRoutes(r *mux.Router) {
	r.HandleFunc("/signup", s.requireAnonymous(s.handleSignupForm)).Methods("GET")
	r.HandleFunc("/signup", s.requireAnonymous(s.handleSignup)).Methods("POST")
	r.HandleFunc("/login", s.requireAnonymous(s.handleLoginForm)).Methods("GET")
	r.HandleFunc("/login", s.requireAnonymous(s.handleLogin)).Methods("POST")
	r.HandleFunc("/logout", s.requireAuth(s.handleLogout)).Methods("POST")
}

// handleSignupForm handles the route "GET /signup".
func (s *Server) handleSignupForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, s.views.signup, http.StatusOK, &views.Data{Form: &forms.SignupForm{}})
}

// handleSignup handles the route "POST /signup".
// It creates a new user, signs it in and redirects to the home page.
// Invalid input and taken credentials re-render the form.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	// Parse and validate the posted form.
	var form forms.SignupForm
	if err := forms.Parse(r, &form); err != nil {
		s.handleError(w, r, errs.Errorf(errs.EINVALID, "Invalid form data."))
		return
	}
	data := &views.Data{Form: &form}
	if data.Errors = forms.Validate(&form); data.Errors != nil {
		s.render(w, r, s.views.signup, http.StatusOK, data)
		return
	}

	// Create the user. The service takes care of hashing and the profile defaults.
	user := domain.User{
		Username: form.Username,
		Email:    form.Email,
		Password: form.Password,
		ImageURL: form.ImageURL,
	}
	if err := s.us.Signup(r.Context(), &user); err != nil {
		switch errs.ErrorCode(err) {
		case errs.EINVALID, errs.ECONFLICT:
			data.AlertError(errs.ErrorMessage(err))
			s.render(w, r, s.views.signup, http.StatusOK, data)
		default:
			s.handleError(w, r, err)
		}
		return
	}
	s.metrics.signups.Inc()

	// Sign the new user in.
	if err := s.signIn(w, r, &user); err != nil {
		s.handleError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// handleLoginForm handles the route "GET /login".
func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, s.views.login, http.StatusOK, &views.Data{Form: &forms.LoginForm{}})
}

// handleLogin handles the route "POST /login".
// It authenticates the posted credentials and starts a session for the user.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var form forms.LoginForm
	if err := forms.Parse(r, &form); err != nil {
		s.handleError(w, r, errs.Errorf(errs.EINVALID, "Invalid form data."))
		return
	}
	data := &views.Data{Form: &form}
	if data.Errors = forms.Validate(&form); data.Errors != nil {
		s.render(w, r, s.views.login, http.StatusOK, data)
		return
	}

	user, err := s.us.Authenticate(r.Context(), form.Username, form.Password)
	if err != nil {
		if errs.ErrorCode(err) == errs.EUNAUTHORIZED {
			data.AlertError(errs.ErrorMessage(err))
			s.render(w, r, s.views.login, http.StatusOK, data)
			return
		}
		s.handleError(w, r, err)
		return
	}

	if err := s.signIn(w, r, user); err != nil {
		s.handleError(w, r, err)
		return
	}
	s.redirectAlert(w, r, "/", successAlert(fmt.Sprintf("Hello, %s!", user.Username)))
}

// handleLogout handles the route "POST /logout".
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.signOut(w, r); err != nil {
		s.handleError(w, r, err)
		return
	}
	s.redirectAlert(w, r, "/login", successAlert("Logged out, Going so soon :("))
}

// signIn starts a new session for the user and stores its token in the session cookie.
func (s *Server) signIn(w http.ResponseWriter, r *http.Request, user *domain.User) error {
	session, err := s.ss.Create(r.Context(), user.ID)
	if err != nil {
		return err
	}
	cookie := s.session(r)
	cookie.Values[tokenKey] = session.Token
	return cookie.Save(r, w)
}

// signOut ends the session of the request, both in the database and in the cookie.
func (s *Server) signOut(w http.ResponseWriter, r *http.Request) error {
	cookie := s.session(r)
	if token, ok := cookie.Values[tokenKey].(string); ok {
		if err := s.ss.Delete(r.Context(), token); err != nil {
			return err
		}
	}
	delete(cookie.Values, tokenKey)
	return cookie.Save(r, w)
}

// checkUser resolves the current user from the session cookie and stores it in the
// request context. Requests without a valid session continue anonymously.
func (s *Server) checkUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := s.session(r).Values[tokenKey].(string)
		if !ok || token == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, err := s.ss.UserByToken(r.Context(), token)
		if err != nil {
			if errs.ErrorCode(err) == errs.EUNAUTHORIZED {
				next.ServeHTTP(w, r)
				return
			}
			s.handleError(w, r, err)
			return
		}
		r = r.WithContext(auth.SetUser(r.Context(), user))
		next.ServeHTTP(w, r)
	})
}

// requireAuth makes sure that there is a current user before the handler runs.
// Anonymous requests are redirected to the home page.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if auth.GetUser(r.Context()) == nil {
			s.redirectAlert(w, r, "/", errorAlert(errs.AccessUnauthorized.Message))
			return
		}
		next.ServeHTTP(w, r)
	}
}

// requireAnonymous sends logged in users to the home page.
func (s *Server) requireAnonymous(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if auth.GetUser(r.Context()) != nil {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	}
}

// currentUser returns the user set by checkUser. Only call it behind requireAuth.
func currentUser(r *http.Request) *domain.User {
	return auth.GetUser(r.Context())
}
