package http

import (
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
)

// registerLikeRoutes is a helper for registering all Like routes.
func (s *Server) registerLikeRoutes(r *mux.Router) {
	// Like a message, or unlike it if it's already liked.
	r.HandleFunc("/messages/{id:[0-9]+}/like", s.requireAuth(s.handleToggleLike)).Methods("POST")
}

// handleToggleLike handles the route "POST /messages/{id}/like".
// Users can't like their own messages. Afterwards it goes back to the page the
// like button was on.
func (s *Server) handleToggleLike(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	liked, err := s.ls.Toggle(r.Context(), currentUser(r).ID, id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	action := "unlike"
	if liked {
		action = "like"
	}
	s.metrics.likeToggles.WithLabelValues(action).Inc()

	http.Redirect(w, r, localReferer(r), http.StatusFound)
}

// localReferer returns the path of the referring page, or "/" if there is none.
// Only the path is kept, so the redirect can't leave the site.
func localReferer(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Path == "" || ref.Path[0] != '/' {
		return "/"
	}
	if ref.RawQuery != "" {
		return ref.Path + "?" + ref.RawQuery
	}
	return ref.Path
}
