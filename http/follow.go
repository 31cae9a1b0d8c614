package http

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"warbler/domain"
	"warbler/errs"
)

func (s *Server) registerFollowRoutes(r *mux.Router) {
	r.HandleFunc("/users/follow/{id:[0-9]+}", s.requireAuth(s.handleCreateFollow)).Methods("POST")
	r.HandleFunc("/users/stop-following/{id:[0-9]+}", s.requireAuth(s.handleDeleteFollow)).Methods("POST")
}

// handleCreateFollow handles the route "POST /users/follow/{id}".
// The current user starts following the user with the given ID.
func (s *Server) handleCreateFollow(w http.ResponseWriter, r *http.Request) {
	followedID, err := parseID(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	follower := currentUser(r)

	follow := domain.Follow{FollowerID: follower.ID, FollowedID: followedID}
	if err := s.fs.Create(r.Context(), &follow); err != nil {
		s.handleFollowError(w, r, follower, err)
		return
	}
	s.metrics.follows.Inc()
	http.Redirect(w, r, fmt.Sprintf("/users/%d/following", follower.ID), http.StatusFound)
}

// handleDeleteFollow handles the route "POST /users/stop-following/{id}".
// The current user stops following the user with the given ID.
func (s *Server) handleDeleteFollow(w http.ResponseWriter, r *http.Request) {
	followedID, err := parseID(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	follower := currentUser(r)

	follow := domain.Follow{FollowerID: follower.ID, FollowedID: followedID}
	if err := s.fs.Delete(r.Context(), &follow); err != nil {
		s.handleFollowError(w, r, follower, err)
		return
	}
	s.metrics.unfollows.Inc()
	http.Redirect(w, r, fmt.Sprintf("/users/%d/following", follower.ID), http.StatusFound)
}

// handleFollowError flashes rejected follows on the follower's following page.
func (s *Server) handleFollowError(w http.ResponseWriter, r *http.Request, follower *domain.User, err error) {
	if errs.ErrorCode(err) == errs.EINVALID {
		s.redirectAlert(w, r, fmt.Sprintf("/users/%d/following", follower.ID), errorAlert(errs.ErrorMessage(err)))
		return
	}
	s.handleError(w, r, err)
}
