package http

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"warbler/domain"
	"warbler/errs"
	"warbler/forms"
	"warbler/views"
)

// messagePage is the page data of a single message.
type messagePage struct {
	Message *domain.Message
}

func (s *Server) registerMessageRoutes(r *mux.Router) {
	r.HandleFunc("/messages/new", s.requireAuth(s.handleNewMessageForm)).Methods("GET")
	r.HandleFunc("/messages/new", s.requireAuth(s.handleCreateMessage)).Methods("POST")
	r.HandleFunc("/messages/{id:[0-9]+}", s.requireAuth(s.handleShowMessage)).Methods("GET")
	r.HandleFunc("/messages/{id:[0-9]+}/delete", s.requireAuth(s.handleDeleteMessage)).Methods("POST")
}

// handleNewMessageForm handles the route "GET /messages/new".
func (s *Server) handleNewMessageForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, s.views.newMsg, http.StatusOK, &views.Data{Form: &forms.MessageForm{}})
}

// handleCreateMessage handles the route "POST /messages/new".
// On success, it redirects to the author's profile, where the new message is on top.
func (s *Server) handleCreateMessage(w http.ResponseWriter, r *http.Request) {
	var form forms.MessageForm
	if err := forms.Parse(r, &form); err != nil {
		s.handleError(w, r, errs.Errorf(errs.EINVALID, "Invalid form data."))
		return
	}
	data := &views.Data{Form: &form}
	if data.Errors = forms.Validate(&form); data.Errors != nil {
		s.render(w, r, s.views.newMsg, http.StatusOK, data)
		return
	}

	user := currentUser(r)
	message := domain.Message{UserID: user.ID, Text: form.Text}
	if err := s.ms.Create(r.Context(), &message); err != nil {
		if errs.ErrorCode(err) == errs.EINVALID {
			data.AlertError(errs.ErrorMessage(err))
			s.render(w, r, s.views.newMsg, http.StatusOK, data)
			return
		}
		s.handleError(w, r, err)
		return
	}
	s.metrics.messages.Inc()
	http.Redirect(w, r, fmt.Sprintf("/users/%d", user.ID), http.StatusFound)
}

// handleShowMessage handles the route "GET /messages/{id}".
func (s *Server) handleShowMessage(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	message, err := s.ms.ByID(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.render(w, r, s.views.showMsg, http.StatusOK, &views.Data{Yield: messagePage{Message: message}})
}

// handleDeleteMessage handles the route "POST /messages/{id}/delete".
// Only the author may delete a message.
func (s *Server) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	user := currentUser(r)

	// The service checks that the message belongs to the given user.
	message := domain.Message{ID: id, UserID: user.ID}
	if err := s.ms.Delete(r.Context(), &message); err != nil {
		s.handleError(w, r, err)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/users/%d", user.ID), http.StatusFound)
}
