package http

import (
	"net/http"

	"github.com/gorilla/sessions"

	"warbler/auth"
	"warbler/views"
)

const (
	sessionName = "warbler"
	tokenKey    = "token"
)

// session returns the cookie session of the request. A cookie that can't be
// decoded, e.g. because the session key changed, results in a new empty session.
func (s *Server) session(r *http.Request) *sessions.Session {
	session, err := s.store.Get(r, sessionName)
	if err != nil {
		s.logger.WithField("request_id", requestID(r.Context())).WithError(err).Debug("Discarding session cookie")
	}
	return session
}

// render shows the view along with the alerts flashed by previous requests.
// The current user is set from the request context, unless data already has one.
func (s *Server) render(w http.ResponseWriter, r *http.Request, v *views.View, status int, data *views.Data) {
	if data == nil {
		data = &views.Data{}
	}
	if data.User == nil {
		data.User = auth.GetUser(r.Context())
	}

	session := s.session(r)
	if flashes := session.Flashes(); len(flashes) > 0 {
		alerts := make([]views.Alert, 0, len(flashes)+len(data.Alerts))
		for _, f := range flashes {
			if alert, ok := f.(views.Alert); ok {
				alerts = append(alerts, alert)
			}
		}
		data.Alerts = append(alerts, data.Alerts...)
		if err := session.Save(r, w); err != nil {
			s.logError(r, err)
		}
	}

	if err := v.RenderStatus(w, r, status, data); err != nil {
		s.logError(r, err)
	}
}

// redirectAlert flashes the alert and redirects to url, where the alert is shown.
func (s *Server) redirectAlert(w http.ResponseWriter, r *http.Request, url string, alert views.Alert) {
	session := s.session(r)
	session.AddFlash(alert)
	if err := session.Save(r, w); err != nil {
		s.logError(r, err)
	}
	http.Redirect(w, r, url, http.StatusFound)
}

func errorAlert(msg string) views.Alert {
	return views.Alert{Level: views.AlertLvlError, Message: msg}
}

func successAlert(msg string) views.Alert {
	return views.Alert{Level: views.AlertLvlSuccess, Message: msg}
}
