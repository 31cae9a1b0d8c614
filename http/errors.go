package http

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"warbler/errs"
)

// handleError turns an error returned by a service into a response.
// Authorization failures and rejected input are flashed before redirecting home,
// missing records get the 404 page and everything else is logged and gets the 500 page.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch errs.ErrorCode(err) {
	case errs.ENOTFOUND:
		s.render(w, r, s.views.notFound, http.StatusNotFound, nil)
	case errs.EUNAUTHORIZED, errs.EINVALID, errs.ECONFLICT:
		s.redirectAlert(w, r, "/", errorAlert(errs.ErrorMessage(err)))
	default:
		s.logError(r, err)
		s.render(w, r, s.views.internal, http.StatusInternalServerError, nil)
	}
}

// logError logs err together with the id of the request it happened in.
func (s *Server) logError(r *http.Request, err error) {
	s.logger.WithFields(logrus.Fields{
		"request_id": requestID(r.Context()),
		"method":     r.Method,
		"path":       r.URL.Path,
	}).WithError(err).Error("Request failed")
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, s.views.notFound, http.StatusNotFound, nil)
}

// handleCSRFFailure runs when a state changing request has no valid anti-forgery token.
func (s *Server) handleCSRFFailure(w http.ResponseWriter, r *http.Request) {
	s.logger.WithFields(logrus.Fields{
		"request_id": requestID(r.Context()),
		"path":       r.URL.Path,
	}).Warn("Rejected request without a valid csrf token")
	s.redirectAlert(w, r, "/", errorAlert(errs.AccessUnauthorized.Message))
}
