package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"warbler/domain"
	"warbler/errs"
	"warbler/forms"
	"warbler/views"
)

// profilePage is the page data of the profile and of the pages hanging off it.
type profilePage struct {
	Profile *domain.User
	// Following reports whether the current user follows Profile.
	Following bool
	Title     string
	Users     []domain.User
	messageList
}

// usersPage is the page data of the user search.
type usersPage struct {
	Query string
	Users []domain.User
}

func (s *Server) registerUserRoutes(r *mux.Router) {
	// Search for users.
	r.HandleFunc("/users", s.requireAuth(s.handleListUsers)).Methods("GET")

	// The profile of a specific user and the lists linked from it.
	r.HandleFunc("/users/{id:[0-9]+}", s.requireAuth(s.handleShowUser)).Methods("GET")
	r.HandleFunc("/users/{id:[0-9]+}/following", s.requireAuth(s.handleShowFollowing)).Methods("GET")
	r.HandleFunc("/users/{id:[0-9]+}/followers", s.requireAuth(s.handleShowFollowers)).Methods("GET")
	r.HandleFunc("/users/{id:[0-9]+}/likes", s.requireAuth(s.handleShowLikes)).Methods("GET")

	// Update or delete the current user.
	r.HandleFunc("/users/profile", s.requireAuth(s.handleEditProfileForm)).Methods("GET")
	r.HandleFunc("/users/profile", s.requireAuth(s.handleEditProfile)).Methods("POST")
	r.HandleFunc("/users/delete", s.requireAuth(s.handleDeleteUser)).Methods("POST")
}

// handleListUsers handles the route "GET /users".
// With a "q" query parameter, it only lists users whose username contains it.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	users, err := s.us.Search(r.Context(), query)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.render(w, r, s.views.users, http.StatusOK, &views.Data{Yield: usersPage{Query: query, Users: users}})
}

// loadProfile fetches the user of the "id" route variable along with its counts,
// and whether the current user follows it.
func (s *Server) loadProfile(r *http.Request) (*profilePage, error) {
	// Parse the User ID from the url.
	id, err := parseID(r)
	if err != nil {
		return nil, err
	}

	// Fetch the user from the database.
	profile, err := s.us.ByID(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if err := s.setUserCounts(r.Context(), profile); err != nil {
		return nil, err
	}

	// Check if the current user is following that user.
	page := &profilePage{Profile: profile}
	if me := currentUser(r); me.ID != profile.ID {
		if page.Following, err = s.fs.IsFollowing(r.Context(), me.ID, profile.ID); err != nil {
			return nil, err
		}
	}
	return page, nil
}

// handleShowUser handles the route "GET /users/{id}".
// It shows the user's profile and messages, newest first.
func (s *Server) handleShowUser(w http.ResponseWriter, r *http.Request) {
	page, err := s.loadProfile(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	messages, err := s.ms.ByUserID(r.Context(), page.Profile.ID)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if page.messageList, err = s.newMessageList(r.Context(), currentUser(r), messages); err != nil {
		s.handleError(w, r, err)
		return
	}
	s.render(w, r, s.views.profile, http.StatusOK, &views.Data{Yield: page})
}

// handleShowFollowing handles the route "GET /users/{id}/following".
func (s *Server) handleShowFollowing(w http.ResponseWriter, r *http.Request) {
	page, err := s.loadProfile(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	page.Title = "Following"
	if page.Users, err = s.fs.Following(r.Context(), page.Profile.ID); err != nil {
		s.handleError(w, r, err)
		return
	}
	s.render(w, r, s.views.follows, http.StatusOK, &views.Data{Yield: page})
}

// handleShowFollowers handles the route "GET /users/{id}/followers".
func (s *Server) handleShowFollowers(w http.ResponseWriter, r *http.Request) {
	page, err := s.loadProfile(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	page.Title = "Followers"
	if page.Users, err = s.fs.Followers(r.Context(), page.Profile.ID); err != nil {
		s.handleError(w, r, err)
		return
	}
	s.render(w, r, s.views.follows, http.StatusOK, &views.Data{Yield: page})
}

// handleShowLikes handles the route "GET /users/{id}/likes".
// It lists the messages the user likes.
func (s *Server) handleShowLikes(w http.ResponseWriter, r *http.Request) {
	page, err := s.loadProfile(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	messages, err := s.ls.LikedMessages(r.Context(), page.Profile.ID)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if page.messageList, err = s.newMessageList(r.Context(), currentUser(r), messages); err != nil {
		s.handleError(w, r, err)
		return
	}
	s.render(w, r, s.views.likes, http.StatusOK, &views.Data{Yield: page})
}

// handleEditProfileForm handles the route "GET /users/profile".
// The form is prefilled with the current user's data.
func (s *Server) handleEditProfileForm(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	form := &forms.UserEditForm{
		Username:       user.Username,
		Email:          user.Email,
		ImageURL:       user.ImageURL,
		HeaderImageURL: user.HeaderImageURL,
		Bio:            user.Bio,
		Location:       user.Location,
	}
	s.render(w, r, s.views.edit, http.StatusOK, &views.Data{Form: form})
}

// handleEditProfile handles the route "POST /users/profile".
// The current password has to be confirmed before anything is changed.
func (s *Server) handleEditProfile(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	// Parse and validate the posted form.
	var form forms.UserEditForm
	if err := forms.Parse(r, &form); err != nil {
		s.handleError(w, r, errs.Errorf(errs.EINVALID, "Invalid form data."))
		return
	}
	data := &views.Data{Form: &form}
	if data.Errors = forms.Validate(&form); data.Errors != nil {
		s.render(w, r, s.views.edit, http.StatusOK, data)
		return
	}

	// Confirm the password.
	profileURL := fmt.Sprintf("/users/%d", user.ID)
	if _, err := s.us.Authenticate(r.Context(), user.Username, form.Password); err != nil {
		if errs.ErrorCode(err) == errs.EUNAUTHORIZED {
			s.redirectAlert(w, r, profileURL, errorAlert("Invalid password"))
			return
		}
		s.handleError(w, r, err)
		return
	}

	// Update the current user with the data from the form.
	updated := *user
	updated.Username = form.Username
	updated.Email = form.Email
	updated.ImageURL = form.ImageURL
	updated.HeaderImageURL = form.HeaderImageURL
	updated.Bio = form.Bio
	updated.Location = form.Location
	if err := s.us.Update(r.Context(), &updated); err != nil {
		switch errs.ErrorCode(err) {
		case errs.EINVALID, errs.ECONFLICT:
			data.AlertError(errs.ErrorMessage(err))
			s.render(w, r, s.views.edit, http.StatusOK, data)
		default:
			s.handleError(w, r, err)
		}
		return
	}
	s.redirectAlert(w, r, profileURL, successAlert("Updated Profile"))
}

// handleDeleteUser handles the route "POST /users/delete".
// It deletes the current user with everything it owns and ends the session.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if err := s.us.Delete(r.Context(), user.ID); err != nil {
		s.handleError(w, r, err)
		return
	}

	// The sessions are gone with the user, only the cookie is left to clear.
	cookie := s.session(r)
	delete(cookie.Values, tokenKey)
	s.redirectAlert(w, r, "/signup", successAlert("User successfully deleted"))
}
