package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"warbler/domain"
	"warbler/errs"
	"warbler/views"
)

// messageList is the page data of every page listing messages.
type messageList struct {
	Messages []domain.Message
	// Liked holds the IDs of the listed messages the current user likes.
	Liked map[int]bool
}

func (s *Server) registerHomeRoutes(r *mux.Router) {
	r.HandleFunc("/", s.handleHome).Methods("GET")
}

// handleHome handles the route "GET /".
// Logged in users see their feed, the messages of themselves and of the users
// they follow. Anonymous users see the landing page.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if user == nil {
		s.render(w, r, s.views.homeAnon, http.StatusOK, nil)
		return
	}

	// Get the counts shown in the user card.
	if err := s.setUserCounts(r.Context(), user); err != nil {
		s.handleError(w, r, err)
		return
	}

	// Assemble the feed.
	feed, err := s.ms.Feed(r.Context(), user.ID, domain.FeedLimit)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	list, err := s.newMessageList(r.Context(), user, feed)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	s.render(w, r, s.views.home, http.StatusOK, &views.Data{User: user, Yield: list})
}

// newMessageList looks up which of the messages the user likes.
func (s *Server) newMessageList(ctx context.Context, user *domain.User, messages []domain.Message) (messageList, error) {
	ids := make([]int, len(messages))
	for i, m := range messages {
		ids[i] = m.ID
	}
	liked, err := s.ls.LikedIDs(ctx, user.ID, ids)
	if err != nil {
		return messageList{}, err
	}
	return messageList{Messages: messages, Liked: liked}, nil
}

// setUserCounts takes a pointer to a user object, counts its messages, followers,
// followed users and likes, and sets those numbers to the according fields.
func (s *Server) setUserCounts(ctx context.Context, user *domain.User) error {
	var err error
	if user.MessageCount, err = s.us.CountMessages(ctx, user.ID); err != nil {
		return err
	}
	if user.FollowerCount, err = s.us.CountFollowers(ctx, user.ID); err != nil {
		return err
	}
	if user.FollowingCount, err = s.us.CountFollowing(ctx, user.ID); err != nil {
		return err
	}
	if user.LikeCount, err = s.us.CountLikes(ctx, user.ID); err != nil {
		return err
	}
	return nil
}

// parseID reads the "id" route variable. Routes only match digits, so
// anything unparsable is treated like an ID that doesn't exist.
func parseID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		return 0, errs.Errorf(errs.ENOTFOUND, "The ID provided is invalid.")
	}
	return id, nil
}
