package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/Kerhoff/WishlistBot/internal/models"
	"github.com/Kerhoff/WishlistBot/internal/repository"
)

type registerUserRequest struct {
	TelegramID int64  `json:"telegram_id"`
	Username   string `json:"username"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
}

type userWishlistResponse struct {
	User  *models.User `json:"user"`
	Items []publicItem `json:"items"`
}

// publicItem is a wishlist item without its reservation holder, for lists
// that the owner or anyone knowing the handle can read.
type publicItem struct {
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"owner_id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func publicItems(items []*models.WishlistItem) []publicItem {
	out := make([]publicItem, 0, len(items))
	for _, item := range items {
		out = append(out, publicItem{
			ID:        item.ID,
			OwnerID:   item.OwnerID,
			Name:      item.Name,
			Price:     item.Price,
			URL:       item.URL,
			CreatedAt: item.CreatedAt,
			UpdatedAt: item.UpdatedAt,
		})
	}
	return out
}

func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	if req.TelegramID == 0 {
		s.respondError(w, http.StatusBadRequest, "telegram_id is required")
		return
	}

	user, err := s.svc.EnsureUser(r.Context(), req.TelegramID, req.Username, req.FirstName, req.LastName)
	if err != nil {
		s.logger.WithError(err).Error("failed to register user")
		s.respondError(w, http.StatusInternalServerError, "failed to register user")
		return
	}

	s.respondJSON(w, http.StatusOK, user)
}

func (s *Server) handleGetUserByUsername(w http.ResponseWriter, r *http.Request) {
	user, err := s.svc.LookupUser(r.Context(), mux.Vars(r)["username"])
	if errors.Is(err, repository.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		s.logger.WithError(err).Error("failed to lookup user")
		s.respondError(w, http.StatusInternalServerError, "failed to lookup user")
		return
	}

	s.respondJSON(w, http.StatusOK, user)
}

func (s *Server) handleGetWishlistByUsername(w http.ResponseWriter, r *http.Request) {
	user, items, err := s.svc.ItemsByUsername(r.Context(), mux.Vars(r)["username"])
	if errors.Is(err, repository.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		s.logger.WithError(err).Error("failed to get wishlist by username")
		s.respondError(w, http.StatusInternalServerError, "failed to get wishlist")
		return
	}

	s.respondJSON(w, http.StatusOK, userWishlistResponse{User: user, Items: publicItems(items)})
}
