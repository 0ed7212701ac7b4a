package api

import (
	"errors"
	"net/http"

	"github.com/Kerhoff/WishlistBot/internal/models"
	"github.com/Kerhoff/WishlistBot/internal/repository"
	"github.com/Kerhoff/WishlistBot/internal/service"
)

type addItemRequest struct {
	TelegramID int64   `json:"telegram_id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	URL        string  `json:"url"`
}

// updateItemRequest changes only the fields present in the body
type updateItemRequest struct {
	Name  *string  `json:"name"`
	Price *float64 `json:"price"`
	URL   *string  `json:"url"`
}

type reservationRequest struct {
	UserID int64 `json:"user_id"`
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	telegramID, ok := s.requireTelegramID(w, r)
	if !ok {
		return
	}

	user, err := s.svc.UserByTelegramID(r.Context(), telegramID)
	if errors.Is(err, repository.ErrNotFound) {
		s.respondJSON(w, http.StatusOK, []publicItem{})
		return
	}
	if err != nil {
		s.logger.WithError(err).Error("failed to get user")
		s.respondError(w, http.StatusInternalServerError, "failed to get wishlist")
		return
	}

	items, err := s.svc.ListItems(r.Context(), user.ID)
	if err != nil {
		s.logger.WithError(err).Error("failed to get wishlist")
		s.respondError(w, http.StatusInternalServerError, "failed to get wishlist")
		return
	}
	s.respondJSON(w, http.StatusOK, publicItems(items))
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	if req.TelegramID == 0 {
		s.respondError(w, http.StatusBadRequest, "telegram_id is required")
		return
	}

	user, err := s.svc.UserByTelegramID(r.Context(), req.TelegramID)
	if errors.Is(err, repository.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		s.logger.WithError(err).Error("failed to get user")
		s.respondError(w, http.StatusInternalServerError, "failed to add item")
		return
	}

	item, err := s.svc.AddItem(r.Context(), user.ID, models.ItemChanges{Name: req.Name, Price: req.Price, URL: req.URL})
	if errors.Is(err, service.ErrInvalidInput) {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.logger.WithError(err).Error("failed to add item")
		s.respondError(w, http.StatusInternalServerError, "failed to add item")
		return
	}

	s.respondJSON(w, http.StatusCreated, item)
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := s.svc.GetItem(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		s.logger.WithError(err).Error("failed to get item")
		s.respondError(w, http.StatusInternalServerError, "failed to get item")
		return
	}

	s.respondJSON(w, http.StatusOK, item)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req updateItemRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	current, err := s.svc.GetItem(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		s.logger.WithError(err).Error("failed to get item")
		s.respondError(w, http.StatusInternalServerError, "failed to update item")
		return
	}

	changes := models.ItemChanges{Name: current.Name, Price: current.Price, URL: current.URL}
	if req.Name != nil {
		changes.Name = *req.Name
	}
	if req.Price != nil {
		changes.Price = *req.Price
	}
	if req.URL != nil {
		changes.URL = *req.URL
	}

	item, err := s.svc.UpdateItem(r.Context(), id, changes)
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, repository.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "item not found")
		return
	case err != nil:
		s.logger.WithError(err).Error("failed to update item")
		s.respondError(w, http.StatusInternalServerError, "failed to update item")
		return
	}

	s.respondJSON(w, http.StatusOK, item)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	err = s.svc.DeleteItem(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		s.logger.WithError(err).Error("failed to delete item")
		s.respondError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}

	s.respondJSON(w, http.StatusNoContent, nil)
}

// decodeReservation parses the item id and the acting user. It writes the
// error response itself and reports false on failure.
func (s *Server) decodeReservation(w http.ResponseWriter, r *http.Request) (itemID, userID int64, ok bool) {
	itemID, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid item id")
		return 0, 0, false
	}

	var req reservationRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return 0, 0, false
	}
	if req.UserID == 0 {
		s.respondError(w, http.StatusBadRequest, "user_id is required")
		return 0, 0, false
	}

	user, err := s.svc.Users.GetByID(r.Context(), req.UserID)
	if err != nil {
		s.logger.WithError(err).Error("failed to get user")
		s.respondError(w, http.StatusInternalServerError, "failed to get user")
		return 0, 0, false
	}
	if user == nil {
		s.respondError(w, http.StatusNotFound, "user not found")
		return 0, 0, false
	}
	return itemID, user.ID, true
}

func (s *Server) handleReserve(w http.ResponseWriter, r *http.Request) {
	itemID, userID, ok := s.decodeReservation(w, r)
	if !ok {
		return
	}

	err := s.reservations.Reserve(r.Context(), itemID, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "item not found")
	case errors.Is(err, repository.ErrAlreadyReserved):
		s.respondError(w, http.StatusConflict, "item is already reserved by someone else")
	case err != nil:
		s.logger.WithError(err).Error("failed to reserve item")
		s.respondError(w, http.StatusInternalServerError, "failed to reserve item")
	default:
		s.respondJSON(w, http.StatusOK, map[string]string{"status": "reserved"})
	}
}

func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request) {
	itemID, userID, ok := s.decodeReservation(w, r)
	if !ok {
		return
	}

	err := s.reservations.Release(r.Context(), itemID, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "item not found")
	case errors.Is(err, repository.ErrNotHolder):
		s.respondError(w, http.StatusForbidden, "only the holder or the owner can release a reservation")
	case err != nil:
		s.logger.WithError(err).Error("failed to release item")
		s.respondError(w, http.StatusInternalServerError, "failed to release item")
	default:
		s.respondJSON(w, http.StatusOK, map[string]string{"status": "released"})
	}
}
