package api

import (
	"net/http"
	"strconv"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/models"
)

const userIDHeader = "X-Sharer-User-Id"

func userIDFrom(r *http.Request) (int64, error) {
	raw := r.Header.Get(userIDHeader)
	if raw == "" {
		return 0, domain.BadRequest("missing %s header", userIDHeader)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.BadRequest("invalid %s header: %s", userIDHeader, raw)
	}
	return id, nil
}

func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.BadRequest("invalid id: %s", raw)
	}
	return id, nil
}

// pageFrom parses the from/size query pair. Absent size means no paging.
func pageFrom(r *http.Request) (*database.Page, error) {
	q := r.URL.Query()
	rawFrom, rawSize := q.Get("from"), q.Get("size")
	if rawFrom == "" && rawSize == "" {
		return nil, nil
	}

	from := 0
	if rawFrom != "" {
		v, err := strconv.Atoi(rawFrom)
		if err != nil || v < 0 {
			return nil, domain.BadRequest("invalid from: %s", rawFrom)
		}
		from = v
	}

	size := 10
	if rawSize != "" {
		v, err := strconv.Atoi(rawSize)
		if err != nil || v <= 0 {
			return nil, domain.BadRequest("invalid size: %s", rawSize)
		}
		size = v
	}

	return &database.Page{From: from, Size: size}, nil
}

func stateFrom(r *http.Request) string {
	state := r.URL.Query().Get("state")
	if state == "" {
		return "ALL"
	}
	return state
}

// Users

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var user models.User
	if err := decodeJSON(r, &user); err != nil {
		s.writeError(w, r, err)
		return
	}

	created, err := s.users.Create(r.Context(), &user)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.GetAll(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.users.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var patch models.UserPatch
	if err := decodeJSON(r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.users.Update(r.Context(), id, patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.users.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Items

func (s *Server) createItem(w http.ResponseWriter, r *http.Request) {
	ownerID, err := userIDFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var item models.Item
	if err := decodeJSON(r, &item); err != nil {
		s.writeError(w, r, err)
		return
	}

	created, err := s.items.Create(r.Context(), ownerID, &item)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) listOwnerItems(w http.ResponseWriter, r *http.Request) {
	ownerID, err := userIDFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	items, err := s.items.GetAllForOwner(r.Context(), ownerID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) searchItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.items.Search(r.Context(), r.URL.Query().Get("text"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) getItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	viewerID, err := userIDFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	detail, err := s.items.GetByID(r.Context(), itemID, viewerID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	userID, err := userIDFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var patch models.ItemPatch
	if err := decodeJSON(r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}

	item, err := s.items.Update(r.Context(), itemID, userID, patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.items.Delete(r.Context(), itemID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) addComment(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	authorID, err := userIDFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var body struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if body.Text == "" {
		s.writeError(w, r, domain.BadRequest("comment text must not be blank"))
		return
	}

	comment, err := s.items.AddComment(r.Context(), itemID, authorID, body.Text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comment)
}

// Bookings

func (s *Server) createBooking(w http.ResponseWriter, r *http.Request) {
	bookerID, err := userIDFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var in models.BookingCreate
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	booking, err := s.bookings.Create(r.Context(), bookerID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (s *Server) approveBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	userID, err := userIDFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	approved, err := strconv.ParseBool(r.URL.Query().Get("approved"))
	if err != nil {
		s.writeError(w, r, domain.BadRequest("approved must be true or false"))
		return
	}

	booking, err := s.bookings.Approve(r.Context(), bookingID, userID, approved)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *Server) getBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	userID, err := userIDFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	booking, err := s.bookings.GetByID(r.Context(), bookingID, userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *Server) listBookerBookings(w http.ResponseWriter, r *http.Request) {
	s.listBookings(w, r, false)
}

func (s *Server) listOwnerBookings(w http.ResponseWriter, r *http.Request) {
	s.listBookings(w, r, true)
}

func (s *Server) listBookings(w http.ResponseWriter, r *http.Request, asOwner bool) {
	userID, err := userIDFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page, err := pageFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	state := stateFrom(r)
	var bookings []models.Booking
	if asOwner {
		bookings, err = s.bookings.ListForOwner(r.Context(), userID, state, page)
	} else {
		bookings, err = s.bookings.ListForBooker(r.Context(), userID, state, page)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

// Requests

func (s *Server) createRequest(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var body struct {
		Description string `json:"description"`
	}
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	request, err := s.requests.Create(r.Context(), userID, body.Description)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, request)
}

func (s *Server) listOwnRequests(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	requests, err := s.requests.GetOwn(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

func (s *Server) listAllRequests(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page, err := pageFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	requests, err := s.requests.GetAll(r.Context(), userID, page)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

func (s *Server) getRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	userID, err := userIDFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	request, err := s.requests.GetByID(r.Context(), requestID, userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, request)
}
