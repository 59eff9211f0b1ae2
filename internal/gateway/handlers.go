package gateway

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const maxBodyBytes = 1 << 20

func readBody(r *http.Request) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
}

// requireUser checks the sharer header carries a positive integer id.
func (g *Gateway) requireUser(w http.ResponseWriter, r *http.Request) bool {
	raw := r.Header.Get(userIDHeader)
	if raw == "" {
		g.writeError(w, r, http.StatusBadRequest, "missing "+userIDHeader+" header")
		return false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		g.writeError(w, r, http.StatusBadRequest, "invalid "+userIDHeader+" header: "+raw)
		return false
	}
	return true
}

// checkPaging validates from/size and fills in the defaults so the server
// always sees an explicit pair when either was given.
func (g *Gateway) checkPaging(w http.ResponseWriter, r *http.Request) bool {
	q := r.URL.Query()
	rawFrom, rawSize := q.Get("from"), q.Get("size")
	if rawFrom == "" && rawSize == "" {
		return true
	}

	from := 0
	if rawFrom != "" {
		v, err := strconv.Atoi(rawFrom)
		if err != nil || v < 0 {
			g.writeError(w, r, http.StatusBadRequest, "from must be a non-negative integer")
			return false
		}
		from = v
	}

	size := 10
	if rawSize != "" {
		v, err := strconv.Atoi(rawSize)
		if err != nil || v <= 0 {
			g.writeError(w, r, http.StatusBadRequest, "size must be a positive integer")
			return false
		}
		size = v
	}

	q.Set("from", strconv.Itoa(from))
	q.Set("size", strconv.Itoa(size))
	r.URL.RawQuery = q.Encode()
	return true
}

func (g *Gateway) decode(w http.ResponseWriter, r *http.Request, body []byte, dst any) bool {
	if err := json.Unmarshal(body, dst); err != nil {
		g.writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// passthrough forwards without validation beyond routing.
func (g *Gateway) passthrough(w http.ResponseWriter, r *http.Request) {
	g.forward(w, r, nil, nil)
}

func (g *Gateway) passthroughID(w http.ResponseWriter, r *http.Request) {
	g.forward(w, r, nil, nil)
}

// identified forwards requests that only need a valid sharer header.
func (g *Gateway) identified(w http.ResponseWriter, r *http.Request) {
	if !g.requireUser(w, r) {
		return
	}
	g.forward(w, r, nil, nil)
}

// Users

func (g *Gateway) createUser(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		g.writeError(w, r, http.StatusBadRequest, "unreadable request body")
		return
	}

	var user struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if !g.decode(w, r, body, &user) {
		return
	}
	if strings.TrimSpace(user.Name) == "" {
		g.writeError(w, r, http.StatusBadRequest, "name must not be blank")
		return
	}
	if !validEmail(user.Email) {
		g.writeError(w, r, http.StatusBadRequest, "email must be a valid address")
		return
	}

	g.forward(w, r, body, nil)
}

func (g *Gateway) updateUser(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		g.writeError(w, r, http.StatusBadRequest, "unreadable request body")
		return
	}

	var patch struct {
		Name  *string `json:"name"`
		Email *string `json:"email"`
	}
	if !g.decode(w, r, body, &patch) {
		return
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		g.writeError(w, r, http.StatusBadRequest, "name must not be blank")
		return
	}
	if patch.Email != nil && !validEmail(*patch.Email) {
		g.writeError(w, r, http.StatusBadRequest, "email must be a valid address")
		return
	}

	g.forward(w, r, body, nil)
}

func validEmail(email string) bool {
	email = strings.TrimSpace(email)
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1
}

// Items

func (g *Gateway) createItem(w http.ResponseWriter, r *http.Request) {
	if !g.requireUser(w, r) {
		return
	}
	body, err := readBody(r)
	if err != nil {
		g.writeError(w, r, http.StatusBadRequest, "unreadable request body")
		return
	}

	var item struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Available   *bool  `json:"available"`
	}
	if !g.decode(w, r, body, &item) {
		return
	}
	if strings.TrimSpace(item.Name) == "" {
		g.writeError(w, r, http.StatusBadRequest, "name must not be blank")
		return
	}
	if strings.TrimSpace(item.Description) == "" {
		g.writeError(w, r, http.StatusBadRequest, "description must not be blank")
		return
	}
	if item.Available == nil {
		g.writeError(w, r, http.StatusBadRequest, "available is required")
		return
	}

	g.forward(w, r, body, nil)
}

func (g *Gateway) updateItem(w http.ResponseWriter, r *http.Request) {
	if !g.requireUser(w, r) {
		return
	}
	body, err := readBody(r)
	if err != nil {
		g.writeError(w, r, http.StatusBadRequest, "unreadable request body")
		return
	}
	g.forward(w, r, body, nil)
}

func (g *Gateway) searchItems(w http.ResponseWriter, r *http.Request) {
	if !g.requireUser(w, r) {
		return
	}
	if !g.checkPaging(w, r) {
		return
	}
	g.forward(w, r, nil, nil)
}

func (g *Gateway) itemWithShape(w http.ResponseWriter, r *http.Request) {
	if !g.requireUser(w, r) {
		return
	}
	g.forward(w, r, nil, ensureItemShape)
}

func (g *Gateway) itemsWithShape(w http.ResponseWriter, r *http.Request) {
	if !g.requireUser(w, r) {
		return
	}
	g.forward(w, r, nil, ensureItemListShape)
}

func (g *Gateway) addComment(w http.ResponseWriter, r *http.Request) {
	if !g.requireUser(w, r) {
		return
	}
	body, err := readBody(r)
	if err != nil {
		g.writeError(w, r, http.StatusBadRequest, "unreadable request body")
		return
	}

	var comment struct {
		Text string `json:"text"`
	}
	if !g.decode(w, r, body, &comment) {
		return
	}
	if strings.TrimSpace(comment.Text) == "" {
		g.writeError(w, r, http.StatusBadRequest, "text must not be blank")
		return
	}

	g.forward(w, r, body, nil)
}

// Bookings

func (g *Gateway) createBooking(w http.ResponseWriter, r *http.Request) {
	if !g.requireUser(w, r) {
		return
	}
	body, err := readBody(r)
	if err != nil {
		g.writeError(w, r, http.StatusBadRequest, "unreadable request body")
		return
	}

	var booking struct {
		ItemID int64      `json:"itemId"`
		Start  *time.Time `json:"start"`
		End    *time.Time `json:"end"`
	}
	if !g.decode(w, r, body, &booking) {
		return
	}
	if booking.ItemID <= 0 {
		g.writeError(w, r, http.StatusBadRequest, "itemId is required")
		return
	}
	if booking.Start == nil || booking.End == nil {
		g.writeError(w, r, http.StatusBadRequest, "start and end are required")
		return
	}
	now := time.Now()
	if booking.Start.Before(now.Add(-time.Minute)) {
		g.writeError(w, r, http.StatusBadRequest, "start must not be in the past")
		return
	}
	if !booking.Start.Before(*booking.End) {
		g.writeError(w, r, http.StatusBadRequest, "start must be before end")
		return
	}

	g.forward(w, r, body, nil)
}

// listBookings normalizes the state parameter case before forwarding; the
// server itself stays case-sensitive.
func (g *Gateway) listBookings(w http.ResponseWriter, r *http.Request) {
	if !g.requireUser(w, r) {
		return
	}
	if !g.checkPaging(w, r) {
		return
	}

	q := r.URL.Query()
	if state := q.Get("state"); state != "" {
		q.Set("state", strings.ToUpper(strings.TrimSpace(state)))
		r.URL.RawQuery = q.Encode()
	}

	g.forward(w, r, nil, nil)
}

func (g *Gateway) approveBooking(w http.ResponseWriter, r *http.Request) {
	if !g.requireUser(w, r) {
		return
	}
	if _, err := strconv.ParseBool(r.URL.Query().Get("approved")); err != nil {
		g.writeError(w, r, http.StatusBadRequest, "approved must be true or false")
		return
	}
	g.forward(w, r, nil, nil)
}

// Requests

func (g *Gateway) createRequest(w http.ResponseWriter, r *http.Request) {
	if !g.requireUser(w, r) {
		return
	}
	body, err := readBody(r)
	if err != nil {
		g.writeError(w, r, http.StatusBadRequest, "unreadable request body")
		return
	}

	var request struct {
		Description string `json:"description"`
	}
	if !g.decode(w, r, body, &request) {
		return
	}
	if strings.TrimSpace(request.Description) == "" {
		g.writeError(w, r, http.StatusBadRequest, "description must not be blank")
		return
	}

	g.forward(w, r, body, nil)
}

func (g *Gateway) listAllRequests(w http.ResponseWriter, r *http.Request) {
	if !g.requireUser(w, r) {
		return
	}
	if !g.checkPaging(w, r) {
		return
	}
	g.forward(w, r, nil, nil)
}
