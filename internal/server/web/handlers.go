package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ordrebog/ordrebog/internal/common"
	"github.com/ordrebog/ordrebog/internal/models"
	"github.com/ordrebog/ordrebog/internal/server/services"
)

// adminActor is recorded in the audit trail for mutations made through
// the web view.
const adminActor = "webadmin"

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// httpError maps domain sentinels to status codes.
func (s *Server) httpError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrSessionNotFound),
		errors.Is(err, common.ErrOrderNotFound),
		errors.Is(err, common.ErrNoActiveSession):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data interface{}) {
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error(r.Context(), "template render failed", "template", name, "error", err)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	names, current, err := s.ledger.Overview(r.Context())
	if err != nil {
		s.httpError(w, r, err)
		return
	}
	s.render(w, r, "index.html", map[string]interface{}{
		"Admin":   s.isAdmin(r),
		"Names":   names,
		"Current": current,
	})
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	if !s.checkAdminKey(r.URL.Query().Get("key")) {
		http.Error(w, "invalid admin key", http.StatusForbidden)
		return
	}

	token, err := GenerateToken([]byte(s.secretKey), s.tokenTTL)
	if err != nil {
		s.httpError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     adminCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.tokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: adminCookie, Value: "", Path: "/", MaxAge: -1})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// orderRow is one order rendered as a table row with item quantities in
// catalog order.
type orderRow struct {
	ID         string
	User       string
	UserID     string
	Locked     bool
	Quantities []int
	Total      int
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	view, err := s.ledger.SessionView(r.Context(), name)
	if err != nil {
		s.httpError(w, r, err)
		return
	}
	catalog, err := s.ledger.Catalog(r.Context())
	if err != nil {
		s.httpError(w, r, err)
		return
	}

	items := catalog.Names()

	rows := make([]orderRow, 0, len(view.Orders))
	for _, order := range view.Orders {
		row := orderRow{
			ID:     order.ID,
			User:   order.DisplayName,
			UserID: order.UserID,
			Locked: lockedIn(view, order.UserID),
			Total:  order.Total,
		}
		for _, item := range items {
			row.Quantities = append(row.Quantities, order.Items[item])
		}
		rows = append(rows, row)
	}

	remaining := make([]int, 0, len(items))
	for _, item := range items {
		remaining = append(remaining, view.Remaining[item])
	}

	s.render(w, r, "session.html", map[string]interface{}{
		"Admin":     s.isAdmin(r),
		"Name":      view.Name,
		"Open":      view.Open,
		"Current":   view.Current,
		"Items":     items,
		"Rows":      rows,
		"Remaining": remaining,
		"Total":     view.Total,
	})
}

func lockedIn(view *services.SessionView, userID string) bool {
	for _, locked := range view.LockedUsers {
		if locked == userID {
			return true
		}
	}
	return false
}

func (s *Server) handleSessionData(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	hash, err := s.ledger.OrdersHash(r.Context(), name)
	if err != nil {
		if errors.Is(err, common.ErrSessionNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
			return
		}
		s.httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"hash": hash})
}

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	name, err := s.ledger.OpenSession(r.Context(), adminActor)
	if err != nil {
		s.httpError(w, r, err)
		return
	}
	s.announce(fmt.Sprintf("Ny bestillingsrunde åpnet: %s", name))
	http.Redirect(w, r, "/session/"+name, http.StatusSeeOther)
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	name, err := s.ledger.CloseSession(r.Context(), adminActor)
	if err != nil {
		s.httpError(w, r, err)
		return
	}
	if name != "" {
		s.announce(fmt.Sprintf("Bestillingsrunden %s er stengt.", name))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.ledger.DeleteSession(r.Context(), name, adminActor); err != nil {
		s.httpError(w, r, err)
		return
	}
	s.announce(fmt.Sprintf("Bestillingsrunden %s ble slettet.", name))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// editField is one input on the edit form.
type editField struct {
	Item     string
	Quantity int
}

func (s *Server) handleEditOrderForm(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	orderID := chi.URLParam(r, "id")

	view, err := s.ledger.SessionView(r.Context(), name)
	if err != nil {
		s.httpError(w, r, err)
		return
	}
	var order *models.Order
	for _, o := range view.Orders {
		if o.ID == orderID {
			order = o
			break
		}
	}
	if order == nil {
		s.httpError(w, r, common.ErrOrderNotFound)
		return
	}

	catalog, err := s.ledger.Catalog(r.Context())
	if err != nil {
		s.httpError(w, r, err)
		return
	}

	fields := make([]editField, 0, len(catalog.Items))
	for _, item := range catalog.Names() {
		fields = append(fields, editField{Item: item, Quantity: order.Items[item]})
	}

	s.render(w, r, "edit_order.html", map[string]interface{}{
		"Session": name,
		"OrderID": orderID,
		"User":    order.DisplayName,
		"Fields":  fields,
	})
}

func (s *Server) handleEditOrder(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	orderID := chi.URLParam(r, "id")

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	catalog, err := s.ledger.Catalog(r.Context())
	if err != nil {
		s.httpError(w, r, err)
		return
	}

	requested := make(map[string]int, len(catalog.Items))
	for _, item := range catalog.Names() {
		value := r.PostFormValue(item)
		if value == "" {
			requested[item] = 0
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			http.Error(w, fmt.Sprintf("invalid quantity for %s", item), http.StatusBadRequest)
			return
		}
		requested[item] = n
	}

	changes, order, err := s.ledger.AdminSetItems(r.Context(), name, orderID, requested, adminActor)
	if err != nil {
		s.httpError(w, r, err)
		return
	}
	if len(changes) > 0 {
		parts := make([]string, 0, len(changes))
		for _, change := range changes {
			s.logger.Info(r.Context(), "order edited", "session", name, "order", orderID,
				"item", change.Item, "before", change.Before, "after", change.After)
			parts = append(parts, fmt.Sprintf("%s %d til %d", change.Item, change.Before, change.After))
		}
		s.announce(fmt.Sprintf("Admin endret bestillingen til %s: %s",
			order.DisplayName, strings.Join(parts, ", ")))
	}

	http.Redirect(w, r, "/session/"+name, http.StatusSeeOther)
}

func (s *Server) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	orderID := chi.URLParam(r, "id")

	freed, err := s.ledger.DeleteOrder(r.Context(), name, orderID, adminActor)
	if err != nil {
		s.httpError(w, r, err)
		return
	}
	s.logger.Info(r.Context(), "order deleted", "session", name, "order", orderID, "freed", len(freed))
	s.announce(fmt.Sprintf("Admin slettet en bestilling i %s.", name))

	http.Redirect(w, r, "/session/"+name, http.StatusSeeOther)
}

func (s *Server) handleLockUser(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.ledger.LockUser(r.Context(), name, chi.URLParam(r, "user"), adminActor); err != nil {
		s.httpError(w, r, err)
		return
	}
	http.Redirect(w, r, "/session/"+name, http.StatusSeeOther)
}

func (s *Server) handleUnlockUser(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.ledger.UnlockUser(r.Context(), name, chi.URLParam(r, "user"), adminActor); err != nil {
		s.httpError(w, r, err)
		return
	}
	http.Redirect(w, r, "/session/"+name, http.StatusSeeOther)
}

// userRow is one known chat member on the users page.
type userRow struct {
	ID       string
	Name     string
	Blocked  bool
	LastSeen string
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	list, err := s.access.List(r.Context())
	if err != nil {
		s.httpError(w, r, err)
		return
	}

	rows := make([]userRow, 0, len(list.Users))
	for id, user := range list.Users {
		rows = append(rows, userRow{
			ID:       id,
			Name:     user.DisplayName,
			Blocked:  list.IsBlocked(id),
			LastSeen: user.LastSeen.Format("2006-01-02 15:04"),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })

	s.render(w, r, "users.html", map[string]interface{}{"Rows": rows})
}

func (s *Server) handleBlockUser(w http.ResponseWriter, r *http.Request) {
	if err := s.access.Block(r.Context(), chi.URLParam(r, "id"), adminActor); err != nil {
		s.httpError(w, r, err)
		return
	}
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

func (s *Server) handleUnblockUser(w http.ResponseWriter, r *http.Request) {
	if err := s.access.Unblock(r.Context(), chi.URLParam(r, "id"), adminActor); err != nil {
		s.httpError(w, r, err)
		return
	}
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

func (s *Server) handleResetStats(w http.ResponseWriter, r *http.Request) {
	if err := s.stats.Reset(r.Context(), chi.URLParam(r, "id"), adminActor); err != nil {
		s.httpError(w, r, err)
		return
	}
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	action := r.URL.Query().Get("action")

	entries, err := s.audit.List(r.Context(), action)
	if err != nil {
		s.httpError(w, r, err)
		return
	}
	s.render(w, r, "audit.html", map[string]interface{}{
		"Action":  action,
		"Entries": entries,
	})
}
