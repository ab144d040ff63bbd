package handlers

import (
	"net/http"

	"hotspotgate/internal/auth"
	"hotspotgate/internal/filter"
	"hotspotgate/internal/logging"
	"hotspotgate/internal/middleware"
	"hotspotgate/internal/models"
	"hotspotgate/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

const auditLogLimit = 50

// PasslistHandler is the operator's view on the gate.
type PasslistHandler struct {
	templates   TemplateExecutor
	backend     filter.Backend
	clients     *services.ClientService
	userService *auth.UserService
	log         logrus.FieldLogger
}

func NewPasslistHandler(templates TemplateExecutor, backend filter.Backend, clients *services.ClientService,
	userService *auth.UserService, log logrus.FieldLogger) *PasslistHandler {
	return &PasslistHandler{
		templates:   templates,
		backend:     backend,
		clients:     clients,
		userService: userService,
		log:         logging.Component(log, "admin"),
	}
}

func (h *PasslistHandler) manager(w http.ResponseWriter) (filter.PasslistManager, bool) {
	m, ok := h.backend.(filter.PasslistManager)
	if !ok {
		writeError(w, http.StatusNotImplemented, "filter backend does not manage a passlist")
	}
	return m, ok
}

func (h *PasslistHandler) entries(m filter.PasslistManager) ([]models.PasslistEntry, error) {
	entries, err := m.Entries()
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.PasslistEntry{}
	}
	for i := range entries {
		active := h.backend.IsClientActive(entries[i].IP)
		entries[i].Active = &active
	}
	return entries, nil
}

// Page renders the admin dashboard.
func (h *PasslistHandler) Page(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{
		"Title": "Hotspot administration",
		"User":  middleware.GetUser(r),
	}

	if m, ok := h.backend.(filter.PasslistManager); ok {
		entries, err := h.entries(m)
		if err != nil {
			h.log.WithError(err).Error("failed to list passlist")
			data["Error"] = "Failed to read the passlist"
		}
		data["Entries"] = entries
	}

	clients, err := h.clients.List()
	if err != nil {
		h.log.WithError(err).Error("failed to list clients")
	}
	data["Clients"] = clients

	logs, err := h.userService.GetAuditLogs(auditLogLimit)
	if err != nil {
		h.log.WithError(err).Error("failed to list audit logs")
	}
	data["AuditLogs"] = logs

	if err := h.templates.ExecuteTemplate(w, "admin.html", data); err != nil {
		h.log.WithError(err).Error("template error")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (h *PasslistHandler) List(w http.ResponseWriter, r *http.Request) {
	m, ok := h.manager(w)
	if !ok {
		return
	}

	entries, err := h.entries(m)
	if err != nil {
		h.log.WithError(err).Error("failed to list passlist")
		writeError(w, http.StatusBadGateway, "failed to read the passlist")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *PasslistHandler) Grant(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	ip := r.FormValue("ip")
	if !services.ValidIPv4(ip) {
		writeError(w, http.StatusBadRequest, "ip must be an IPv4 address")
		return
	}

	if !h.backend.AckClientRegistration(ip) {
		writeError(w, http.StatusConflict, "client already granted or rule insert failed")
		return
	}

	h.audit(r, "passlist_grant", ip)
	writeJSON(w, http.StatusCreated, map[string]string{"ip": ip})
}

func (h *PasslistHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	m, ok := h.manager(w)
	if !ok {
		return
	}

	ip := chi.URLParam(r, "ip")
	if !services.ValidIPv4(ip) {
		writeError(w, http.StatusBadRequest, "ip must be an IPv4 address")
		return
	}

	if !m.Revoke(ip) {
		writeError(w, http.StatusNotFound, "client not in passlist")
		return
	}

	h.audit(r, "passlist_revoke", ip)
	w.WriteHeader(http.StatusNoContent)
}

// Prune drops inactive clients, or every client with all=1.
func (h *PasslistHandler) Prune(w http.ResponseWriter, r *http.Request) {
	m, ok := h.manager(w)
	if !ok {
		return
	}

	activeOnly := r.URL.Query().Get("all") != "1"
	if !m.Prune(activeOnly) {
		writeError(w, http.StatusBadGateway, "failed to read the passlist")
		return
	}

	details := "inactive"
	if !activeOnly {
		details = "all"
	}
	h.audit(r, "passlist_prune", details)
	writeJSON(w, http.StatusOK, map[string]bool{"active_only": activeOnly})
}

func (h *PasslistHandler) AuditLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.userService.GetAuditLogs(auditLogLimit)
	if err != nil {
		h.log.WithError(err).Error("failed to list audit logs")
		writeError(w, http.StatusInternalServerError, "failed to list audit logs")
		return
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

func (h *PasslistHandler) audit(r *http.Request, action, details string) {
	var userID *int64
	if user := middleware.GetUser(r); user != nil {
		userID = &user.ID
	}
	if err := h.userService.LogAction(userID, action, details, getClientIP(r)); err != nil {
		h.log.WithError(err).Warn("failed to write audit log")
	}
}
