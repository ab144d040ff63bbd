package handlers

import (
	"net/http"

	"hotspotgate/internal/auth"
	"hotspotgate/internal/logging"

	"github.com/sirupsen/logrus"
)

// AdminHome is where operators land after logging in.
const AdminHome = "/admin"

type AuthHandler struct {
	templates   TemplateExecutor
	sessions    *auth.SessionManager
	userService *auth.UserService
	log         logrus.FieldLogger
}

func NewAuthHandler(templates TemplateExecutor, sessions *auth.SessionManager, userService *auth.UserService, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		templates:   templates,
		sessions:    sessions,
		userService: userService,
		log:         logging.Component(log, "admin-auth"),
	}
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.sessions.GetUserID(r); ok {
		http.Redirect(w, r, AdminHome, http.StatusSeeOther)
		return
	}
	h.renderLogin(w, http.StatusOK, "")
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLogin(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")

	if username == "" || password == "" {
		h.renderLogin(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := h.userService.Authenticate(username, password)
	if err != nil {
		h.userService.LogAction(nil, "login_failed", "Username: "+username, getClientIP(r))
		h.renderLogin(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	if err := h.sessions.SetUser(w, r, user.ID, user.IsAdmin); err != nil {
		h.log.WithError(err).Error("session error")
		h.renderLogin(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	h.userService.LogAction(&user.ID, "login_success", "", getClientIP(r))
	http.Redirect(w, r, AdminHome, http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, _ := h.sessions.GetUserID(r)
	if userID > 0 {
		h.userService.LogAction(&userID, "logout", "", getClientIP(r))
	}

	h.sessions.Clear(w, r)
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, status int, message string) {
	data := map[string]interface{}{
		"Title": "Login",
		"Error": message,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.ExecuteTemplate(w, "login.html", data); err != nil {
		h.log.WithError(err).Error("template error")
	}
}
