package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/hnrobert/pagegate/internal/access"
	"github.com/hnrobert/pagegate/internal/audit"
	"github.com/hnrobert/pagegate/internal/auth"
	"github.com/hnrobert/pagegate/internal/credstore"
	"github.com/hnrobert/pagegate/internal/logger"
	"github.com/hnrobert/pagegate/internal/pages"
)

func pageURL(pageID string) string {
	return "/page?name=" + url.QueryEscape(pageID)
}

func (a *App) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if sessionFrom(r).Authenticated() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	data := &ViewData{HideNav: true, Title: "Login"}
	if f := r.URL.Query().Get("flash"); f != "" {
		data.Flash = f
		data.FlashKind = "warn"
	}
	a.renderPage(w, http.StatusOK, "login", data)
}

func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	username := strings.TrimSpace(r.PostForm.Get("username"))
	ip := remoteIP(r)

	ident, err := a.authn.Authenticate(username, r.PostForm.Get("password"))
	if err != nil {
		logger.Info("Failed login attempt for user %s from %s", username, ip)
		a.record(r, &audit.Event{Action: audit.ActionLoginFailed, Actor: username, RemoteIP: ip})
		a.renderPage(w, http.StatusUnauthorized, "login", &ViewData{
			HideNav:   true,
			Title:     "Login",
			LoginUser: username,
			Flash:     auth.HumanAuthError(err),
			FlashKind: "err",
		})
		return
	}

	s := a.sessions.Login(sessionFrom(r), ident)
	if err := a.issueCookie(w, s.ID()); err != nil {
		logger.Error("Failed to sign session for %s: %v", username, err)
		a.renderPage(w, http.StatusInternalServerError, "login", &ViewData{HideNav: true, Title: "Login", Flash: "Failed to create session.", FlashKind: "err"})
		return
	}
	logger.Info("User %s logged in from %s", username, ip)
	a.record(r, &audit.Event{Action: audit.ActionLogin, Actor: username, RemoteIP: ip})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *App) handleLogout(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	username := s.Username()
	s.Logout()
	a.sessions.Delete(s.ID())
	a.clearCookie(w)
	if username != "" {
		logger.Info("User %s logged out from %s", username, remoteIP(r))
		a.record(r, &audit.Event{Action: audit.ActionLogout, Actor: username, RemoteIP: remoteIP(r)})
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// handleRoot sends an authenticated client to its selected page, or to the
// first page it is permitted to see.
func (a *App) handleRoot(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	if err := access.RequireAuthenticated(s); err != nil {
		a.redirectToLogin(w, r)
		return
	}
	target := s.SelectedPage()
	if target == "" {
		target = pages.HomePage
		if perms := s.Permissions(); len(perms) > 0 {
			target = perms[0]
		}
	}
	http.Redirect(w, r, pageURL(target), http.StatusSeeOther)
}

func (a *App) handlePage(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	if err := access.RequireAuthenticated(s); err != nil {
		a.redirectToLogin(w, r)
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
	}

	req := &pages.Request{
		Session:  s,
		Method:   r.Method,
		Form:     r.PostForm,
		RemoteIP: remoteIP(r),
	}
	view, err := a.router.Dispatch(r.Context(), name, req)
	if err != nil {
		a.writePageError(w, r, name, err)
		return
	}
	s.Select(req.PageID)

	data := a.baseData(r)
	data.Title = view.Title
	data.Body = view.Body
	data.Page = view.Data
	data.Flash = view.Flash
	data.FlashKind = view.FlashKind
	tmpl := view.Template
	if tmpl == "" {
		tmpl = "page"
	}
	a.renderPage(w, http.StatusOK, tmpl, data)
}

func (a *App) writePageError(w http.ResponseWriter, r *http.Request, name string, err error) {
	var (
		status int
		msg    string
	)
	switch {
	case errors.Is(err, access.ErrUnauthenticated):
		a.redirectToLogin(w, r)
		return
	case errors.Is(err, access.ErrForbidden):
		logger.Warn("User %s denied access to %s", sessionFrom(r).Username(), name)
		status, msg = http.StatusForbidden, access.Message(err)
	case errors.Is(err, pages.ErrPageNotFound):
		status, msg = http.StatusNotFound, fmt.Sprintf("Page %s not found.", name)
	case errors.Is(err, pages.ErrMalformedPage):
		logger.Error("Page %s has no entry point", name)
		status, msg = http.StatusInternalServerError, fmt.Sprintf("Page %s does not have an entry point defined.", name)
	default:
		logger.Error("Page %s failed: %v", name, err)
		status, msg = http.StatusInternalServerError, "Internal Server Error"
	}
	data := a.baseData(r)
	data.Title = name
	data.Flash = msg
	data.FlashKind = "err"
	a.renderPage(w, status, "page", data)
}

func (a *App) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	msg := access.Message(access.ErrUnauthenticated)
	http.Redirect(w, r, "/login?flash="+url.QueryEscape(msg), http.StatusSeeOther)
}

type sessionInfo struct {
	Authenticated bool     `json:"authenticated"`
	Username      string   `json:"username,omitempty"`
	Role          string   `json:"role,omitempty"`
	Permissions   []string `json:"permissions"`
	SelectedPage  string   `json:"selected_page,omitempty"`
}

func (a *App) handleAPISession(w http.ResponseWriter, r *http.Request) {
	st := sessionFrom(r).State()
	info := sessionInfo{
		Authenticated: st.Authenticated,
		Username:      st.Username,
		Role:          st.Role,
		Permissions:   st.Permissions,
		SelectedPage:  st.SelectedPage,
	}
	if info.Permissions == nil {
		info.Permissions = []string{}
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(info)
}

func (a *App) record(r *http.Request, ev *audit.Event) {
	a.recordCtx(r.Context(), ev)
}

func (a *App) baseData(r *http.Request) *ViewData {
	st := sessionFrom(r).State()
	data := &ViewData{
		Authed:   st.Authenticated,
		Username: st.Username,
		Admin:    st.Role == credstore.RoleAdmin,
		Nav:      st.Permissions,
		Selected: st.SelectedPage,
	}
	if st.Authenticated {
		a.store.View(func(d *credstore.Document) {
			data.DisplayName = d.DisplayName(st.Username)
		})
	}
	return data
}

func (a *App) renderPage(w http.ResponseWriter, status int, page string, data *ViewData) {
	t := a.templates[page]
	if t == nil {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}
	var buf strings.Builder
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		logger.Error("renderPage template execution failed for %s: %v", page, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(buf.String()))
}
