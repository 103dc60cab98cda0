package server

import (
	"embed"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hnrobert/pagegate/internal/admin"
	"github.com/hnrobert/pagegate/internal/audit"
	"github.com/hnrobert/pagegate/internal/auth"
	"github.com/hnrobert/pagegate/internal/config"
	"github.com/hnrobert/pagegate/internal/credstore"
	"github.com/hnrobert/pagegate/internal/logger"
	"github.com/hnrobert/pagegate/internal/pages"
	"github.com/hnrobert/pagegate/internal/profile"
	"github.com/hnrobert/pagegate/internal/session"
)

//go:embed templates/*.html
var templatesFS embed.FS

type App struct {
	secret     []byte
	cookieName string
	cookieTTL  time.Duration
	secure     bool
	templates  map[string]*template.Template

	store    *credstore.Store
	sessions *session.Registry
	authn    *auth.Authenticator
	router   *pages.Registry
	universe pages.Universe
	admins   *admin.Manager
	profiles *profile.Manager
	audit    audit.Recorder
}

type ViewData struct {
	Authed      bool
	Username    string
	DisplayName string
	Admin       bool
	HideNav     bool
	Nav         []string // cached permissions, in order
	Selected    string
	Flash       string
	FlashKind   string // ok|err|warn|""

	Title string
	Body  template.HTML
	Page  any

	// login form
	LoginUser string
}

func newApp(cfg config.Config, store *credstore.Store, rec audit.Recorder) (*App, error) {
	secretText := cfg.Session.Secret
	if secretText == "" {
		s, err := auth.NewRandomSecretB64(32)
		if err != nil {
			return nil, err
		}
		logger.Warn("session.secret not set; using an ephemeral secret")
		secretText = s
	}
	if rec == nil {
		rec = audit.Nop{}
	}

	tmpls, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	universe := pages.NewUniverse(cfg.Pages)
	a := &App{
		secret:     auth.DecodeSecret(secretText),
		cookieName: cfg.Session.CookieName,
		cookieTTL:  cfg.Session.TTL,
		secure:     cfg.Session.Secure,
		templates:  tmpls,
		store:      store,
		sessions:   session.NewRegistry(),
		authn:      auth.NewAuthenticator(store),
		router:     pages.NewRegistry(),
		universe:   universe,
		admins:     admin.NewManager(store, universe),
		profiles:   profile.NewManager(store),
		audit:      rec,
	}
	if err := a.registerPages(); err != nil {
		return nil, err
	}
	return a, nil
}

func parseTemplates() (map[string]*template.Template, error) {
	base := template.New("layout.html").Funcs(template.FuncMap{
		"contains": func(list []string, s string) bool {
			for _, v := range list {
				if v == s {
					return true
				}
			}
			return false
		},
		"join": strings.Join,
		"capitalize": func(s string) string {
			if s == "" {
				return s
			}
			return strings.ToUpper(s[:1]) + s[1:]
		},
		"pageURL": pageURL,
	})

	out := map[string]*template.Template{}
	for _, page := range []string{"login", "page", "admin", "profile"} {
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		// Each page file defines the title and content blocks.
		if _, err := t.ParseFS(templatesFS, "templates/layout.html", "templates/"+page+".html"); err != nil {
			return nil, err
		}
		out[page] = t
	}
	return out, nil
}

// registerPages binds every page in the universe. Pages without a built-in
// handler are still registered so that dispatching them reports a missing
// entry point rather than an unknown page.
func (a *App) registerPages() error {
	content, err := pages.ContentPages()
	if err != nil {
		return err
	}
	builtin := map[string]pages.Handler{
		"Admin":   pages.HandlerFunc(a.adminPage),
		"Profile": pages.HandlerFunc(a.profilePage),
	}
	for _, id := range a.universe.IDs() {
		h, ok := builtin[id]
		if !ok {
			h = content[id]
		}
		if h == nil {
			logger.Warn("page %q has no entry point", id)
		}
		if err := a.router.Register(id, pages.Guarded(id, h)); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(requestLogger)

	r.Get("/api/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("{\"ok\":true}\n"))
	})

	r.Group(func(r chi.Router) {
		r.Use(a.withSession)

		r.Get("/login", a.handleLoginForm)
		r.Post("/login", a.handleLogin)
		r.Post("/logout", a.handleLogout)

		r.Get("/", a.handleRoot)
		r.Get("/page", a.handlePage)
		r.Post("/page", a.handlePage)

		r.Get("/api/session", a.handleAPISession)
	})

	return r
}

func (a *App) issueCookie(w http.ResponseWriter, sessionID string) error {
	tok, err := auth.SignSession(a.secret, sessionID, a.cookieTTL)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     a.cookieName,
		Value:    tok,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.secure,
		MaxAge:   int(a.cookieTTL.Seconds()),
	})
	return nil
}

func (a *App) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.secure,
		MaxAge:   -1,
	})
}
