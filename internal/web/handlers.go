// Package web serves the login application the browser suite runs against:
// the login form, the product inventory behind it, logout and a health check.
package web

import (
	"encoding/json"
	"net/http"

	"github.com/kuitang/login-suite/internal/auth"
	"github.com/kuitang/login-suite/internal/errs"
	"github.com/kuitang/login-suite/internal/logutil"
	"github.com/kuitang/login-suite/internal/messages"
	"github.com/kuitang/login-suite/internal/obs"
	"github.com/kuitang/login-suite/internal/ratelimit"
)

// Form field names posted by the login form.
const (
	FieldUsername = "user-name"
	FieldPassword = "password"
)

// LandingPath is where a successful login redirects.
const LandingPath = "/inventory.html"

const (
	flashCookieName    = "login_flash"
	flashLoginRequired = "login_required"
)

// Handler serves the login application.
type Handler struct {
	renderer      *Renderer
	users         *auth.UserService
	sessions      *auth.SessionService
	middleware    *auth.Middleware
	limiter       *ratelimit.RateLimiter
	secureCookies bool
	products      []Product
}

// NewHandler wires the application. A nil limiter disables login throttling.
// secureCookies should be true when the application is served over HTTPS.
func NewHandler(
	renderer *Renderer,
	users *auth.UserService,
	sessions *auth.SessionService,
	limiter *ratelimit.RateLimiter,
	secureCookies bool,
) *Handler {
	return &Handler{
		renderer:      renderer,
		users:         users,
		sessions:      sessions,
		middleware:    auth.NewMiddleware(sessions),
		limiter:       limiter,
		secureCookies: secureCookies,
		products:      Catalog(),
	}
}

// RegisterRoutes registers all routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	var submit http.Handler = http.HandlerFunc(h.HandleLoginSubmit)
	if h.limiter != nil {
		submit = ratelimit.Middleware(h.limiter, ratelimit.ClientAddress)(submit)
	}

	mux.HandleFunc("GET /{$}", h.HandleLoginPage)
	mux.Handle("POST /{$}", submit)
	mux.Handle("GET "+LandingPath, h.middleware.RequireSession(
		http.HandlerFunc(h.HandleInventory),
		http.HandlerFunc(h.redirectToLogin),
	))
	mux.HandleFunc("POST /logout", h.HandleLogout)
	mux.HandleFunc("GET /health", h.HandleHealth)
}

// Routes returns the full application with correlation and access logging.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return obs.RequestContextMiddleware(obs.AccessLogMiddleware("web", mux))
}

type loginPageData struct {
	Username string
	Error    string
}

type inventoryPageData struct {
	Username string
	Products []Product
}

// HandleLoginPage renders the login form, with the login-required notice if
// the browser was just turned away from the inventory.
func (h *Handler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	data := loginPageData{}
	if c, err := r.Cookie(flashCookieName); err == nil {
		h.clearFlash(w)
		if c.Value == flashLoginRequired {
			data.Error = messages.Display(messages.LoginRequired)
		}
	}
	h.render(w, r, http.StatusOK, "login.html", data)
}

// HandleLoginSubmit authenticates the form and redirects to the inventory,
// or re-renders the form with the first failing check's message.
func (h *Handler) HandleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	logger := obs.From(r.Context())
	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, "login.html", loginPageData{Error: "Invalid form submission"})
		return
	}
	logger.Debug("login_submit", "form", logutil.FormatFormForLog(r.PostForm))

	username := r.PostForm.Get(FieldUsername)
	password := r.PostForm.Get(FieldPassword)

	acct, err := h.users.Authenticate(r.Context(), username, password)
	if err != nil {
		code := errs.CodeOf(err)
		if code == errs.Internal {
			logger.Error("login_failed", "error", err.Error())
		} else {
			logger.Info("login_rejected", "username", username, "code", string(code))
		}
		h.render(w, r, errs.HTTPStatus(code), "login.html", loginPageData{
			Username: username,
			Error:    errs.MessageOf(err),
		})
		return
	}

	sessionID, err := h.sessions.Create(r.Context(), acct.ID)
	if err != nil {
		logger.Error("session_create_failed", "error", err.Error())
		h.render(w, r, http.StatusInternalServerError, "login.html", loginPageData{
			Username: username,
			Error:    errs.MessageOf(err),
		})
		return
	}

	auth.SetCookie(w, sessionID, h.sessions.Duration(), h.secureCookies)
	logger.Info("login_succeeded", "username", acct.Username)
	http.Redirect(w, r, LandingPath, http.StatusSeeOther)
}

// HandleInventory renders the product list for the session's account.
func (h *Handler) HandleInventory(w http.ResponseWriter, r *http.Request) {
	acct, err := h.users.AccountByID(r.Context(), auth.GetAccountID(r.Context()))
	if err != nil {
		// The account behind a live session is gone; treat as logged out.
		obs.From(r.Context()).Warn("session_account_missing", "error", err.Error())
		h.redirectToLogin(w, r)
		return
	}
	h.render(w, r, http.StatusOK, "inventory.html", inventoryPageData{
		Username: acct.Username,
		Products: h.products,
	})
}

// HandleLogout deletes the session and returns to the login form.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if sessionID, err := auth.GetFromRequest(r); err == nil {
		if err := h.sessions.Delete(r.Context(), sessionID); err != nil {
			obs.From(r.Context()).Warn("logout_delete_failed", "error", err.Error())
		}
	}
	auth.ClearCookie(w, h.secureCookies)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (h *Handler) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    flashLoginRequired,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   60,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) clearFlash(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if err := h.renderer.Render(w, status, name, data); err != nil {
		obs.From(r.Context()).Error("render_failed", "template", name, "error", err.Error())
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
