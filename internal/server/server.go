// Package server exposes the site's HTTP surface: auth, page view-models
// and the favorite/review actions, all backed by the remote store API.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"wanparadise/internal/app"
	"wanparadise/internal/petapi"
	"wanparadise/internal/ratelimit"
	"wanparadise/internal/session"
	"wanparadise/internal/util"
	"wanparadise/pkg/domain"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App    *app.App
	API    *petapi.Client
	Cookie session.Options

	AllowedOrigin string

	RedisAddr     string
	RedisPassword string

	RegisterRateLimitPerMinute int
	LoginRateLimitPerMinute    int
	ReviewRateLimitPerMinute   int
	FavoriteRateLimitPerMinute int

	TrustedProxyCIDRs []string
}

// Server exposes HTTP endpoints for the site.
type Server struct {
	app      *app.App
	api      *petapi.Client
	cookie   session.Options
	origin   string
	mux      *http.ServeMux
	validate *validator.Validate
	proxies  *util.TrustedProxies

	registerLimiter *ratelimit.FixedWindowLimiter
	loginLimiter    *ratelimit.FixedWindowLimiter
	reviewLimiter   *ratelimit.FixedWindowLimiter
	favoriteLimiter *ratelimit.FixedWindowLimiter
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil || cfg.API == nil {
		return nil, errors.New("server requires app and api client")
	}
	registerLimit := cfg.RegisterRateLimitPerMinute
	if registerLimit <= 0 {
		registerLimit = 5
	}
	loginLimit := cfg.LoginRateLimitPerMinute
	if loginLimit <= 0 {
		loginLimit = 10
	}
	reviewLimit := cfg.ReviewRateLimitPerMinute
	if reviewLimit <= 0 {
		reviewLimit = 10
	}
	favoriteLimit := cfg.FavoriteRateLimitPerMinute
	if favoriteLimit <= 0 {
		favoriteLimit = 30
	}
	rateWindow := time.Minute
	newLimiter := func(name string, limit int) (*ratelimit.FixedWindowLimiter, error) {
		prefix := "wanparadise:ratelimit:" + name
		limiter, err := ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, prefix, limit, rateWindow)
		if err != nil {
			return nil, fmt.Errorf("init %s limiter: %w", name, err)
		}
		return limiter, nil
	}
	registerLimiter, err := newLimiter("register", registerLimit)
	if err != nil {
		return nil, err
	}
	loginLimiter, err := newLimiter("login", loginLimit)
	if err != nil {
		return nil, err
	}
	reviewLimiter, err := newLimiter("review", reviewLimit)
	if err != nil {
		return nil, err
	}
	favoriteLimiter, err := newLimiter("favorite", favoriteLimit)
	if err != nil {
		return nil, err
	}
	proxies, err := util.NewTrustedProxies(cfg.TrustedProxyCIDRs)
	if err != nil {
		return nil, fmt.Errorf("parse trusted proxies: %w", err)
	}
	s := &Server{
		app:             cfg.App,
		api:             cfg.API,
		cookie:          cfg.Cookie,
		origin:          cfg.AllowedOrigin,
		mux:             http.NewServeMux(),
		validate:        validator.New(validator.WithRequiredStructEnabled()),
		proxies:         proxies,
		registerLimiter: registerLimiter,
		loginLimiter:    loginLimiter,
		reviewLimiter:   reviewLimiter,
		favoriteLimiter: favoriteLimiter,
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	handler := util.WithRequestLog("wanparadise", s.mux)
	handler = util.WithRequestID(handler)
	handler = util.WithCORS(s.origin, handler)
	return util.WithSecurityHeaders(handler)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// auth
	s.mux.HandleFunc("/api/auth/register", s.handleRegister)
	s.mux.HandleFunc("/api/auth/login", s.handleLogin)
	s.mux.HandleFunc("/api/auth/logout", s.handleLogout)
	s.mux.Handle("/api/me", s.identified(s.handleMe))
	s.mux.Handle("/api/profile", s.identified(s.handleProfile))

	// pages
	s.mux.HandleFunc("/api/home", s.handleHome)
	s.mux.HandleFunc("/api/prefectures", s.handlePrefectures)
	for _, cat := range domain.Categories {
		s.mux.Handle("/api/"+cat.Slug+"/", s.categoryHandler(cat))
	}

	// actions
	s.mux.HandleFunc("/api/stores/", s.handleStoreAction)
	s.mux.Handle("/api/favorites", s.identified(s.handleFavorites))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// identity wrappers
type userHandler func(http.ResponseWriter, *http.Request, int)

func (s *Server) identified(next userHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := session.UserIDFromRequest(r)
		if !ok {
			s.audit(r, "site.identify", "fail")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, userID)
	})
}

// auth handlers
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.registerLimiter, "too many register attempts") {
		s.audit(r, "site.register", "rate_limited")
		return
	}
	var req registerRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		s.audit(r, "site.register", "fail", "reason", "invalid_json")
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.audit(r, "site.register", "fail", "reason", "validation")
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	user, err := s.api.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		s.audit(r, "site.register", "fail", "reason", err.Error())
		writeUpstreamError(w, err)
		return
	}
	session.SetUserID(w, user.ID, s.cookie)
	s.audit(r, "site.register", "success", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, map[string]any{"user": user})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.loginLimiter, "too many login attempts") {
		s.audit(r, "site.login", "rate_limited")
		return
	}
	var req loginRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		s.audit(r, "site.login", "fail", "reason", "invalid_json")
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.audit(r, "site.login", "fail", "reason", "validation")
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	user, err := s.api.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.audit(r, "site.login", "fail", "reason", err.Error())
		writeUpstreamError(w, err)
		return
	}
	session.SetUserID(w, user.ID, s.cookie)
	s.audit(r, "site.login", "success", "user_id", user.ID)
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	session.ClearUserID(w, s.cookie)
	s.audit(r, "site.logout", "success")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, userID int) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	user, err := s.api.Me(r.Context(), userID)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request, userID int) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req profileRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	user, err := s.api.UpdateProfile(r.Context(), userID, req.Name, req.Email, req.Password)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	s.audit(r, "site.profile.update", "success", "user_id", userID)
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// page handlers
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	page, err := s.app.Home(r.Context())
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handlePrefectures(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	groups, err := s.app.Prefectures(r.Context())
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"regions": groups})
}

// categoryHandler serves one category's pages:
//
//	GET /api/{category}/stores/{prefectureID}?tags=1,2
//	GET /api/{category}/detail/{storeID}
//	GET /api/{category}/reviews/{storeID}
func (s *Server) categoryHandler(cat domain.CategoryInfo) http.Handler {
	prefix := "/api/" + cat.Slug + "/"
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		rest := strings.TrimPrefix(r.URL.Path, prefix)
		parts := strings.SplitN(rest, "/", 2)
		if len(parts) != 2 || parts[1] == "" {
			http.NotFound(w, r)
			return
		}
		id, err := strconv.Atoi(parts[1])
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "invalid id")
			return
		}
		switch parts[0] {
		case "stores":
			s.handleStoreList(w, r, cat, id)
		case "detail":
			s.handleStoreDetail(w, r, cat, id)
		case "reviews":
			s.handleStoreReviews(w, r, id)
		default:
			http.NotFound(w, r)
		}
	})
}

func (s *Server) handleStoreList(w http.ResponseWriter, r *http.Request, cat domain.CategoryInfo, prefectureID int) {
	tagIDs, err := parseTagIDs(r.URL.Query().Get("tags"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tags parameter")
		return
	}
	page, err := s.app.StoreList(r.Context(), cat, prefectureID, tagIDs)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleStoreDetail(w http.ResponseWriter, r *http.Request, cat domain.CategoryInfo, storeID int) {
	userID, _ := session.UserIDFromRequest(r)
	page, err := s.app.StoreDetail(r.Context(), cat, storeID, userID)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleStoreReviews(w http.ResponseWriter, r *http.Request, storeID int) {
	page, err := s.app.StoreReviews(r.Context(), storeID)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// handleStoreAction serves the mutations under /api/stores/{id}/...:
//
//	POST /api/stores/{storeID}/reviews
//	POST /api/stores/{storeID}/favorite
func (s *Server) handleStoreAction(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/stores/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 {
		http.NotFound(w, r)
		return
	}
	storeID, err := strconv.Atoi(parts[0])
	if err != nil || storeID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid store id")
		return
	}
	switch parts[1] {
	case "reviews":
		s.handleReviewSubmit(w, r, storeID)
	case "favorite":
		s.handleFavoriteToggle(w, r, storeID)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleReviewSubmit(w http.ResponseWriter, r *http.Request, storeID int) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.reviewLimiter, "too many review submissions") {
		s.audit(r, "site.review.submit", "rate_limited")
		return
	}
	var req reviewRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sub, err := s.app.SubmitReview(r.Context(), storeID, req.Rating, req.Comment)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	s.audit(r, "site.review.submit", "success", "store_id", storeID)
	writeJSON(w, http.StatusCreated, sub)
}

func (s *Server) handleFavoriteToggle(w http.ResponseWriter, r *http.Request, storeID int) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	userID, ok := session.UserIDFromRequest(r)
	if !ok {
		s.audit(r, "site.favorite.toggle", "fail", "reason", "no_identity")
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if !s.allowRate(w, r, s.favoriteLimiter, "too many favorite updates") {
		s.audit(r, "site.favorite.toggle", "rate_limited")
		return
	}
	state, err := s.app.ToggleFavorite(r.Context(), userID, storeID)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	s.audit(r, "site.favorite.toggle", "success", "user_id", userID, "store_id", storeID, "is_favorite", state.IsFavorite)
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleFavorites(w http.ResponseWriter, r *http.Request, userID int) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	groups, err := s.app.FavoritesByCategory(r.Context(), userID)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": groups})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

type profileRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"omitempty,min=8"`
}

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// validationMessage turns the first field violation into a user-facing
// message matching the site's form copy.
func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "invalid request"
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return strings.ToLower(fe.Field()) + " is required"
	case "email":
		return "email is invalid"
	case "min":
		return strings.ToLower(fe.Field()) + " must be at least " + fe.Param() + " characters"
	case "eqfield":
		return "passwords do not match"
	default:
		return strings.ToLower(fe.Field()) + " is invalid"
	}
}

func parseTagIDs(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid tag id %q", part)
		}
		out = append(out, id)
	}
	return out, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeUpstreamError maps app and remote API failures onto HTTP statuses.
func writeUpstreamError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrRatingRequired), errors.Is(err, app.ErrCommentRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrToggleInFlight):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrIdentityRequired):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	default:
		var apiErr *petapi.APIError
		if errors.As(err, &apiErr) {
			writeError(w, apiErr.Status, apiErr.Message)
			return
		}
		writeError(w, http.StatusBadGateway, "store service unavailable")
	}
}

func (s *Server) audit(r *http.Request, event, outcome string, attrs ...any) {
	logAttrs := []any{
		"event", event,
		"outcome", outcome,
		"path", r.URL.Path,
		"method", r.Method,
		"ip", util.ClientIP(r, s.proxies),
	}
	logAttrs = append(logAttrs, attrs...)
	if outcome == "success" {
		slog.Info("security_event", logAttrs...)
		return
	}
	slog.Warn("security_event", logAttrs...)
}

func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, limiter *ratelimit.FixedWindowLimiter, msg string) bool {
	key := r.URL.Path + "|" + util.ClientIP(r, s.proxies)
	if limiter.Allow(key) {
		return true
	}
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, msg)
	return false
}
