package session

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// CookieName is the identity cookie set by the remote auth endpoints.
const CookieName = "user_id"

// ParseUserID extracts the numeric user id from a raw Cookie header.
// Pairs are "; "-separated name=value entries; the value is URI-decoded
// before parsing. Returns (0, false) when the cookie is absent or the
// value is not a valid integer.
func ParseUserID(rawCookies string) (int, bool) {
	for _, pair := range strings.Split(rawCookies, "; ") {
		name, value, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found || strings.TrimSpace(name) != CookieName {
			continue
		}
		decoded, err := url.QueryUnescape(value)
		if err != nil {
			return 0, false
		}
		id, err := strconv.Atoi(strings.TrimSpace(decoded))
		if err != nil {
			return 0, false
		}
		return id, true
	}
	return 0, false
}

// UserIDFromRequest reads the identity cookie from an incoming request.
func UserIDFromRequest(r *http.Request) (int, bool) {
	if r == nil {
		return 0, false
	}
	return ParseUserID(r.Header.Get("Cookie"))
}

// Options controls the attributes of the identity cookie the gateway sets.
type Options struct {
	Domain string
	Secure bool
	MaxAge time.Duration
}

// SetUserID writes the identity cookie on a response.
func SetUserID(w http.ResponseWriter, userID int, opts Options) {
	maxAge := int(opts.MaxAge / time.Second)
	if maxAge <= 0 {
		maxAge = int((24 * time.Hour).Seconds())
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    strconv.Itoa(userID),
		Path:     "/",
		Domain:   opts.Domain,
		MaxAge:   maxAge,
		Secure:   opts.Secure,
		HttpOnly: false,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearUserID expires the identity cookie.
func ClearUserID(w http.ResponseWriter, opts Options) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Domain:   opts.Domain,
		MaxAge:   -1,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
