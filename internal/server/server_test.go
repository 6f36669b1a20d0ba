package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"wanparadise/internal/app"
	"wanparadise/internal/petapi"
	"wanparadise/pkg/domain"
)

// fakeRemoteAPI implements just enough of the store API for server tests.
func fakeRemoteAPI(t *testing.T) *httptest.Server {
	t.Helper()
	favorites := map[int]bool{}
	mux := http.NewServeMux()
	// Method-prefixed ServeMux patterns need Go 1.22+; with the 1.21
	// toolchain the method is checked inside the handler instead.
	requireMethod := func(method string, h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Method != method {
				http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
				return
			}
			h(w, r)
		}
	}
	mux.HandleFunc("/auth/login", requireMethod(http.MethodPost, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(domain.User{ID: 42, Name: "花子", Email: "hanako@example.com"})
	}))
	mux.HandleFunc("/auth/register", requireMethod(http.MethodPost, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(domain.User{ID: 43, Name: "太郎", Email: "taro@example.com"})
	}))
	mux.HandleFunc("/auth/me", requireMethod(http.MethodGet, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(domain.User{ID: 42, Name: "花子", Email: "hanako@example.com"})
	}))
	mux.HandleFunc("/stores/detail/7", requireMethod(http.MethodGet, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(domain.Store{ID: 7, Name: "わんわんパーク"})
	}))
	mux.HandleFunc("/stores/list/", requireMethod(http.MethodGet, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]domain.Store{{ID: 7, Name: "わんわんパーク"}})
	}))
	mux.HandleFunc("/tags", requireMethod(http.MethodGet, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]domain.Tag{{ID: 1, Name: "小型犬OK", TagType: 1}})
	}))
	mux.HandleFunc("/reviews", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode([]domain.Review{{ID: 1, StoreID: 7, Rating: 4, Comment: "広い"}})
		case http.MethodPost:
			var body struct {
				StoreID int    `json:"store_id"`
				Rating  int    `json:"rating"`
				Comment string `json:"comment"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			_ = json.NewEncoder(w).Encode(domain.Review{ID: 99, StoreID: body.StoreID, Rating: body.Rating, Comment: body.Comment})
		default:
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/favorites/42", requireMethod(http.MethodGet, func(w http.ResponseWriter, r *http.Request) {
		out := []domain.Favorite{}
		for id := range favorites {
			out = append(out, domain.Favorite{UserID: 42, StoreID: id, StoreType: "1"})
		}
		_ = json.NewEncoder(w).Encode(out)
	}))
	mux.HandleFunc("/favorites", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			StoreID int `json:"store_id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if r.Method == http.MethodPost {
			favorites[body.StoreID] = true
		} else {
			delete(favorites, body.StoreID)
		}
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T, tweak func(*Config)) *httptest.Server {
	t.Helper()
	remote := fakeRemoteAPI(t)
	redis := miniredis.RunT(t)

	api := petapi.NewClient(remote.URL)
	core, err := app.New(app.Config{API: api})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	cfg := Config{
		App:       core,
		API:       api,
		RedisAddr: redis.Addr(),
	}
	if tweak != nil {
		tweak(&cfg)
	}
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body, cookie string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func TestLoginSetsIdentityCookie(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := postJSON(t, srv.URL+"/api/auth/login", `{"email":"hanako@example.com","password":"secret123"}`, "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var cookie string
	for _, c := range resp.Cookies() {
		if c.Name == "user_id" {
			cookie = c.Value
		}
	}
	if cookie != "42" {
		t.Fatalf("identity cookie = %q, want 42", cookie)
	}
}

func TestRegisterRejectsPasswordMismatch(t *testing.T) {
	srv := newTestServer(t, nil)

	body := `{"name":"太郎","email":"taro@example.com","password":"secret123","confirmPassword":"different1"}`
	resp := postJSON(t, srv.URL+"/api/auth/register", body, "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	payload, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(payload), "passwords do not match") {
		t.Fatalf("body = %s, want password mismatch message", payload)
	}
}

func TestLoginRateLimit(t *testing.T) {
	srv := newTestServer(t, func(cfg *Config) {
		cfg.LoginRateLimitPerMinute = 1
	})

	body := `{"email":"hanako@example.com","password":"secret123"}`
	resp1 := postJSON(t, srv.URL+"/api/auth/login", body, "")
	resp1.Body.Close()
	if resp1.StatusCode != http.StatusOK {
		t.Fatalf("first request expected 200, got %d", resp1.StatusCode)
	}
	resp2 := postJSON(t, srv.URL+"/api/auth/login", body, "")
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second request expected 429, got %d", resp2.StatusCode)
	}
}

func TestLogoutExpiresIdentityCookie(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := postJSON(t, srv.URL+"/api/auth/logout", "", "user_id=42")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}
	var expired bool
	for _, c := range resp.Cookies() {
		if c.Name == "user_id" && c.MaxAge < 0 {
			expired = true
		}
	}
	if !expired {
		t.Fatalf("logout should expire the identity cookie")
	}
}

func TestFavoriteToggleRequiresIdentity(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := postJSON(t, srv.URL+"/api/stores/7/favorite", "", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous toggle status = %d, want 401", resp.StatusCode)
	}

	resp = postJSON(t, srv.URL+"/api/stores/7/favorite", "", "user_id=42")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("toggle status = %d, want 200", resp.StatusCode)
	}
	var state struct {
		IsFavorite bool `json:"is_favorite"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("decode toggle response: %v", err)
	}
	if !state.IsFavorite {
		t.Fatalf("first toggle should favorite the store")
	}
}

func TestReviewSubmissionValidation(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := postJSON(t, srv.URL+"/api/stores/7/reviews", `{"rating":0,"comment":"広い"}`, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing rating status = %d, want 400", resp.StatusCode)
	}

	resp = postJSON(t, srv.URL+"/api/stores/7/reviews", `{"rating":5,"comment":"   "}`, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("blank comment status = %d, want 400", resp.StatusCode)
	}

	resp = postJSON(t, srv.URL+"/api/stores/7/reviews", `{"rating":5,"comment":"最高でした"}`, "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("valid submission status = %d, want 201", resp.StatusCode)
	}
	var sub struct {
		Created       domain.Review `json:"created"`
		AverageRating string        `json:"average_rating"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&sub); err != nil {
		t.Fatalf("decode submission: %v", err)
	}
	if sub.Created.ID != 99 || sub.AverageRating != "4.5" {
		t.Fatalf("submission = %+v, want created 99 with average 4.5", sub)
	}
}

func TestCategoryListRoute(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/api/dogrun/stores/13?tags=2,1")
	if err != nil {
		t.Fatalf("get list: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var page struct {
		Category     string `json:"category"`
		SelectedTags []int  `json:"selected_tags"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.Category != "dogrun" {
		t.Fatalf("category = %q, want dogrun", page.Category)
	}
	if len(page.SelectedTags) != 2 || page.SelectedTags[0] != 1 {
		t.Fatalf("selected tags = %v, want sorted [1 2]", page.SelectedTags)
	}

	// Unknown category slugs have no route.
	resp404, err := http.Get(srv.URL + "/api/aquarium/stores/13")
	if err != nil {
		t.Fatalf("get unknown category: %v", err)
	}
	resp404.Body.Close()
	if resp404.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown category status = %d, want 404", resp404.StatusCode)
	}
}

func TestStoreDetailRouteCarriesFavoriteState(t *testing.T) {
	srv := newTestServer(t, nil)

	// Favorite the store first, then fetch the detail page as the same user.
	resp := postJSON(t, srv.URL+"/api/stores/7/favorite", "", "user_id=42")
	resp.Body.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/dogrun/detail/7", nil)
	req.Header.Set("Cookie", "user_id=42")
	detailResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get detail: %v", err)
	}
	defer detailResp.Body.Close()
	var page struct {
		IsFavorite    bool   `json:"is_favorite"`
		AverageRating string `json:"average_rating"`
	}
	if err := json.NewDecoder(detailResp.Body).Decode(&page); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if !page.IsFavorite {
		t.Fatalf("detail should report the store as favorited")
	}
	if page.AverageRating != "4.0" {
		t.Fatalf("average = %q, want 4.0", page.AverageRating)
	}
}

func TestServerRequiresRedisRateLimiter(t *testing.T) {
	remote := fakeRemoteAPI(t)
	api := petapi.NewClient(remote.URL)
	core, err := app.New(app.Config{API: api})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	if _, err := New(Config{App: core, API: api}); err == nil {
		t.Fatalf("expected redis-backed limiter initialization to fail without redis addr")
	}
}
