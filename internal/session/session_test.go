package session

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestParseUserID(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   int
		wantOK bool
	}{
		{name: "user_id among other cookies", raw: "foo=bar; user_id=42", want: 42, wantOK: true},
		{name: "user_id first", raw: "user_id=7; theme=dark", want: 7, wantOK: true},
		{name: "uri encoded value", raw: "user_id=%34%32", want: 42, wantOK: true},
		{name: "missing entry", raw: "foo=bar; baz=qux", wantOK: false},
		{name: "non numeric value", raw: "user_id=abc", wantOK: false},
		{name: "empty header", raw: "", wantOK: false},
		{name: "empty value", raw: "user_id=", wantOK: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseUserID(tc.raw)
			if ok != tc.wantOK {
				t.Fatalf("ParseUserID(%q) ok = %v, want %v", tc.raw, ok, tc.wantOK)
			}
			if ok && got != tc.want {
				t.Fatalf("ParseUserID(%q) = %d, want %d", tc.raw, got, tc.want)
			}
		})
	}
}

func TestUserIDFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Cookie", "session=zzz; user_id=13")
	id, ok := UserIDFromRequest(r)
	if !ok || id != 13 {
		t.Fatalf("UserIDFromRequest = (%d, %v), want (13, true)", id, ok)
	}
}

func TestSetAndClearUserID(t *testing.T) {
	rec := httptest.NewRecorder()
	SetUserID(rec, 42, Options{MaxAge: time.Hour, Secure: true})
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != CookieName || c.Value != "42" {
		t.Fatalf("cookie = %s=%s, want user_id=42", c.Name, c.Value)
	}
	if c.MaxAge != 3600 || !c.Secure {
		t.Fatalf("cookie attributes = maxAge %d secure %v", c.MaxAge, c.Secure)
	}

	rec = httptest.NewRecorder()
	ClearUserID(rec, Options{})
	cookies = rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected expiring cookie, got %+v", cookies)
	}
}
