package transport

import (
	"net/http/httptest"
	"testing"
)

func TestOriginPolicy(t *testing.T) {
	cases := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{name: "empty list allows all", allowed: nil, origin: "https://any.example", want: true},
		{name: "wildcard", allowed: []string{"*"}, origin: "https://any.example", want: true},
		{name: "exact match", allowed: []string{"https://chat.example.com"}, origin: "https://chat.example.com", want: true},
		{name: "case insensitive host", allowed: []string{"https://Chat.Example.com"}, origin: "https://chat.example.COM", want: true},
		{name: "other host", allowed: []string{"https://chat.example.com"}, origin: "https://evil.example.com", want: false},
		{name: "scheme mismatch", allowed: []string{"https://chat.example.com"}, origin: "http://chat.example.com", want: false},
		{name: "missing header", allowed: []string{"https://chat.example.com"}, origin: "", want: true},
		{name: "malformed header", allowed: []string{"https://chat.example.com"}, origin: "chat.example.com", want: false},
		{name: "only invalid entries", allowed: []string{"not-an-origin"}, origin: "https://any.example", want: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/ws", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			if got := newOriginPolicy(tc.allowed).allowed(req); got != tc.want {
				t.Fatalf("allowed(%q) with %v: expected %v got %v", tc.origin, tc.allowed, tc.want, got)
			}
		})
	}
}
