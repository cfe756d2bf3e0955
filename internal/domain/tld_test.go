package domain

import "testing"

func TestRegisteredDomain(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.bbc.co.uk/news", "bbc.co.uk"},
		{"http://example.com", "example.com"},
		{"https://blog.golang.org/context?x=1", "golang.org"},
		{"HTTPS://WWW.Example.COM./a", "example.com"},
		{"example.org/path", "example.org"},
		{"https://user:pw@sub.example.net:8443/", "example.net"},
		{"http://127.0.0.1:8080/", ""},
		{"http://[::1]/", ""},
		{"https://co.uk", ""},
		{"", ""},
		{"mailto:someone", ""},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := RegisteredDomain(tt.url); got != tt.want {
				t.Errorf("RegisteredDomain(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}
