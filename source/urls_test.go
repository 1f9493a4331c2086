package source

import (
	"errors"
	"net"
	"strings"
	"testing"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid https URL", "https://contoso.example/about", false},
		{"http URL rejected", "http://example.com", true},
		{"localhost rejected", "https://localhost:8080", true},
		{"loopback rejected", "https://127.0.0.1/path", true},
		{"private IP rejected", "https://192.168.1.1/path", true},
		{"IPv6 loopback rejected", "https://[::1]/", true},
		{".local domain rejected", "https://myserver.local/api", true},
		{".internal domain rejected", "https://db.internal/", true},
		{"missing host rejected", "https:///path", true},
		{"public IP allowed", "https://8.8.8.8/", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrURLNotAllowed) {
				t.Errorf("ValidateURL(%q) error %v does not wrap ErrURLNotAllowed", tt.url, err)
			}
		})
	}
}

func TestIsPrivateIP(t *testing.T) {
	tests := []struct {
		ip      string
		private bool
	}{
		{"10.1.2.3", true},
		{"172.16.0.1", true},
		{"192.168.0.1", true},
		{"127.0.0.1", true},
		{"169.254.169.254", true},
		{"100.64.0.1", true},
		{"0.0.0.0", true},
		{"::1", true},
		{"fd00::1", true},
		{"fe80::1", true},
		{"::ffff:192.168.1.1", true},
		{"8.8.8.8", false},
		{"2606:4700:4700::1111", false},
	}

	for _, tt := range tests {
		if got := IsPrivateIP(net.ParseIP(tt.ip)); got != tt.private {
			t.Errorf("IsPrivateIP(%s) = %v, want %v", tt.ip, got, tt.private)
		}
	}
}

func TestSourceID(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"https://contoso.com/about/team", "src-web-contoso-com-about-team"},
		{"https://contoso.com/", "src-web-contoso-com"},
		{"https://Contoso.com/About_Us?x=1", "src-web-contoso-com-about-us"},
	}
	for _, tt := range tests {
		if got := SourceID(tt.url); got != tt.expected {
			t.Errorf("SourceID(%q) = %q, want %q", tt.url, got, tt.expected)
		}
	}

	if got := SourceID("::not a url"); !strings.HasPrefix(got, "src-web-") || len(got) != len("src-web-")+16 {
		t.Errorf("SourceID(invalid) = %q, want hash fallback", got)
	}

	long := SourceID("https://contoso.com/" + strings.Repeat("segment/", 20))
	if len(long) > len("src-web-")+80 {
		t.Errorf("SourceID not truncated: %d chars", len(long))
	}
}
