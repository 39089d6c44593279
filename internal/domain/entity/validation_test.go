package entity

import (
	"net"
	"strings"
	"testing"
)

func parseIP(t *testing.T, raw string) net.IP {
	t.Helper()
	ip := net.ParseIP(raw)
	if ip == nil {
		t.Fatalf("invalid test IP %q", raw)
	}
	return ip
}

func TestValidateURL_Valid(t *testing.T) {
	tests := []string{
		"https://hooks.slack.com/services/T000/B000/XXXX",
		"https://www.reddit.com/r/bangalore/comments/abc123/",
		"http://8.8.8.8/path",
	}

	for _, rawURL := range tests {
		if err := ValidateURL(rawURL); err != nil {
			t.Errorf("ValidateURL(%q) = %v, want nil", rawURL, err)
		}
	}
}

func TestValidateURL_Empty(t *testing.T) {
	if err := ValidateURL(""); err == nil {
		t.Error("expected error for empty URL")
	}
}

func TestValidateURL_TooLong(t *testing.T) {
	rawURL := "https://example.com/" + strings.Repeat("a", 2048)
	if err := ValidateURL(rawURL); err == nil {
		t.Error("expected error for oversized URL")
	}
}

func TestValidateURL_BadScheme(t *testing.T) {
	tests := []string{
		"ftp://example.com/file",
		"file:///etc/passwd",
		"javascript:alert(1)",
	}

	for _, rawURL := range tests {
		if err := ValidateURL(rawURL); err == nil {
			t.Errorf("ValidateURL(%q) = nil, want scheme error", rawURL)
		}
	}
}

func TestValidateURL_MissingHost(t *testing.T) {
	if err := ValidateURL("http://"); err == nil {
		t.Error("expected error for URL without host")
	}
}

func TestValidateURL_Malformed(t *testing.T) {
	if err := ValidateURL("http://exa mple.com/"); err == nil {
		t.Error("expected parse error for malformed URL")
	}
}

func TestValidateURL_PrivateNetworkBlocked(t *testing.T) {
	// IP literals resolve without DNS, so these exercise the SSRF guard
	// deterministically.
	tests := []string{
		"http://127.0.0.1/webhook",
		"http://10.0.0.5/webhook",
		"http://172.16.1.1/webhook",
		"http://192.168.1.10/webhook",
		"http://169.254.169.254/latest/meta-data/",
	}

	for _, rawURL := range tests {
		if err := ValidateURL(rawURL); err == nil {
			t.Errorf("ValidateURL(%q) = nil, want private network error", rawURL)
		}
	}
}

func TestIsPrivateIP_PublicRanges(t *testing.T) {
	tests := []string{"8.8.8.8", "1.1.1.1", "151.101.1.140"}

	for _, raw := range tests {
		ip := parseIP(t, raw)
		if isPrivateIP(ip) {
			t.Errorf("isPrivateIP(%s) = true, want false", raw)
		}
	}
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Field: "url", Message: "URL is required"}

	want := "validation error on field 'url': URL is required"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
