package api

import "testing"

func TestNewClientFromCredentials(t *testing.T) {
	c, err := NewClientFromCredentials("https://shop.example.com/", "tok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.BaseURL() != "https://shop.example.com" {
		t.Errorf("expected trailing slash trimmed, got %q", c.BaseURL())
	}

	c, err = NewClientFromCredentials("", "tok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.BaseURL() != DefaultBaseURL {
		t.Errorf("expected default base URL, got %q", c.BaseURL())
	}

	for _, bad := range []string{"ftp://shop", "https://", "::nope"} {
		if _, err := NewClientFromCredentials(bad, "tok"); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
