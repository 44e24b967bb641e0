package main

import "testing"

func TestHealthURL(t *testing.T) {
	t.Setenv("PORT", "")
	if got := healthURL(); got != "http://localhost:8080/healthz" {
		t.Errorf("healthURL() = %q, want default port 8080", got)
	}

	t.Setenv("PORT", "3000")
	if got := healthURL(); got != "http://localhost:3000/healthz" {
		t.Errorf("healthURL() = %q, want port 3000", got)
	}
}
