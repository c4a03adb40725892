package instance

import "testing"

func TestGetIDPrefersExplicitID(t *testing.T) {
	t.Setenv("DYNO", "web.1")
	t.Setenv("MACA_INSTANCE_ID", "api-7")
	if got := GetID("local"); got != "api-7" {
		t.Fatalf("expected api-7 got %q", got)
	}
}

func TestGetIDFallsBack(t *testing.T) {
	t.Setenv("DYNO", "")
	t.Setenv("MACA_INSTANCE_ID", "")
	if got := GetID("local"); got != "local" {
		t.Fatalf("expected fallback got %q", got)
	}
	t.Setenv("DYNO", "web.2")
	if got := GetID("local"); got != "web.2" {
		t.Fatalf("expected dyno id got %q", got)
	}
}
