package env

import "testing"

func TestGetPrefersPrefixedName(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("KRISHI_LOG_FORMAT", "console")
	if got := Get("LOG_FORMAT", "json"); got != "console" {
		t.Fatalf("expected prefixed value, got %q", got)
	}
}

func TestGetFallsBack(t *testing.T) {
	t.Setenv("KRISHI_LOG_FORMAT", "  ")
	t.Setenv("LOG_FORMAT", "console")
	if got := Get("LOG_FORMAT", "json"); got != "console" {
		t.Fatalf("blank prefixed value should fall through, got %q", got)
	}
	if got := Get("KRISHI_TEST_UNSET_KEY", "dflt"); got != "dflt" {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestBool(t *testing.T) {
	t.Setenv("KRISHI_LOG_COLOR", "false")
	if Bool("LOG_COLOR", true) {
		t.Fatalf("expected false")
	}
	t.Setenv("KRISHI_LOG_COLOR", "maybe")
	if !Bool("LOG_COLOR", true) {
		t.Fatalf("unparseable value should use fallback")
	}
}
