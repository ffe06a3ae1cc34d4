package env

import "testing"

func TestGetFallback(t *testing.T) {
	t.Setenv("ENV_TEST_KEY", "")
	if v := Get("ENV_TEST_KEY", "fallback"); v != "fallback" {
		t.Errorf("expected fallback, got %q", v)
	}

	t.Setenv("ENV_TEST_KEY", "set")
	if v := Get("ENV_TEST_KEY", "fallback"); v != "set" {
		t.Errorf("expected set value, got %q", v)
	}
}

func TestRequirePresent(t *testing.T) {
	t.Setenv("ENV_TEST_REQUIRED", "value")
	if v := Require("ENV_TEST_REQUIRED"); v != "value" {
		t.Errorf("expected value, got %q", v)
	}
}
