package main

import (
	"os"
	"strings"
	"testing"
)

func TestTFallsBackToDefaults(t *testing.T) {
	// T must work even before InitMessages runs
	saved := globalMessages
	globalMessages = nil
	defer func() { globalMessages = saved }()

	if got := T("mode_direct"); got != "直连" {
		t.Errorf("T(mode_direct) = %q, expected compiled-in default", got)
	}
}

func TestTUnknownKeyReturnsKey(t *testing.T) {
	if got := T("no_such_key"); got != "no_such_key" {
		t.Errorf("T(no_such_key) = %q, expected the key itself", got)
	}
}

func TestTFormatsParams(t *testing.T) {
	got := T("skip_done", "user@example.com")
	if !strings.Contains(got, "user@example.com") {
		t.Errorf("T with params did not format: %q", got)
	}
}

func TestDetectSystemLocale(t *testing.T) {
	tests := []struct {
		env      map[string]string
		expected string
	}{
		{map[string]string{"LANG": "en_US.UTF-8"}, "en_US"},
		{map[string]string{"LANG": "", "LC_ALL": "ru_RU.UTF-8"}, "ru_RU"},
		{map[string]string{"LANG": "ja_JP"}, "ja_JP"},
		{map[string]string{}, "zh_CN"},
	}

	for _, test := range tests {
		for _, env := range []string{"LANG", "LC_ALL", "LC_MESSAGES"} {
			os.Unsetenv(env)
		}
		for env, value := range test.env {
			if value != "" {
				os.Setenv(env, value)
			}
		}

		if got := DetectSystemLocale(); got != test.expected {
			t.Errorf("env %v: DetectSystemLocale() = %q, expected %q", test.env, got, test.expected)
		}
	}
}

func TestInitMessagesWithoutOverrides(t *testing.T) {
	// No lang directory next to the test binary: InitMessages reports
	// the missing override file but the catalog still works.
	_ = InitMessages()

	if got := T("mode_proxy"); got != "代理" {
		t.Errorf("T(mode_proxy) = %q after init, expected default", got)
	}
	if GetLocale() == "" {
		t.Error("GetLocale() should never be empty after init")
	}
}
