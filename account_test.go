package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestCheckValueMarshal(t *testing.T) {
	tests := []struct {
		name     string
		check    *CheckValue
		expected string
	}{
		{"found", CheckFound(), `true`},
		{"not found", CheckNotFound(), `false`},
		{"failure string", CheckMessage("❗登录失败: %s", "错误提示: bad password"), `"❗登录失败: 错误提示: bad password"`},
		{"skip marker", CheckMessage(checkSkipped), `"⏭️未处理"`},
	}

	for _, test := range tests {
		data, err := json.Marshal(test.check)
		if err != nil {
			t.Fatalf("%s: marshal failed: %v", test.name, err)
		}
		if string(data) != test.expected {
			t.Errorf("%s: marshal = %s, expected %s", test.name, data, test.expected)
		}
	}
}

func TestCheckValueUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		done    bool
		isTrue  bool
		message string
	}{
		{"bool true", `true`, true, true, ""},
		{"bool false", `false`, true, false, ""},
		{"failure string", `"❌检索软件超时"`, false, false, "❌检索软件超时"},
		{"number is retryable", `42`, false, false, "42"},
		{"null is retryable", `null`, false, false, ""},
	}

	for _, test := range tests {
		var check CheckValue
		if err := json.Unmarshal([]byte(test.input), &check); err != nil {
			t.Fatalf("%s: unmarshal failed: %v", test.name, err)
		}
		if check.Done() != test.done {
			t.Errorf("%s: Done() = %v, expected %v", test.name, check.Done(), test.done)
		}
		if check.IsTrue() != test.isTrue {
			t.Errorf("%s: IsTrue() = %v, expected %v", test.name, check.IsTrue(), test.isTrue)
		}
		if check.Message() != test.message {
			t.Errorf("%s: Message() = %q, expected %q", test.name, check.Message(), test.message)
		}
	}
}

func TestCheckValueNilSemantics(t *testing.T) {
	var check *CheckValue

	if check.Done() {
		t.Error("nil check should not be done")
	}
	if check.IsTrue() || check.IsFalse() {
		t.Error("nil check should be neither true nor false")
	}
	if check.String() != "" {
		t.Errorf("nil check String() = %q, expected empty", check.String())
	}
}

func TestAccountRoundTrip(t *testing.T) {
	acc := &Account{
		ID:       "user@example.com",
		Password: "secret",
		Check:    CheckFound(),
		Details: []PurchaseItem{
			{AppName: "SomeApp", Publisher: "SomePublisher", Price: "¥6.00"},
		},
		ProcessTime: "12.34秒",
		Timestamp:   "2026-08-31 10:00:00",
	}

	data, err := json.Marshal(acc)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded Account
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if !decoded.Check.IsTrue() {
		t.Error("Expected check to survive round trip as boolean true")
	}
	if len(decoded.Details) != 1 || decoded.Details[0].AppName != "SomeApp" {
		t.Errorf("Details did not survive round trip: %+v", decoded.Details)
	}
}

func TestAccountClone(t *testing.T) {
	acc := &Account{
		ID:      "a",
		Details: []PurchaseItem{{AppName: "App"}},
	}

	clone := acc.Clone()
	clone.Details[0].AppName = "Changed"
	clone.ID = "b"

	if acc.ID != "a" {
		t.Error("Clone should not share the ID field")
	}
	if acc.Details[0].AppName != "App" {
		t.Error("Clone should not share the details slice")
	}
}

func TestLoadAccounts(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "accounts.json")

	content := `[
		{"id": "a", "password": "pa"},
		{"id": "b", "password": "pb", "search_app": "555", "check": "❗登录失败: x"}
	]`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write accounts file: %v", err)
	}

	accounts, err := LoadAccounts(path)
	if err != nil {
		t.Fatalf("LoadAccounts failed: %v", err)
	}

	if len(accounts) != 2 {
		t.Fatalf("Expected 2 accounts, got %d", len(accounts))
	}

	if accounts[0].ID != "a" || accounts[1].SearchApp != "555" {
		t.Errorf("Accounts parsed incorrectly: %+v", accounts)
	}

	if accounts[1].Check.Done() {
		t.Error("A failure string should not count as done")
	}
}

func TestLoadAccountsMissingFile(t *testing.T) {
	_, err := LoadAccounts(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("Expected an error for a missing input file")
	}
	if !os.IsNotExist(err) {
		t.Errorf("Expected a not-exist error, got %v", err)
	}
}

func TestIsIdentityVerificationError(t *testing.T) {
	tests := []struct {
		message  string
		expected bool
	}{
		{"错误提示: 无法验证你的身份。", true},
		{"登录出错：context deadline exceeded", false},
		{"账号被锁定，请处理。", false},
		{"", false},
	}

	for _, test := range tests {
		if got := isIdentityVerificationError(test.message); got != test.expected {
			t.Errorf("isIdentityVerificationError(%q) = %v, expected %v", test.message, got, test.expected)
		}
	}
}
