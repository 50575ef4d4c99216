package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Fixed result strings written into account records. These are wire
// data with exact values consumers match on, so they bypass the console
// message catalog.
const (
	checkSkipped        = "⏭️未处理"
	checkLoginFailed    = "❗登录失败: %s"
	checkAuthTimeout    = "❌获取登录认证信息超时"
	checkPageError      = "❗页面错误: %s"
	checkInfoIncomplete = "❌登录信息不完整，缺少: %s"
	checkSearchTimeout  = "❌检索软件超时"
	checkSearchError    = "❌检索软件出错: %v"
	checkProcessFailed  = "❌处理失败: %v"

	msgLoginFault         = "登录出错：%v"
	msgErrorBanner        = "错误提示: %s"
	msgErrorBannerUnknown = "错误提示: 未知错误"
	msgChallengePhone     = "需要进行电话验证，请处理。"
	msgChallengeDevice    = "需要进行设备验证，请处理。"
	msgAccountLocked      = "账号被锁定，请处理。"
	msgNothingMatched     = "啥也没命中"
)

// retrySignature marks the one login failure that is transient: the
// site could not verify the caller's identity, which a fresh proxy and
// session usually clears.
const retrySignature = "无法验证你的身份"

// Account is one credential to verify. A processor owns the record for
// the duration of one processing attempt; afterwards it belongs to the
// result store.
type Account struct {
	ID          string         `json:"id"`
	Password    string         `json:"password"`
	SearchApp   string         `json:"search_app,omitempty"`
	Check       *CheckValue    `json:"check,omitempty"`
	Details     []PurchaseItem `json:"details,omitempty"`
	ProcessTime string         `json:"process_time,omitempty"`
	Timestamp   string         `json:"timestamp,omitempty"`
}

// PurchaseItem is one flattened line item from the purchase history.
// Price keeps the raw JSON value since the endpoint returns either a
// number or a formatted string depending on storefront.
type PurchaseItem struct {
	AppName   string      `json:"app_name"`
	Publisher string      `json:"publisher"`
	Price     interface{} `json:"price"`
}

func (a *Account) Clone() *Account {
	clone := *a
	if a.Details != nil {
		clone.Details = append([]PurchaseItem(nil), a.Details...)
	}
	return &clone
}

// CheckValue is the tri-state outcome of one account: boolean true
// (purchase found), boolean false (not found), or a human-readable
// failure string. Only the two boolean states count as done; a string
// is retryable on the next run.
type CheckValue struct {
	isBool bool
	b      bool
	s      string
}

func CheckFound() *CheckValue    { return &CheckValue{isBool: true, b: true} }
func CheckNotFound() *CheckValue { return &CheckValue{isBool: true, b: false} }
func CheckMessage(format string, args ...interface{}) *CheckValue {
	return &CheckValue{s: fmt.Sprintf(format, args...)}
}

// Done reports whether this value pins the account as processed.
func (c *CheckValue) Done() bool {
	return c != nil && c.isBool
}

func (c *CheckValue) IsTrue() bool  { return c != nil && c.isBool && c.b }
func (c *CheckValue) IsFalse() bool { return c != nil && c.isBool && !c.b }

// Message returns the failure text, empty for boolean states.
func (c *CheckValue) Message() string {
	if c == nil || c.isBool {
		return ""
	}
	return c.s
}

func (c *CheckValue) String() string {
	switch {
	case c == nil:
		return ""
	case c.isBool && c.b:
		return "true"
	case c.isBool:
		return "false"
	default:
		return c.s
	}
}

func (c *CheckValue) MarshalJSON() ([]byte, error) {
	if c.isBool {
		return json.Marshal(c.b)
	}
	return json.Marshal(c.s)
}

func (c *CheckValue) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	switch val := v.(type) {
	case bool:
		*c = CheckValue{isBool: true, b: val}
	case string:
		*c = CheckValue{s: val}
	case nil:
		*c = CheckValue{}
	default:
		// Anything else from a hand-edited file is treated as a
		// failure string, which keeps the account retryable.
		*c = CheckValue{s: strings.TrimSpace(string(data))}
	}
	return nil
}

// LoadAccounts reads the input account list. A missing file is the one
// infrastructure error that aborts the run, so the caller checks for it
// explicitly.
func LoadAccounts(path string) ([]*Account, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var accounts []*Account
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, fmt.Errorf("failed to parse account list %s: %w", path, err)
	}

	return accounts, nil
}
