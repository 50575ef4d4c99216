package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Console message catalog. The defaults below are compiled in so the
// binary runs standalone; a lang/<locale>.yaml file next to the
// executable overrides individual keys. Strings that end up inside
// account records (challenge directives, the skipped marker, failure
// prefixes) are wire data with exact values and deliberately do not go
// through the catalog.
var defaultMessages = map[string]string{
	"config_template_hint": "💡 提示：可以编辑 %s 并重命名为 %s",
	"config_load_failed":   "⚠️ 加载配置文件失败: %v",
	"config_loaded":        "✅ 已从 %s 加载配置",

	"prior_loaded":          "📂 已加载 %d 个已处理结果从 %s",
	"prior_load_failed":     "⚠️ 加载现有结果失败: %v",
	"snapshot_save_failed":  "⚠️ 保存临时结果失败: %v",
	"finalize_save_failed":  "⚠️ 最终保存失败: %v",

	"skip_done":     "⏭️ 跳过已处理: %s",
	"all_done":      "✅ 所有账号都已处理完成！",
	"banner_title":  "🚀 Apple账号检查器",
	"banner_queue":  "📋 待处理: %d/%d",
	"banner_app":    "🔍 搜索软件: %s",
	"banner_mode":   "🌐 模式: %s",
	"mode_proxy":    "代理",
	"mode_direct":   "直连",
	"banner_limit":  "⚡ 并发数: %d",

	"proxy_in_use":        "账号 %s 使用代理: %s",
	"login_ok_capturing":  "账号 %s 登录成功，等待获取认证信息...",
	"auth_captured":       "ℹ️ 成功获取账号 %s 的认证信息，开始检索...",
	"retry_identity":      "账号 %s 遇到身份验证错误，重试中...",
	"retry_generic":       "❗账号 %s 处理失败 (%v)，重试中...",

	"input_missing": "❌ 找不到文件: %s",
	"run_error":     "❌ 程序错误: %v",
	"done_banner":   "✅ 处理完成！",
	"result_file":   "📁 结果: %s",
	"stats_header":  "📊 统计:",
	"stat_found":    "✔️ 成功",
	"stat_missing":  "❌ 未找到",
	"stat_failed":   "❗ 失败",
	"stat_skipped":  "⏭️ 未处理",
}

type MessageCatalog struct {
	messages map[string]string
	locale   string
}

var globalMessages *MessageCatalog

// InitMessages builds the catalog from the compiled-in defaults plus any
// lang/<locale>.yaml override for the detected system locale.
func InitMessages() error {
	locale := DetectSystemLocale()

	catalog := &MessageCatalog{
		messages: make(map[string]string, len(defaultMessages)),
		locale:   locale,
	}
	for k, v := range defaultMessages {
		catalog.messages[k] = v
	}

	overrides, err := loadMessageOverrides(locale)
	if err == nil {
		for k, v := range overrides {
			catalog.messages[k] = v
		}
	}

	globalMessages = catalog
	return err
}

// DetectSystemLocale detects the user's system locale from the usual
// environment variables, falling back to zh_CN (the catalog's default
// language).
func DetectSystemLocale() string {
	for _, env := range []string{"LANG", "LC_ALL", "LC_MESSAGES"} {
		if locale := os.Getenv(env); locale != "" {
			parts := strings.Split(locale, ".")
			if len(parts) > 0 && parts[0] != "" {
				return parts[0]
			}
		}
	}
	return "zh_CN"
}

func loadMessageOverrides(locale string) (map[string]string, error) {
	exePath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}

	localeFile := filepath.Join(filepath.Dir(exePath), "lang", locale+".yaml")

	data, err := os.ReadFile(localeFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read locale file %s: %w", localeFile, err)
	}

	var overrides map[string]string
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse locale file %s: %w", localeFile, err)
	}

	return overrides, nil
}

// T looks up a message key, formatting with params when given. Unknown
// keys come back as-is so a missing entry is visible but harmless.
func T(key string, params ...interface{}) string {
	catalog := globalMessages

	var msg string
	if catalog != nil {
		msg = catalog.messages[key]
	}
	if msg == "" {
		msg = defaultMessages[key]
	}
	if msg == "" {
		return key
	}

	if len(params) > 0 {
		return fmt.Sprintf(msg, params...)
	}
	return msg
}

// GetLocale returns the active locale code.
func GetLocale() string {
	if globalMessages == nil {
		return "zh_CN"
	}
	return globalMessages.locale
}
