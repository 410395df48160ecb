package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const maxDeviceNameLength = 512

var strictPolicy = bluemonday.StrictPolicy()

// SanitizeDeviceName 去除客户端提交的设备名（通常为 User-Agent）中的标记并截断。
func SanitizeDeviceName(name string) string {
	cleaned := strings.TrimSpace(strictPolicy.Sanitize(name))
	if r := []rune(cleaned); len(r) > maxDeviceNameLength {
		cleaned = string(r[:maxDeviceNameLength])
	}
	return cleaned
}
