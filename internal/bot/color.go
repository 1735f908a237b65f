package bot

import (
	"fmt"
	"strconv"
	"strings"
)

// 颜色预设，default 为 0 表示使用 Discord 默认色
var colorPresets = map[string]int{
	"aqua":       0x3498db,
	"gold":       0xf1c40f,
	"dark_gold":  0xc27c0e,
	"green":      0x2ecc71,
	"dark_green": 0x1f8b4c,
	"default":    0,
}

const (
	colorGreen = 0x2ecc71
	colorBlue  = 0x3498db
)

// resolveColor 解析颜色选项；custom 仅在预设为 default 时生效。
func resolveColor(preset, custom string) (int, error) {
	preset = strings.ToLower(strings.TrimSpace(preset))
	value := colorPresets[preset]

	custom = strings.TrimSpace(custom)
	if preset != "default" || custom == "" {
		return value, nil
	}

	hex := strings.TrimPrefix(custom, "#")
	parsed, err := strconv.ParseUint(hex, 16, 32)
	if err != nil || hex == "" || parsed > 0xffffff {
		return 0, fmt.Errorf("%w: %q", errInvalidColor, custom)
	}
	return int(parsed), nil
}
