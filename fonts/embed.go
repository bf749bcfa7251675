// Package fonts 提供渲染器使用的内置字体。
package fonts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
)

var builtin = map[string][]byte{
	"regular":    goregular.TTF,
	"bold":       gobold.TTF,
	"italic":     goitalic.TTF,
	"bolditalic": gobolditalic.TTF,
}

// Load 返回内置字体的字节数据，src 可写为 "builtin:bold"、"embed:bold" 或直接 "bold"。
// 兼容旧写法 "Go-Bold.ttf"。
func Load(src string) ([]byte, error) {
	name := strings.TrimPrefix(strings.TrimPrefix(src, "builtin:"), "embed:")
	name = strings.ToLower(strings.TrimSuffix(name, ".ttf"))
	name = strings.TrimPrefix(name, "go-")
	name = strings.ReplaceAll(name, "-", "")
	data, ok := builtin[name]
	if !ok {
		return nil, fmt.Errorf("读取内置字体 %s 失败: 不存在", src)
	}
	return data, nil
}

// IsBuiltin 判断 src 是否引用内置字体。
func IsBuiltin(src string) bool {
	return strings.HasPrefix(src, "builtin:") || strings.HasPrefix(src, "embed:")
}

// ForStyle 按样式名（bold / italic / bold italic）返回内置字体。
func ForStyle(style string) []byte {
	s := strings.ToLower(style)
	bold := strings.Contains(s, "bold")
	italic := strings.Contains(s, "italic")
	switch {
	case bold && italic:
		return gobolditalic.TTF
	case bold:
		return gobold.TTF
	case italic:
		return goitalic.TTF
	default:
		return goregular.TTF
	}
}

// ReadFile 读取 builtin:/embed: 内置字体，或 baseDir 下的字体文件。
func ReadFile(src, baseDir string) ([]byte, error) {
	if IsBuiltin(src) {
		return Load(src)
	}
	path := src
	if baseDir == "" && !filepath.IsAbs(path) {
		return nil, fmt.Errorf("未指定资源目录时不允许直接使用字体路径：%s（请改用 builtin:）", src)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	return os.ReadFile(path)
}
