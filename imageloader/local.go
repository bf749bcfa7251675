package imageloader

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// File 从本地文件系统读取图片，相对路径基于 BaseDir 解析。
type File struct {
	BaseDir string
}

// Load 实现 Loader。接受 file:// URL 或普通路径。
func (f File) Load(ctx context.Context, src string) (*LoadedImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, loadErr(src, err)
	}
	path := src
	if strings.HasPrefix(strings.ToLower(src), "file:") {
		u, err := url.Parse(src)
		if err != nil {
			return nil, loadErr(src, err)
		}
		path = u.Path
	}
	if !filepath.IsAbs(path) {
		if f.BaseDir == "" {
			return nil, loadErr(src, fmt.Errorf("未指定资源目录时不允许使用相对路径"))
		}
		path = filepath.Join(f.BaseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, loadErr(src, err)
	}
	return Decode(src, data)
}

// Data 解析 data:[<mediatype>][;base64],<data> 形式的内联图片。
type Data struct{}

// Load 实现 Loader。
func (Data) Load(ctx context.Context, src string) (*LoadedImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, loadErr(src, err)
	}
	rest, ok := strings.CutPrefix(src, "data:")
	if !ok {
		return nil, loadErr(src, fmt.Errorf("不是 data URL"))
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, loadErr(src, fmt.Errorf("data URL 缺少逗号分隔"))
	}
	var data []byte
	if strings.HasSuffix(meta, ";base64") {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, loadErr(src, fmt.Errorf("base64 解码失败: %w", err))
		}
		data = decoded
	} else {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return nil, loadErr(src, err)
		}
		data = []byte(unescaped)
	}
	// 报告中不保留整段 base64
	name := src
	if len(name) > 64 {
		name = name[:64] + "..."
	}
	return Decode(name, data)
}
