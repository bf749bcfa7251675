// Package imageloader 将图片 URL 解析为像素尺寸与原始字节。
//
// 加载器不做重试，也不缓存：每个 URL 取一次、用一次。
package imageloader

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/webp"
)

// Loader 按 URL 加载一张图片。失败时返回 *ImageLoadError。
type Loader interface {
	Load(ctx context.Context, url string) (*LoadedImage, error)
}

// LoaderFunc 让普通函数满足 Loader。
type LoaderFunc func(ctx context.Context, url string) (*LoadedImage, error)

func (f LoaderFunc) Load(ctx context.Context, url string) (*LoadedImage, error) { return f(ctx, url) }

// LoadedImage 只在渲染一页期间持有，绘制完成后应调用 Release。
type LoadedImage struct {
	URL         string
	PixelWidth  int
	PixelHeight int
	// Format 为 image.Decode 识别出的格式名：jpeg/png/gif/webp。
	Format string
	Bytes  []byte
}

// Release 释放图片字节。
func (img *LoadedImage) Release() {
	if img != nil {
		img.Bytes = nil
	}
}

// ImageLoadError 表示单张图片加载失败（网络、解码或超时）。
type ImageLoadError struct {
	URL   string
	Cause error
}

func (e *ImageLoadError) Error() string {
	return fmt.Sprintf("加载图片 %s 失败: %v", e.URL, e.Cause)
}

func (e *ImageLoadError) Unwrap() error { return e.Cause }

func loadErr(url string, cause error) error {
	return &ImageLoadError{URL: url, Cause: cause}
}

// Decode 完整解码一次图片，得到尺寸与格式。只读头部会放过截断的数据，
// 那样的图片要到渲染面里才失败，整份文档随之作废。
func Decode(url string, data []byte) (*LoadedImage, error) {
	if len(data) == 0 {
		return nil, loadErr(url, fmt.Errorf("图片内容为空"))
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, loadErr(url, fmt.Errorf("图片解码失败: %w", err))
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, loadErr(url, fmt.Errorf("图片尺寸无效 %dx%d", b.Dx(), b.Dy()))
	}
	return &LoadedImage{
		URL:         url,
		PixelWidth:  b.Dx(),
		PixelHeight: b.Dy(),
		Format:      format,
		Bytes:       data,
	}, nil
}

// Mux 按 URL scheme 分派到不同加载器；无 scheme 的路径交给 "file"。
type Mux struct {
	loaders map[string]Loader
}

// NewMux 创建空的分派器。
func NewMux() *Mux { return &Mux{loaders: map[string]Loader{}} }

// Handle 注册 scheme（如 "http"、"data"、"file"）对应的加载器。
func (m *Mux) Handle(scheme string, l Loader) *Mux {
	m.loaders[strings.ToLower(scheme)] = l
	return m
}

// Load 实现 Loader。
func (m *Mux) Load(ctx context.Context, url string) (*LoadedImage, error) {
	if strings.TrimSpace(url) == "" {
		return nil, loadErr(url, fmt.Errorf("图片地址为空"))
	}
	scheme := schemeOf(url)
	l, ok := m.loaders[scheme]
	if !ok {
		return nil, loadErr(url, fmt.Errorf("不支持的地址协议 %q", scheme))
	}
	return l.Load(ctx, url)
}

func schemeOf(url string) string {
	i := strings.Index(url, ":")
	// 单字母视为 Windows 盘符
	if i <= 1 {
		return "file"
	}
	scheme := strings.ToLower(url[:i])
	for _, r := range scheme {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.') {
			return "file"
		}
	}
	return scheme
}

// Options 配置默认加载器组合。
type Options struct {
	BaseDir string
	HTTP    HTTPOptions
}

// New 返回支持 http/https、data: 与本地文件的加载器。
func New(opts Options) *Mux {
	h := NewHTTP(opts.HTTP)
	return NewMux().
		Handle("http", h).
		Handle("https", h).
		Handle("data", Data{}).
		Handle("file", File{BaseDir: opts.BaseDir})
}
