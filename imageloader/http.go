package imageloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// HTTPOptions 配置远程图片加载。
type HTTPOptions struct {
	Client    *http.Client
	UserAgent string
	// MaxBytes 限制单张图片大小，<=0 表示不限制。
	MaxBytes int64
	// RatePerSecond 为每秒最多发起的请求数，<=0 表示不限速。
	RatePerSecond float64
	Burst         int
}

// HTTP 通过 GET 请求加载图片。超时由调用方的 context 或 Client 决定，加载器本身不设。
type HTTP struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
	limiter   *rate.Limiter
}

// NewHTTP 创建远程加载器。
func NewHTTP(opts HTTPOptions) *HTTP {
	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}
	h := &HTTP{client: client, userAgent: opts.UserAgent, maxBytes: opts.MaxBytes}
	if opts.RatePerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		h.limiter = rate.NewLimiter(rate.Every(time.Duration(float64(time.Second)/opts.RatePerSecond)), burst)
	}
	return h
}

// Load 实现 Loader。
func (h *HTTP) Load(ctx context.Context, url string) (*LoadedImage, error) {
	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			return nil, loadErr(url, err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, loadErr(url, fmt.Errorf("创建请求失败: %w", err))
	}
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, loadErr(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, loadErr(url, fmt.Errorf("响应状态 %s", resp.Status))
	}

	var body io.Reader = resp.Body
	if h.maxBytes > 0 {
		body = io.LimitReader(resp.Body, h.maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, loadErr(url, fmt.Errorf("读取响应失败: %w", err))
	}
	if h.maxBytes > 0 && int64(len(data)) > h.maxBytes {
		return nil, loadErr(url, errTooLarge)
	}
	return Decode(url, data)
}

var errTooLarge = errors.New("图片超过大小限制")
