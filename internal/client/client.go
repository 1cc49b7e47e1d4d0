// Package client 封装学校课程 API 与学生会学习计划 API 的 HTTP 调用。
// 两个上游都使用身份提供方颁发的 bearer token，由调用方逐次传入。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/studentenschaft/Biddit2-sub002/pkg/errors"
)

var (
	// ErrUnauthorized 上游返回 401，上游 token 失效
	ErrUnauthorized = errors.New("上游 token 无效或已过期")
	// ErrNotFound 上游返回 404
	ErrNotFound = errors.New("上游资源不存在")
)

// maxErrorBody 错误响应最多保留的字节数
const maxErrorBody = 512

// APIError 上游返回的非 2xx 且未单独映射的状态码
type APIError struct {
	Method string
	URL    string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("上游请求失败: %s %s 状态码 %d: %s", e.Method, e.URL, e.Status, e.Body)
}

// httpDoer 通用 JSON 请求执行器
type httpDoer struct {
	baseURL string
	http    *http.Client
}

func newDoer(baseURL string, timeout time.Duration, hc *http.Client) httpDoer {
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	return httpDoer{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// do 发送请求；body 非空时编码为 JSON，out 非空时解码响应
func (d httpDoer) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("请求序列化失败: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	url := d.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := d.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", pkgerrors.ErrUpstreamUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s %s 状态码 %d", pkgerrors.ErrUpstreamUnavailable, method, path, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Method: method, URL: path, Status: resp.StatusCode, Body: string(snippet)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("解析上游响应失败: %s %s: %w", method, path, err)
	}
	return nil
}
