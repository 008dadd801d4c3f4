package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client Etherscan 源码注册表客户端
type Client struct {
	apiKey      string
	baseURL     string
	chainID     int64
	httpClient  *http.Client
	rateLimiter *RateLimiter
	maxAttempts int
}

// NewClient 创建注册表客户端（Etherscan v2 多链入口，按 chainid 区分）
func NewClient(baseURL string, chainID int64, apiKey string) *Client {
	return &Client{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		chainID: chainID,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		rateLimiter: NewRateLimiter(5),
		maxAttempts: 3,
	}
}

// Close 释放速率限制器
func (c *Client) Close() {
	if c.rateLimiter != nil {
		c.rateLimiter.Stop()
	}
}

// GetSource 获取地址的已验证源码记录
// 浏览器返回"未验证"不是错误：返回 Verified=false 的记录；网络层多次失败才返回 error
func (c *Client) GetSource(ctx context.Context, address string) (*SourceRecord, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("empty address passed to GetSource")
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse explorer base URL: %w", err)
	}

	q := url.Values{}
	q.Set("module", "contract")
	q.Set("action", "getsourcecode")
	q.Set("address", address)
	q.Set("chainid", fmt.Sprintf("%d", c.chainID))
	q.Set("apikey", c.apiKey)
	u.RawQuery = q.Encode()
	finalURL := u.String()

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		c.rateLimiter.Wait()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build explorer request: %w", err)
		}
		req.Header.Set("User-Agent", "auditprep/1.0")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			// 临时网络错误/超时重试，其余直接失败
			if isTemporaryNetErr(err) && attempt < c.maxAttempts {
				time.Sleep(time.Duration(attempt) * 500 * time.Millisecond)
				continue
			}
			return nil, fmt.Errorf("explorer request failed: %w", err)
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			if (readErr == io.ErrUnexpectedEOF || isTemporaryNetErr(readErr)) && attempt < c.maxAttempts {
				time.Sleep(time.Duration(attempt) * 500 * time.Millisecond)
				continue
			}
			return nil, fmt.Errorf("failed to read explorer response: %w", readErr)
		}

		if resp.StatusCode != http.StatusOK {
			snippet := string(body)
			if len(snippet) > 512 {
				snippet = snippet[:512]
			}
			return nil, fmt.Errorf("explorer returned status %d: %s", resp.StatusCode, snippet)
		}

		var parsed etherscanResponse
		if jerr := json.Unmarshal(body, &parsed); jerr != nil {
			lastErr = jerr
			if attempt < c.maxAttempts {
				time.Sleep(time.Duration(attempt) * 300 * time.Millisecond)
				continue
			}
			return nil, fmt.Errorf("failed to decode explorer response: %w", jerr)
		}

		record := &SourceRecord{Address: address}

		// status != "1" 或结果为空均表示业务层"未验证"，不是网络错误
		if parsed.Status != "1" || len(parsed.Result) == 0 {
			return record, nil
		}

		res := parsed.Result[0]
		if strings.TrimSpace(res.SourceCode) == "" {
			return record, nil
		}

		record.Verified = true
		record.ContractName = strings.TrimSpace(res.ContractName)
		record.MainFileName = strings.TrimSpace(res.ContractFileName)
		record.SourceText = res.SourceCode
		record.CompilerVersion = res.CompilerVersion
		record.ABI = res.ABI
		record.LicenseType = res.LicenseType
		record.DeclaredProxy = res.Proxy == "1"
		record.DeclaredImplementation = strings.TrimSpace(res.Implementation)
		record.ConstructorArgs = strings.TrimPrefix(strings.TrimSpace(res.ConstructorArguments), "0x")
		return record, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("explorer request failed after %d attempts: %w", c.maxAttempts, lastErr)
	}
	return nil, fmt.Errorf("explorer request failed for unknown reason (url=%s)", finalURL)
}

// isTemporaryNetErr 判断是否为可重试的网络错误
func isTemporaryNetErr(err error) bool {
	if err == nil {
		return false
	}
	if ne, ok := err.(net.Error); ok {
		return ne.Timeout()
	}
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		return true
	}
	return false
}

// RateLimiter 基于 ticker 的简单速率限制器
type RateLimiter struct {
	ticker *time.Ticker
}

// NewRateLimiter 每秒最多 requestsPerSecond 个请求
func NewRateLimiter(requestsPerSecond int) *RateLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &RateLimiter{
		ticker: time.NewTicker(time.Second / time.Duration(requestsPerSecond)),
	}
}

// Wait 阻塞到下一个请求窗口
func (r *RateLimiter) Wait() {
	<-r.ticker.C
}

// Stop 停止速率限制器
func (r *RateLimiter) Stop() {
	r.ticker.Stop()
}
