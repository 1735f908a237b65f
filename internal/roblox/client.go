// Package roblox 提供按用户名查询 Roblox 头像的客户端。
//
// 查询分两步：先按关键字搜索用户得到 id，再取该用户的头像缩略图地址。
// 结果总是四种状态之一，调用方无需处理 error。
package roblox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultUsersBaseURL      = "https://users.roblox.com"
	DefaultThumbnailsBaseURL = "https://thumbnails.roblox.com"
	DefaultAttempts          = 3
	DefaultTimeout           = 10 * time.Second
	DefaultBackoff           = time.Second

	userAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	maxBodyBytes  = 1 << 20
	thumbnailSize = "720x720"
)

// Status 表示一次查询的结论。
type Status int

const (
	Found Status = iota
	NotFound
	TimedOut
	TransientError
)

func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	case TimedOut:
		return "timed_out"
	case TransientError:
		return "transient_error"
	default:
		return "unknown"
	}
}

// Result 是 Lookup 的返回值。仅当 Status 为 Found 时 URL 有效。
type Result struct {
	Status Status
	URL    string
	UserID int64
	Err    error
}

type httpDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Config 描述客户端的目标地址与重试策略，零值字段使用默认值。
type Config struct {
	UsersBaseURL      string
	ThumbnailsBaseURL string
	Attempts          int
	Timeout           time.Duration
	Backoff           time.Duration
}

// Client 查询 Roblox 公共接口。可被多个 goroutine 并发使用。
type Client struct {
	http              httpDoer
	usersBaseURL      string
	thumbnailsBaseURL string
	attempts          int
	timeout           time.Duration
	backoff           time.Duration
	sleep             func(context.Context, time.Duration) error
	logger            *zap.Logger
}

// New 创建客户端，logger 为 nil 时不输出日志。
func New(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		http:     &http.Client{},
		attempts: cfg.Attempts,
		timeout:  cfg.Timeout,
		backoff:  cfg.Backoff,
		sleep:    sleepContext,
		logger:   logger.Named("roblox"),
	}
	c.SetBaseURLs(cfg.UsersBaseURL, cfg.ThumbnailsBaseURL)
	if c.attempts <= 0 {
		c.attempts = DefaultAttempts
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.backoff <= 0 {
		c.backoff = DefaultBackoff
	}
	return c
}

func (c *Client) SetHTTPClient(client httpDoer) {
	if client == nil {
		c.http = &http.Client{}
		return
	}
	c.http = client
}

func (c *Client) SetBaseURLs(users, thumbnails string) {
	users = strings.TrimRight(strings.TrimSpace(users), "/")
	if users == "" {
		users = DefaultUsersBaseURL
	}
	thumbnails = strings.TrimRight(strings.TrimSpace(thumbnails), "/")
	if thumbnails == "" {
		thumbnails = DefaultThumbnailsBaseURL
	}
	c.usersBaseURL = users
	c.thumbnailsBaseURL = thumbnails
}

// SetSleep 替换退避等待函数，测试中用于避免真实等待。
func (c *Client) SetSleep(fn func(context.Context, time.Duration) error) {
	if fn == nil {
		fn = sleepContext
	}
	c.sleep = fn
}

type searchResponse struct {
	Data []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"data"`
}

type thumbnailResponse struct {
	Data []struct {
		TargetID int64  `json:"targetId"`
		State    string `json:"state"`
		ImageURL string `json:"imageUrl"`
	} `json:"data"`
}

var (
	errEmptyUsername = errors.New("username is empty")
	errNoUser        = errors.New("no matching user")
	errNoThumbnail   = errors.New("no thumbnail for user")
)

// statusError 表示接口返回了非 200 状态码，此类失败立即重试。
type statusError struct {
	endpoint string
	code     int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.endpoint, e.code)
}

// Lookup 按用户名查询头像地址，整个过程受 timeout 限制。
func (c *Client) Lookup(ctx context.Context, username string) Result {
	username = strings.TrimSpace(username)
	if username == "" {
		return Result{Status: NotFound, Err: errEmptyUsername}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	log := c.logger.With(zap.String("username", username))
	var lastErr error

	for attempt := 1; attempt <= c.attempts; attempt++ {
		userID, imageURL, err := c.lookupOnce(ctx, username)
		if err == nil {
			log.Debug("avatar found", zap.Int("attempt", attempt), zap.Int64("user_id", userID))
			return Result{Status: Found, URL: imageURL, UserID: userID}
		}
		lastErr = err

		if ctx.Err() != nil {
			log.Warn("avatar lookup interrupted", zap.Int("attempt", attempt), zap.Error(err))
			return Result{Status: contextStatus(ctx.Err()), Err: ctx.Err()}
		}

		var se *statusError
		switch {
		case errors.Is(err, errNoUser), errors.Is(err, errNoThumbnail):
			log.Info("avatar not found", zap.Int("attempt", attempt), zap.Error(err))
			return Result{Status: NotFound, UserID: userID, Err: err}
		case errors.As(err, &se):
			log.Warn("avatar lookup rejected", zap.Int("attempt", attempt), zap.Int("status", se.code))
			if attempt == c.attempts {
				return Result{Status: NotFound, Err: err}
			}
		case isConnectionError(err):
			log.Warn("avatar lookup connection failed", zap.Int("attempt", attempt), zap.Error(err))
			if attempt == c.attempts {
				return Result{Status: TransientError, Err: err}
			}
			wait := c.backoff << (attempt - 1)
			if sleepErr := c.sleep(ctx, wait); sleepErr != nil {
				return Result{Status: contextStatus(sleepErr), Err: sleepErr}
			}
		default:
			log.Error("avatar lookup failed", zap.Int("attempt", attempt), zap.Error(err))
			return Result{Status: TransientError, Err: err}
		}
	}

	return Result{Status: TransientError, Err: lastErr}
}

// contextStatus 只有超时算 TimedOut；上层取消（例如关闭机器人）算 TransientError
func contextStatus(err error) Status {
	if errors.Is(err, context.DeadlineExceeded) {
		return TimedOut
	}
	return TransientError
}

func (c *Client) lookupOnce(ctx context.Context, username string) (int64, string, error) {
	query := url.Values{}
	query.Set("keyword", username)
	query.Set("limit", "1")

	var search searchResponse
	if err := c.getJSON(ctx, "users/search", c.usersBaseURL+"/v1/users/search?"+query.Encode(), &search); err != nil {
		return 0, "", err
	}
	if len(search.Data) == 0 {
		return 0, "", errNoUser
	}
	userID := search.Data[0].ID

	query = url.Values{}
	query.Set("userIds", strconv.FormatInt(userID, 10))
	query.Set("size", thumbnailSize)
	query.Set("format", "Png")

	var thumbs thumbnailResponse
	if err := c.getJSON(ctx, "avatar-headshot", c.thumbnailsBaseURL+"/v1/users/avatar-headshot?"+query.Encode(), &thumbs); err != nil {
		return userID, "", err
	}
	if len(thumbs.Data) == 0 || strings.TrimSpace(thumbs.Data[0].ImageURL) == "" {
		return userID, "", errNoThumbnail
	}
	return userID, thumbs.Data[0].ImageURL, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return &statusError{endpoint: endpoint, code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read %s response: %w", endpoint, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

// isConnectionError 判断是否为拨号、DNS 等连接层失败。
func isConnectionError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
