package monitorapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"atmwatch/internal/observability/metrics"
)

// Config carries the monitoring endpoint connection settings. Zero timeout
// and TTL fields fall back to conservative defaults; retry fields are taken
// as-is (zero means no retries).
type Config struct {
	BaseURL    string
	Username   string
	Password   string
	IssueState string

	ProbeTimeout   time.Duration
	LoginTimeout   time.Duration
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration

	RetryCount   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	SessionTTL time.Duration
}

func (c Config) withDefaults() Config {
	if c.IssueState == "" {
		c.IssueState = "ALL"
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = 10 * time.Second
	}
	if c.LoginTimeout <= 0 {
		c.LoginTimeout = 30 * time.Second
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 15 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.RetryWaitMin <= 0 {
		c.RetryWaitMin = time.Second
	}
	if c.RetryWaitMax <= 0 {
		c.RetryWaitMax = 5 * time.Second
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 15 * time.Minute
	}
	return c
}

// Client talks to the vendor ATM monitoring endpoint. Login runs without
// retries; terminal calls retry transport errors and 5xx responses through
// the resty client policy. The client caches the session and re-logs-in
// only when the token nears expiry.
type Client struct {
	cfg       Config
	probeAddr string
	log       *zap.Logger

	authHTTP *resty.Client
	apiHTTP  *resty.Client

	mu      sync.Mutex
	session *Session
}

// NewClient constructs a monitoring endpoint client.
func NewClient(cfg Config, log *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("monitorapi: empty base url")
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, errors.New("monitorapi: missing credentials")
	}
	cfg = cfg.withDefaults()
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	probeAddr, err := probeAddress(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	transport := &http.Transport{
		DialContext:         (&net.Dialer{Timeout: cfg.ConnectTimeout}).DialContext,
		TLSHandshakeTimeout: cfg.ConnectTimeout,
		MaxIdleConnsPerHost: 8,
	}

	c := &Client{cfg: cfg, probeAddr: probeAddr, log: log}

	c.authHTTP = resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTransport(transport).
		SetTimeout(cfg.LoginTimeout)

	c.apiHTTP = resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTransport(transport).
		SetTimeout(cfg.ReadTimeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWaitMin).
		SetRetryMaxWaitTime(cfg.RetryWaitMax).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil || resp.StatusCode() >= http.StatusInternalServerError
		}).
		AddRetryHook(func(resp *resty.Response, err error) {
			metrics.IncFetchRetry()
			log.Debug("retrying terminal call", zap.Error(err))
		})

	return c, nil
}

// TerminalInfo is one entry of the vendor's terminal listing.
type TerminalInfo struct {
	TerminalID string
	Location   string
	RegionCode string
}

// TerminalStatus is the vendor's status snapshot for one terminal.
type TerminalStatus struct {
	TerminalID       string
	StatusCode       string
	Location         string
	RegionCode       string
	FaultDescription string
}

// Authenticate returns a usable session, reusing the cached one while it is
// fresh. A new session is established by probing host reachability first
// (10s class failure, reported as ErrConnectivity) and then logging in
// (rejections reported as ErrAuth). Neither step retries.
func (c *Client) Authenticate(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UTC()
	if c.session.FreshAt(now) {
		return c.session, nil
	}

	if err := c.probe(ctx); err != nil {
		return nil, err
	}
	session, err := c.login(ctx, now)
	if err != nil {
		return nil, err
	}
	c.session = session
	c.log.Debug("monitoring session established", zap.Time("expires_at", session.ExpiresAt))
	return session, nil
}

// Invalidate drops the cached session, forcing a login on the next
// Authenticate call.
func (c *Client) Invalidate() {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
}

// probe checks TCP reachability of the monitoring host. It distinguishes a
// dead host from a live one rejecting credentials.
func (c *Client) probe(ctx context.Context) error {
	dialer := net.Dialer{Timeout: c.cfg.ProbeTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.probeAddr)
	if err != nil {
		return fmt.Errorf("%w: probe %s: %v", ErrConnectivity, c.probeAddr, err)
	}
	_ = conn.Close()
	return nil
}

func (c *Client) login(ctx context.Context, now time.Time) (*Session, error) {
	var out loginResponse
	resp, err := c.authHTTP.R().
		SetContext(ctx).
		SetBody(loginRequest{Username: c.cfg.Username, Password: c.cfg.Password}).
		SetResult(&out).
		Post("/api/auth/login")
	if err != nil {
		return nil, fmt.Errorf("%w: login: %v", ErrConnectivity, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: login http %d", ErrAuth, resp.StatusCode())
	}
	if out.Token == "" {
		return nil, fmt.Errorf("%w: login returned no token", ErrAuth)
	}
	return &Session{Token: out.Token, ExpiresAt: c.tokenExpiry(out.Token, now)}, nil
}

// ListTerminals fetches the vendor's own terminal roster. Used to warn about
// drift against the configured roster; the configured roster stays
// authoritative.
func (c *Client) ListTerminals(ctx context.Context, session *Session) ([]TerminalInfo, error) {
	if session == nil {
		return nil, errors.New("monitorapi: nil session")
	}
	var out terminalListResponse
	resp, err := c.apiHTTP.R().
		SetContext(ctx).
		SetAuthToken(session.Token).
		SetResult(&out).
		Get("/api/terminals")
	if err != nil {
		return nil, fmt.Errorf("monitorapi: list terminals: %w", err)
	}
	if resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden {
		return nil, fmt.Errorf("%w: list terminals http %d", ErrAuth, resp.StatusCode())
	}
	if resp.IsError() {
		return nil, fmt.Errorf("monitorapi: list terminals http %d", resp.StatusCode())
	}
	infos := make([]TerminalInfo, 0, len(out.Data))
	for _, item := range out.Data {
		infos = append(infos, TerminalInfo{
			TerminalID: item.TerminalID,
			Location:   item.Location,
			RegionCode: item.Region,
		})
	}
	return infos, nil
}

// TerminalDetail fetches one terminal's current status. Transport errors and
// 5xx responses are retried by the client policy; once the budget is spent
// the failure comes back as a *FetchError for that terminal only.
func (c *Client) TerminalDetail(ctx context.Context, session *Session, terminalID string) (TerminalStatus, error) {
	if session == nil {
		return TerminalStatus{}, errors.New("monitorapi: nil session")
	}
	if terminalID == "" {
		return TerminalStatus{}, errors.New("monitorapi: empty terminal id")
	}

	var out terminalDetailResponse
	resp, err := c.apiHTTP.R().
		SetContext(ctx).
		SetAuthToken(session.Token).
		SetPathParam("terminalId", terminalID).
		SetQueryParam("issueState", c.cfg.IssueState).
		SetResult(&out).
		Get("/api/terminals/{terminalId}/status")
	if err != nil {
		return TerminalStatus{}, &FetchError{TerminalID: terminalID, Err: err}
	}
	if resp.IsError() {
		return TerminalStatus{}, &FetchError{
			TerminalID: terminalID,
			Err:        fmt.Errorf("monitorapi: http %d", resp.StatusCode()),
		}
	}

	status := TerminalStatus{
		TerminalID:       out.TerminalID,
		StatusCode:       out.Status,
		Location:         out.Location,
		RegionCode:       out.Region,
		FaultDescription: joinFaults(out.Faults),
	}
	if status.TerminalID == "" {
		status.TerminalID = terminalID
	}
	return status, nil
}

func joinFaults(faults []faultItem) string {
	parts := make([]string, 0, len(faults))
	for _, f := range faults {
		desc := strings.TrimSpace(f.Description)
		if desc == "" {
			desc = strings.TrimSpace(f.Code)
		}
		if desc != "" {
			parts = append(parts, desc)
		}
	}
	return strings.Join(parts, "; ")
}

func probeAddress(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("monitorapi: parse base url: %w", err)
	}
	if u.Hostname() == "" {
		return "", errors.New("monitorapi: base url missing host")
	}
	port := u.Port()
	if port == "" {
		if u.Scheme == "https" {
			port = "443"
		} else {
			port = "80"
		}
	}
	return net.JoinHostPort(u.Hostname(), port), nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type terminalListResponse struct {
	Data []terminalListItem `json:"data"`
}

type terminalListItem struct {
	TerminalID string `json:"terminalId"`
	Location   string `json:"location"`
	Region     string `json:"region"`
}

type terminalDetailResponse struct {
	TerminalID string      `json:"terminalId"`
	Status     string      `json:"status"`
	Location   string      `json:"location"`
	Region     string      `json:"region"`
	Faults     []faultItem `json:"faults"`
}

type faultItem struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}
