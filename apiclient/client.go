// Package apiclient is the authenticated HTTP client for the visitas API. It
// attaches the stored access token to every request and, when the backend
// answers 401, refreshes the session once on behalf of every request that hit
// the expiry, replaying each of them with the new token.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/go-visitas/credentials"
	"github.com/rs/zerolog"
)

const (
	DefaultTimeout     = 10 * time.Second
	DefaultRefreshPath = "/auth/refresh"
)

// DefaultPublicPaths are the endpoints that are called without a token and
// whose 401s mean bad credentials rather than an expired session.
var DefaultPublicPaths = []string{"/auth/login", "/auth/register"}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout bounds every single HTTP exchange, the refresh call included.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithLoginRedirector(redirector LoginRedirector) Option {
	return func(c *Client) {
		c.redirector = redirector
	}
}

func WithDefaultHeader(key, value string) Option {
	return func(c *Client) {
		c.headers.Set(key, value)
	}
}

func WithRefreshPath(path string) Option {
	return func(c *Client) {
		c.refreshPath = path
	}
}

// WithPublicPaths adds to DefaultPublicPaths.
func WithPublicPaths(paths ...string) Option {
	return func(c *Client) {
		for _, p := range paths {
			c.publicPaths[p] = struct{}{}
		}
	}
}

// Client is safe for concurrent use. Each Client owns its refresh state.
type Client struct {
	baseURL     string
	vault       *credentials.Vault
	httpClient  *http.Client
	timeout     time.Duration
	logger      zerolog.Logger
	redirector  LoginRedirector
	headers     http.Header
	refreshPath string
	publicPaths map[string]struct{}
	refresh     refreshState
}

func New(baseURL string, vault *credentials.Vault, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("[apiclient New] base URL is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("[apiclient New] invalid base URL %q: %w", baseURL, err)
	}
	if vault == nil {
		return nil, fmt.Errorf("[apiclient New] credential vault is required")
	}

	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		vault:       vault,
		timeout:     DefaultTimeout,
		logger:      zerolog.Nop(),
		headers:     http.Header{},
		refreshPath: DefaultRefreshPath,
		publicPaths: map[string]struct{}{},
	}
	c.headers.Set("Content-Type", "application/json")
	c.headers.Set("Accept", "application/json")
	for _, p := range DefaultPublicPaths {
		c.publicPaths[p] = struct{}{}
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.redirector == nil {
		c.redirector = logRedirector{logger: c.logger}
	}
	return c, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Vault() *credentials.Vault {
	return c.vault
}

// Request describes one API call. Body, when set, is JSON-encoded once so a
// replay sends identical bytes.
type Request struct {
	Method string
	Path   string
	Body   any
	Header http.Header
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return nil
	}
	return json.Unmarshal(r.Body, v)
}

// call is one in-progress Do, carried through refresh and replay.
type call struct {
	ctx     context.Context
	req     *Request
	payload []byte
	retried bool
	// dispatched, when set, is called once the request has been written or
	// has failed before reaching the wire.
	dispatched func()
}

// Do sends req. A 2xx response is returned as is. Anything else is an error:
// *ConnectivityError when no response arrived, *RefreshError when the session
// could not be renewed, and *StatusError for every other non-2xx answer.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, fmt.Errorf("[apiclient Do] request is required")
	}
	// Work on a copy so the caller's request is left as given.
	r := *req
	req = &r
	if req.Method == "" {
		req.Method = http.MethodGet
	}

	var payload []byte
	if req.Body != nil {
		var err error
		if payload, err = json.Marshal(req.Body); err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", req.Method, req.Path, err)
		}
	}

	cl := &call{ctx: ctx, req: req, payload: payload}
	token := c.vault.AccessToken()
	resp, err := c.send(cl, token)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized && !cl.retried && c.refreshable(req.Path) {
		return c.recoverSession(cl, token)
	}
	return c.result(cl, resp)
}

func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path})
}

func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body})
}

func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}

// DoJSON sends body and decodes a successful response into out, which may be nil.
func (c *Client) DoJSON(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.Do(ctx, &Request{Method: method, Path: path, Body: body})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := resp.Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// send performs exactly one HTTP exchange carrying token.
func (c *Client) send(cl *call, token string) (*Response, error) {
	req := cl.req
	ctx := cl.ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if cl.dispatched != nil {
		ctx = httptrace.WithClientTrace(ctx, &httptrace.ClientTrace{
			WroteRequest: func(httptrace.WroteRequestInfo) { cl.dispatched() },
		})
		defer cl.dispatched()
	}

	var body io.Reader
	if cl.payload != nil {
		body = bytes.NewReader(cl.payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.url(req.Path), body)
	if err != nil {
		return nil, fmt.Errorf("create %s %s request: %w", req.Method, req.Path, err)
	}
	for k, v := range c.headers {
		httpReq.Header[k] = append([]string(nil), v...)
	}
	for k, v := range req.Header {
		httpReq.Header[k] = append([]string(nil), v...)
	}

	event := c.logger.Debug().Str("method", req.Method).Str("path", req.Path).Bool("replay", cl.retried)
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
		event = event.Str("authorization", "Bearer [REDACTED]")
	} else if !c.public(req.Path) {
		c.logger.Warn().Str("path", req.Path).Msg("missing access token for protected route")
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error().Err(err).Str("method", req.Method).Str("path", req.Path).Msg("no response from server")
		return nil, &ConnectivityError{Method: req.Method, Path: req.Path, Err: err}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &ConnectivityError{Method: req.Method, Path: req.Path, Err: err}
	}
	event.Int("status", httpResp.StatusCode).Msg("api request")

	return &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: respBody}, nil
}

// result turns a final response into the caller's outcome.
func (c *Client) result(cl *call, resp *Response) (*Response, error) {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	err := newStatusError(cl.req.Method, cl.req.Path, resp.StatusCode, resp.Body)
	log := c.logger.Warn()
	if resp.StatusCode >= http.StatusInternalServerError {
		log = c.logger.Error()
	}
	log.Str("method", cl.req.Method).Str("path", cl.req.Path).Int("status", resp.StatusCode).
		Str("error", err.Message).Msg(statusSummary(resp.StatusCode))
	return nil, err
}

func statusSummary(status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return "not authorized"
	case status == http.StatusForbidden:
		return "access denied"
	case status == http.StatusNotFound:
		return "resource not found"
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return "invalid data"
	case status >= http.StatusInternalServerError:
		return "server error"
	default:
		return "unhandled status"
	}
}

func (c *Client) url(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

func routeOf(path string) string {
	route, _, _ := strings.Cut(path, "?")
	return route
}

func (c *Client) public(path string) bool {
	_, ok := c.publicPaths[routeOf(path)]
	return ok
}

// refreshable reports whether a 401 on path can mean an expired session.
func (c *Client) refreshable(path string) bool {
	return !c.public(path) && routeOf(path) != c.refreshPath
}
