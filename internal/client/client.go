// Package client talks to the storefront REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"example.com/storefront/internal/checkout"
	"example.com/storefront/internal/model"
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}

// TokenSource yields the bearer token for authenticated calls.
type TokenSource interface {
	Token() (string, error)
}

type Client struct {
	base   *url.URL
	http   *http.Client
	tokens TokenSource
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

func WithTokens(ts TokenSource) Option { return func(c *Client) { c.tokens = ts } }

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q needs scheme and host", baseURL)
	}
	// no client-wide timeout: callers bound each call through ctx
	c := &Client{base: u, http: &http.Client{}}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, auth bool) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if auth {
		if c.tokens == nil {
			return errors.New("no session configured")
		}
		tok, err := c.tokens.Token()
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	ae := &APIError{Status: resp.StatusCode}
	if json.Unmarshal(raw, &body) == nil {
		ae.Message = body.Error
		if ae.Message == "" {
			ae.Message = body.Message
		}
	}
	return ae
}

func (c *Client) ListProducts(ctx context.Context) ([]model.Product, error) {
	var ps []model.Product
	if err := c.do(ctx, http.MethodGet, "/product", nil, &ps, false); err != nil {
		return nil, err
	}
	return ps, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (model.Product, error) {
	var p model.Product
	err := c.do(ctx, http.MethodGet, "/product/"+url.PathEscape(id), nil, &p, false)
	return p, err
}

// PlaceOrder sends one POST /order. It makes Client a checkout.Submitter.
func (c *Client) PlaceOrder(ctx context.Context, p checkout.Payload) error {
	return c.do(ctx, http.MethodPost, "/order", p, nil, false)
}

// ListOrders needs a session token.
func (c *Client) ListOrders(ctx context.Context) ([]model.Order, error) {
	var out struct {
		Orders []model.Order `json:"orders"`
	}
	if err := c.do(ctx, http.MethodGet, "/order", nil, &out, true); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

type User struct {
	ID       string `json:"id"`
	UserName string `json:"userName"`
	Email    string `json:"email"`
}

type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

func (c *Client) Register(ctx context.Context, userName, email, password string) error {
	in := map[string]string{"userName": userName, "email": email, "password": password}
	return c.do(ctx, http.MethodPost, "/user/register", in, nil, false)
}

func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var out LoginResult
	in := map[string]string{"email": email, "password": password}
	err := c.do(ctx, http.MethodPost, "/user/login", in, &out, false)
	return out, err
}

func (c *Client) Me(ctx context.Context) (User, error) {
	var u User
	err := c.do(ctx, http.MethodGet, "/user/me", nil, &u, true)
	return u, err
}
