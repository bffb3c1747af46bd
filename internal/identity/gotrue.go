package identity

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"skinscan/internal/config"
	"skinscan/internal/model"
)

const (
	listPageSize = 1000
	maxListPages = 50
)

// Client is an HTTP client for the GoTrue REST API.
type Client struct {
	baseURL        string
	anonKey        string
	serviceRoleKey string
	timeout        time.Duration
	http           *http.Client
}

var (
	_ Authenticator = (*Client)(nil)
	_ Admin         = (*Client)(nil)
)

// NewClient builds a provider client. A nil httpClient gets a traced default.
func NewClient(cfg config.IdentityConfig, httpClient *http.Client) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("identity provider url is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return &Client{
		baseURL:        strings.TrimSuffix(cfg.URL, "/"),
		anonKey:        cfg.AnonKey,
		serviceRoleKey: cfg.ServiceRoleKey,
		timeout:        cfg.Timeout,
		http:           httpClient,
	}, nil
}

type gotrueUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserMetadata struct {
		Name string `json:"name"`
	} `json:"user_metadata"`
}

func (u gotrueUser) account() model.Account {
	return model.Account{ID: u.ID, Email: u.Email, Name: u.UserMetadata.Name}
}

type gotrueError struct {
	Code      any    `json:"code"`
	ErrorCode string `json:"error_code"`
	Msg       string `json:"msg"`
	Message   string `json:"message"`
}

func (e gotrueError) text() string {
	if e.Msg != "" {
		return e.Msg
	}
	return e.Message
}

// Authenticate resolves token via GET /auth/v1/user.
func (c *Client) Authenticate(ctx context.Context, token string) (model.Identity, error) {
	if token == "" {
		return model.Identity{}, ErrInvalidToken
	}
	var u gotrueUser
	status, err := c.do(ctx, http.MethodGet, "/auth/v1/user", token, c.anonKey, nil, &u)
	if err != nil {
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return model.Identity{}, ErrInvalidToken
		}
		return model.Identity{}, err
	}
	if u.ID == "" {
		return model.Identity{}, ErrInvalidToken
	}
	return model.Identity{ID: u.ID, Email: u.Email}, nil
}

// CreateUser calls POST /auth/v1/admin/users with email confirmation skipped.
func (c *Client) CreateUser(ctx context.Context, email, password, name string) (model.Account, error) {
	body := map[string]any{
		"email":         email,
		"password":      password,
		"email_confirm": true,
		"user_metadata": map[string]string{"name": name},
	}
	var u gotrueUser
	if _, err := c.do(ctx, http.MethodPost, "/auth/v1/admin/users", c.serviceRoleKey, c.serviceRoleKey, body, &u); err != nil {
		return model.Account{}, err
	}
	if u.ID == "" {
		return model.Account{}, fmt.Errorf("%w: create user returned no id", ErrUnavailable)
	}
	return u.account(), nil
}

// FindUserByEmail pages through GET /auth/v1/admin/users.
func (c *Client) FindUserByEmail(ctx context.Context, email string) (model.Account, bool, error) {
	for page := 1; page <= maxListPages; page++ {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))
		q.Set("per_page", strconv.Itoa(listPageSize))

		var res struct {
			Users []gotrueUser `json:"users"`
		}
		if _, err := c.do(ctx, http.MethodGet, "/auth/v1/admin/users?"+q.Encode(), c.serviceRoleKey, c.serviceRoleKey, nil, &res); err != nil {
			return model.Account{}, false, err
		}
		for _, u := range res.Users {
			if strings.EqualFold(u.Email, email) {
				return u.account(), true, nil
			}
		}
		if len(res.Users) < listPageSize {
			break
		}
	}
	return model.Account{}, false, nil
}

// DeleteUser calls DELETE /auth/v1/admin/users/{id}.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty user id", ErrRejected)
	}
	status, err := c.do(ctx, http.MethodDelete, "/auth/v1/admin/users/"+url.PathEscape(id), c.serviceRoleKey, c.serviceRoleKey, nil, nil)
	if status == http.StatusNotFound {
		return nil
	}
	return err
}

// do sends one request and decodes a 2xx JSON body into out. It returns the
// response status (0 on transport failure) alongside any error.
func (c *Client) do(ctx context.Context, method, path, bearer, apiKey string, in, out any) (int, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if apiKey != "" {
		req.Header.Set("apikey", apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		if out != nil {
			if err := json.Unmarshal(raw, out); err != nil {
				return resp.StatusCode, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
			}
		}
		return resp.StatusCode, nil
	}
	return resp.StatusCode, classify(resp.StatusCode, raw)
}

func classify(status int, raw []byte) error {
	var ge gotrueError
	_ = json.Unmarshal(raw, &ge)

	switch {
	case status >= 500:
		return fmt.Errorf("%w: status %d", ErrUnavailable, status)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrInvalidToken, status)
	case ge.ErrorCode == "email_exists" || ge.ErrorCode == "user_already_exists" ||
		strings.Contains(strings.ToLower(ge.text()), "already been registered"):
		return ErrAlreadyRegistered
	default:
		return fmt.Errorf("%w: status %d: %s", ErrRejected, status, ge.text())
	}
}
