package library

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultBaseURL is where the library API listens in a default install.
const DefaultBaseURL = "http://localhost:8080/api/v1"

// Client talks to the library REST API. It keeps no state between
// calls and never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds every request. Zero keeps requests unbounded.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

// WithClientLogger sets the logger used for request tracing.
func WithClientLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     discardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c
}

var _ API = (*Client)(nil)

// ---------------------------------------------------------------------------
// Auth
// ---------------------------------------------------------------------------

func (c *Client) Login(ctx context.Context, email, password string) (bool, error) {
	body, err := c.do(ctx, "login", http.MethodPost, "/admins/auth/login", nil,
		map[string]string{"email": email, "password": password})
	if err != nil {
		return false, err
	}
	return loginAccepted(body), nil
}

// loginAccepted reads the login response. The API answers true, or with
// the admin record; every other body is a rejection.
func loginAccepted(body []byte) bool {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "true" {
		return true
	}
	if !strings.HasPrefix(trimmed, "{") {
		return false
	}
	var admin Admin
	if err := json.Unmarshal([]byte(trimmed), &admin); err != nil {
		return false
	}
	return admin.Email != ""
}

// ---------------------------------------------------------------------------
// Books
// ---------------------------------------------------------------------------

func (c *Client) ListBooks(ctx context.Context, genre string) ([]Book, error) {
	var q url.Values
	if genre != "" {
		q = url.Values{"genre": {genre}}
	}
	var books []Book
	if err := c.get(ctx, "list books", "/books", q, &books); err != nil {
		return nil, err
	}
	return books, nil
}

func (c *Client) PopularBooks(ctx context.Context) ([]Book, error) {
	var books []Book
	if err := c.get(ctx, "list popular books", "/books/popular", nil, &books); err != nil {
		return nil, err
	}
	return books, nil
}

func (c *Client) GetBook(ctx context.Context, id int64) (*Book, error) {
	var b Book
	if err := c.get(ctx, "get book", "/books/"+idPath(id), nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) AddBook(ctx context.Context, b Book) (*Book, error) {
	return write[Book](ctx, c, "add book", http.MethodPost, "/books/add", b)
}

func (c *Client) UpdateBook(ctx context.Context, id int64, b Book) (*Book, error) {
	return write[Book](ctx, c, "update book", http.MethodPut, "/books/"+idPath(id), b)
}

func (c *Client) DeleteBook(ctx context.Context, id int64) error {
	_, err := write[Book](ctx, c, "delete book", http.MethodDelete, "/books/"+idPath(id), nil)
	return err
}

// ---------------------------------------------------------------------------
// Members
// ---------------------------------------------------------------------------

func (c *Client) ListMembers(ctx context.Context) ([]Member, error) {
	var members []Member
	if err := c.get(ctx, "list members", "/members", nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}

func (c *Client) GetMember(ctx context.Context, id int64) (*Member, error) {
	var m Member
	if err := c.get(ctx, "get member", "/members/"+idPath(id), nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) AddMember(ctx context.Context, m Member) (*Member, error) {
	return write[Member](ctx, c, "add member", http.MethodPost, "/members", m)
}

func (c *Client) UpdateMember(ctx context.Context, id int64, m Member) (*Member, error) {
	return write[Member](ctx, c, "update member", http.MethodPut, "/members/"+idPath(id), m)
}

func (c *Client) DeleteMember(ctx context.Context, id int64) error {
	_, err := write[Member](ctx, c, "delete member", http.MethodDelete, "/members/"+idPath(id), nil)
	return err
}

// ---------------------------------------------------------------------------
// Librarians
// ---------------------------------------------------------------------------

func (c *Client) ListLibrarians(ctx context.Context) ([]Librarian, error) {
	var librarians []Librarian
	if err := c.get(ctx, "list librarians", "/librarians", nil, &librarians); err != nil {
		return nil, err
	}
	return librarians, nil
}

func (c *Client) AddLibrarian(ctx context.Context, l Librarian) (*Librarian, error) {
	return write[Librarian](ctx, c, "add librarian", http.MethodPost, "/librarians", l)
}

func (c *Client) UpdateLibrarian(ctx context.Context, id int64, l Librarian) (*Librarian, error) {
	return write[Librarian](ctx, c, "update librarian", http.MethodPut, "/librarians/"+idPath(id), l)
}

func (c *Client) DeleteLibrarian(ctx context.Context, id int64) error {
	_, err := write[Librarian](ctx, c, "delete librarian", http.MethodDelete, "/librarians/"+idPath(id), nil)
	return err
}

// ---------------------------------------------------------------------------
// Borrowings
// ---------------------------------------------------------------------------

func (c *Client) ListBorrowings(ctx context.Context) ([]Borrowing, error) {
	var borrowings []Borrowing
	if err := c.get(ctx, "list borrowings", "/borrowings", nil, &borrowings); err != nil {
		return nil, err
	}
	return borrowings, nil
}

func (c *Client) AddBorrowing(ctx context.Context, b Borrowing) (*Borrowing, error) {
	return write[Borrowing](ctx, c, "add borrowing", http.MethodPost, "/borrowings", b)
}

func (c *Client) UpdateBorrowing(ctx context.Context, id int64, b Borrowing) (*Borrowing, error) {
	return write[Borrowing](ctx, c, "update borrowing", http.MethodPut, "/borrowings/"+idPath(id), b)
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

func (c *Client) get(ctx context.Context, op, path string, q url.Values, out any) error {
	body, err := c.do(ctx, op, http.MethodGet, path, q, nil)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &TransportError{Op: op, Err: errors.Wrap(err, "decode response")}
	}
	return nil
}

// write sends a mutating request. An empty body or a bare true is an
// acknowledgement without an entity; a bare false is ErrRejected.
func write[T any](ctx context.Context, c *Client, op, method, path string, in any) (*T, error) {
	body, err := c.do(ctx, op, method, path, nil, in)
	if err != nil {
		return nil, err
	}
	switch trimmed := bytes.TrimSpace(body); string(trimmed) {
	case "", "true", "null":
		return nil, nil
	case "false":
		return nil, errors.Wrap(ErrRejected, op)
	default:
		var out T
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, &TransportError{Op: op, Err: errors.Wrap(err, "decode response")}
		}
		return &out, nil
	}
}

func (c *Client) do(ctx context.Context, op, method, path string, q url.Values, in any) ([]byte, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var reqBody io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: encode request", op)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.DebugContext(ctx, "request failed", "op", op, "method", method, "url", u,
			"request_id", requestID, "error", err)
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	c.logger.DebugContext(ctx, "request done", "op", op, "method", method, "url", u,
		"request_id", requestID, "status", resp.StatusCode, "duration", time.Since(start))
	if err != nil {
		return nil, &TransportError{Op: op, StatusCode: resp.StatusCode, Err: errors.Wrap(err, "read response")}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		te := &TransportError{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(body)}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			te.Err = ErrUnauthorized
		}
		return nil, te
	}
	return body, nil
}

// errorMessage extracts the optional "message" field of an error body.
func errorMessage(body []byte) string {
	var e struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	return e.Message
}

func idPath(id int64) string { return strconv.FormatInt(id, 10) }
