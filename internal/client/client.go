// Package client is the participant-side adapter for the Well Wishers REST
// API. Every method is a single request; failures come back as a
// *ValidationError, *NotFoundError or *NetworkError and nothing is retried.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/sakif/wellwishers/internal/gate"
	"github.com/sakif/wellwishers/internal/model"
)

const DefaultBaseURL = "http://localhost:8080/api"

// Client talks to one API base URL, e.g. "http://localhost:8080/api".
// A Client is safe for concurrent use; WithToken returns a copy.
type Client struct {
	baseURL string
	origin  string
	http    *http.Client
	token   string
}

type Option func(*Client)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithOrigin sets the frontend origin used by ShareLink.
func WithOrigin(origin string) Option {
	return func(c *Client) { c.origin = origin }
}

func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		origin:  "http://localhost:3000",
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithToken returns a copy of c that authenticates as the session token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// ShareLink is <origin>/tree?treeId=<id>. No request is made.
func (c *Client) ShareLink(treeID string) string {
	return model.ShareLink(c.origin, treeID)
}

// =========================================================================
// RESPONSE SHAPES
// =========================================================================

type SignupResult struct {
	Message string            `json:"message"`
	User    model.Participant `json:"user"`
	Token   string            `json:"token"`
}

// Tree is a tree page as the server lets this participant see it.
type Tree struct {
	ID         string            `json:"treeId"`
	Name       string            `json:"treeName"`
	Owner      model.Owner       `json:"treeOwner"`
	Ornaments  []model.Ornament  `json:"treeDecos"`
	Decorators []model.Decorator `json:"decorators"`
	IsOwner    bool              `json:"isOwner"`
	Revealed   bool              `json:"revealed"`
}

type Placements struct {
	TreeID    string           `json:"treeId"`
	TreeName  string           `json:"treeName"`
	Owner     model.Owner      `json:"treeOwner"`
	Ornaments []model.Ornament `json:"ornaments"`
}

// Placed is the answer to AddOrnament: the new ornament and the tree's
// placements after it.
type Placed struct {
	Message   string           `json:"message"`
	Ornament  model.Ornament   `json:"ornament"`
	Ornaments []model.Ornament `json:"treeDecos"`
}

type Wishes struct {
	TreeID        string         `json:"treeId"`
	IsOwner       bool           `json:"isOwner"`
	Revealed      bool           `json:"revealed"`
	Phase         gate.Phase     `json:"phase"`
	Countdown     gate.Countdown `json:"countdown"`
	CountdownText string         `json:"countdownText"`
	UnlockStart   time.Time      `json:"unlockStart"`
	UnlockEnd     time.Time      `json:"unlockEnd"`
	Wishes        []model.Wish   `json:"wishes"`
}

// Window is the reveal window the server evaluated against.
func (w *Wishes) Window() gate.Window {
	return gate.Window{Start: w.UnlockStart, End: w.UnlockEnd}
}

// OrnamentInput is one placement request. The author is whoever the token
// belongs to.
type OrnamentInput struct {
	Icon    model.Icon
	Message string
	X, Y    float64
}

// =========================================================================
// OPERATIONS
// =========================================================================

// Signup creates or fetches the participant for (name, email).
func (c *Client) Signup(ctx context.Context, name, email string) (*SignupResult, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" {
		return nil, invalid("name", "name is required")
	}
	if email == "" {
		return nil, invalid("email", "email is required")
	}

	var out SignupResult
	body := map[string]string{"name": name, "email": email}
	if err := c.do(ctx, "signup", http.MethodPost, "/signup", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the signed-in participant, including the admin flag.
func (c *Client) Me(ctx context.Context) (*model.Participant, error) {
	var out model.Participant
	if err := c.do(ctx, "me", http.MethodGet, "/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetTree(ctx context.Context, treeID string) (*Tree, error) {
	if err := requireTreeID(treeID); err != nil {
		return nil, err
	}
	var out Tree
	if err := c.do(ctx, "fetch tree", http.MethodGet, "/tree/"+url.PathEscape(treeID), nil, &out); err != nil {
		return nil, notFoundAs(err, "tree", treeID)
	}
	return &out, nil
}

// GetTreeOwner returns the public name and email of the tree's owner.
func (c *Client) GetTreeOwner(ctx context.Context, treeID string) (*model.Owner, error) {
	if err := requireTreeID(treeID); err != nil {
		return nil, err
	}
	var out model.Owner
	if err := c.do(ctx, "fetch tree owner", http.MethodGet, "/user/tree/"+url.PathEscape(treeID), nil, &out); err != nil {
		return nil, notFoundAs(err, "tree", treeID)
	}
	return &out, nil
}

func (c *Client) ListOrnaments(ctx context.Context, treeID string) (*Placements, error) {
	if err := requireTreeID(treeID); err != nil {
		return nil, err
	}
	var out Placements
	path := "/tree/" + url.PathEscape(treeID) + "/ornaments"
	if err := c.do(ctx, "list placements", http.MethodGet, path, nil, &out); err != nil {
		return nil, notFoundAs(err, "tree", treeID)
	}
	return &out, nil
}

// AddOrnament hangs one ornament. A second placement on the same tree is a
// *NetworkError with Conflict() true.
func (c *Client) AddOrnament(ctx context.Context, treeID string, in OrnamentInput) (*Placed, error) {
	if err := requireTreeID(treeID); err != nil {
		return nil, err
	}
	if !in.Icon.Valid() {
		return nil, invalid("ornament", fmt.Sprintf("unknown ornament %q", in.Icon))
	}
	if !model.InBounds(in.X) || !model.InBounds(in.Y) {
		return nil, invalid("position", "x and y must be between 0 and 100")
	}

	body := map[string]any{
		"ornament": in.Icon,
		"message":  in.Message,
		"x":        in.X,
		"y":        in.Y,
	}
	var out Placed
	path := "/tree/" + url.PathEscape(treeID) + "/ornament"
	if err := c.do(ctx, "add placement", http.MethodPost, path, body, &out); err != nil {
		return nil, notFoundAs(err, "tree", treeID)
	}
	return &out, nil
}

func (c *Client) AddWish(ctx context.Context, treeID, text string) (*model.Wish, error) {
	if err := requireTreeID(treeID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, invalid("wish", "wish is required")
	}

	var out struct {
		Wish model.Wish `json:"wish"`
	}
	path := "/tree/" + url.PathEscape(treeID) + "/wish"
	if err := c.do(ctx, "add wish", http.MethodPost, path, map[string]string{"wish": text}, &out); err != nil {
		return nil, notFoundAs(err, "tree", treeID)
	}
	return &out.Wish, nil
}

func (c *Client) ListWishes(ctx context.Context, treeID string) (*Wishes, error) {
	if err := requireTreeID(treeID); err != nil {
		return nil, err
	}
	var out Wishes
	path := "/tree/" + url.PathEscape(treeID) + "/wishes"
	if err := c.do(ctx, "list wishes", http.MethodGet, path, nil, &out); err != nil {
		return nil, notFoundAs(err, "tree", treeID)
	}
	return &out, nil
}

// CreateTree makes an additional tree owned by the signed-in participant.
func (c *Client) CreateTree(ctx context.Context, name string) (*model.Tree, error) {
	if strings.TrimSpace(name) == "" {
		return nil, invalid("treeName", "tree name is required")
	}
	var out model.Tree
	if err := c.do(ctx, "create tree", http.MethodPost, "/trees", map[string]string{"treeName": name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Icons(ctx context.Context) ([]model.Icon, error) {
	var out struct {
		Icons []model.Icon `json:"icons"`
	}
	if err := c.do(ctx, "list icons", http.MethodGet, "/icons", nil, &out); err != nil {
		return nil, err
	}
	return out.Icons, nil
}

// =========================================================================
// TRANSPORT
// =========================================================================

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encoding request: %w", op, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		_ = json.Unmarshal(raw, &eb)

		if resp.StatusCode == http.StatusNotFound {
			return &NotFoundError{Message: eb.Message}
		}
		return &NetworkError{Op: op, Status: resp.StatusCode, Message: eb.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &NetworkError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

func requireTreeID(id string) error {
	if strings.TrimSpace(id) == "" {
		return invalid("treeId", "tree ID is required")
	}
	return nil
}

// notFoundAs fills in which resource a 404 was about.
func notFoundAs(err error, resource, id string) error {
	if nf, ok := err.(*NotFoundError); ok {
		nf.Resource, nf.ID = resource, id
	}
	return err
}
