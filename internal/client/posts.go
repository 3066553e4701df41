// Package client is the typed boundary to the remote posts API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"newsletter/internal/config"
	"newsletter/internal/models"
	"newsletter/internal/observability"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
)

// PostService calls the posts API. It holds no state beyond its configuration
// and is safe for concurrent use.
type PostService struct {
	endpoint string
	http     *http.Client
	log      *observability.ClientLogger
}

// Option customizes a PostService.
type Option func(*PostService)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *PostService) {
		if c != nil {
			s.http = c
		}
	}
}

// New builds a PostService for the posts endpoint of api.
func New(api config.APIConfig, opts ...Option) (*PostService, error) {
	endpoint, err := api.EndpointURL(config.ResourcePosts)
	if err != nil {
		return nil, err
	}
	s := &PostService{
		endpoint: endpoint,
		// No timeout: a call lasts as long as its context allows.
		http: &http.Client{},
		log:  observability.NewClientLogger("posts_api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Endpoint returns the resolved posts collection URL.
func (s *PostService) Endpoint() string {
	return s.endpoint
}

// CreatePost stores a new post and returns it as the server saved it.
// A failure carries the server's "detail" message when one was sent.
func (s *PostService) CreatePost(ctx context.Context, in models.CreatePostInput) (*models.Post, error) {
	const op = "create_post"
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, &Error{Op: op, Message: MsgCreateFailed, Err: err}
	}

	var post models.Post
	err = s.call(ctx, op, http.MethodPost, s.endpoint+"/create", payload, func(status int, body []byte) error {
		if !isSuccess(status) {
			msg := errorDetail(body)
			if msg == "" {
				msg = MsgCreateFailed
			}
			return &Error{Op: op, Status: status, Message: msg}
		}
		if err := json.Unmarshal(body, &post); err != nil {
			return &Error{Op: op, Status: status, Message: MsgCreateFailed, Err: fmt.Errorf("decode created post: %w", err)}
		}
		return nil
	}, MsgCreateFailed)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// GetPosts lists every post in server order. The failure body is not read.
func (s *PostService) GetPosts(ctx context.Context) ([]models.Post, error) {
	const op = "get_posts"
	var posts []models.Post
	err := s.call(ctx, op, http.MethodGet, s.endpoint+"/", nil, func(status int, body []byte) error {
		if !isSuccess(status) {
			return &Error{Op: op, Status: status, Message: MsgFetchFailed}
		}
		if err := json.Unmarshal(body, &posts); err != nil {
			return &Error{Op: op, Status: status, Message: MsgFetchFailed, Err: fmt.Errorf("decode posts: %w", err)}
		}
		return nil
	}, MsgFetchFailed)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []models.Post{}
	}
	return posts, nil
}

// GetPostByID fetches a single post.
func (s *PostService) GetPostByID(ctx context.Context, id int) (*models.Post, error) {
	const op = "get_post_by_id"
	msg := fmt.Sprintf("Failed to fetch post with ID %d", id)

	var post models.Post
	err := s.call(ctx, op, http.MethodGet, s.endpoint+"/"+strconv.Itoa(id), nil, func(status int, body []byte) error {
		if !isSuccess(status) {
			return &Error{Op: op, Status: status, Message: msg}
		}
		if err := json.Unmarshal(body, &post); err != nil {
			return &Error{Op: op, Status: status, Message: msg, Err: fmt.Errorf("decode post: %w", err)}
		}
		return nil
	}, msg)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// call performs one round trip and hands the status and body to handle.
// Transport failures surface as *Error with transportMsg and status 0.
func (s *PostService) call(
	ctx context.Context,
	op, method, url string,
	payload []byte,
	handle func(status int, body []byte) error,
	transportMsg string,
) (err error) {
	start := time.Now()
	ctx, span := observability.StartAPISpan(ctx, op, method, url)
	status := 0
	defer func() {
		span.SetAttributes(attribute.Int("http.status_code", status))
		observability.EndSpan(span, err)
		observability.ObserveAPICall(op, err, start)
		if err != nil {
			s.log.LogError(ctx, op, status, err)
		} else {
			s.log.LogCall(ctx, op, method, url, status, time.Since(start))
		}
	}()

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return &Error{Op: op, Message: transportMsg, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := s.http.Do(req)
	if err != nil {
		return &Error{Op: op, Message: transportMsg, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	status = resp.StatusCode

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Op: op, Status: status, Message: transportMsg, Err: fmt.Errorf("read response: %w", err)}
	}
	return handle(status, body)
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
