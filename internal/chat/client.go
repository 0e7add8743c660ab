package chat

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
	"sync"
	"time"

	"github.com/nikolayk812/tourcart/internal/domain"
	"github.com/rs/zerolog"
)

const (
	DefaultIdleTimeout = 30 * time.Second
	maxErrorBody       = 64 << 10
)

type Request struct {
	Messages []domain.ChatMessage `json:"messages"`
	Mode     domain.Mode          `json:"mode"`
}

type Client struct {
	endpoint    string
	token       string
	httpClient  *http.Client
	idleTimeout time.Duration
	logger      zerolog.Logger
}

type Option func(*Client)

// WithToken sends token as a bearer credential.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

func WithIdleTimeout(d time.Duration) Option {
	return func(c *Client) { c.idleTimeout = d }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func NewClient(endpoint string, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("endpoint is empty")
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("url.ParseRequestURI: %w", err)
	}

	c := &Client{
		endpoint:    endpoint,
		httpClient:  http.DefaultClient,
		idleTimeout: DefaultIdleTimeout,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		return nil, fmt.Errorf("httpClient is nil")
	}
	if c.idleTimeout <= 0 {
		return nil, fmt.Errorf("idleTimeout must be positive")
	}

	return c, nil
}

// Open posts the conversation and returns the reply stream. A non-2xx answer is
// returned as *StatusError. The caller must Close the stream.
func (c *Client) Open(ctx context.Context, req Request) (*Stream, error) {
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("messages are empty")
	}
	if req.Mode == "" {
		req.Mode = domain.ModeChat
	}
	if !req.Mode.Valid() {
		return nil, fmt.Errorf("mode[%s] is not valid", req.Mode)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %w", err)
	}

	ctx, cancel := context.WithCancelCause(ctx)
	// the idle clock also covers the wait for response headers
	timer := time.AfterFunc(c.idleTimeout, func() { cancel(ErrIdleTimeout) })

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		timer.Stop()
		cancel(nil)
		return nil, fmt.Errorf("http.NewRequestWithContext: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		timer.Stop()
		err = causeOf(ctx, err)
		cancel(nil)
		return nil, fmt.Errorf("httpClient.Do: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		timer.Stop()
		statusErr := readStatusError(resp)
		resp.Body.Close()
		cancel(nil)

		c.logger.Warn().Int("status", statusErr.StatusCode).Str("message", statusErr.Message).Msg("chat endpoint refused")
		return nil, statusErr
	}

	s := &Stream{
		ctx:    ctx,
		cancel: cancel,
		body:   resp.Body,
		timer:  timer,
		logger: c.logger,
	}
	s.dec = NewDecoder(&idleReader{r: resp.Body, timer: timer, timeout: c.idleTimeout})

	return s, nil
}

// Stream yields the deltas of one reply. It is not safe for concurrent use,
// except Close.
type Stream struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
	body   io.ReadCloser
	timer  *time.Timer
	dec    *Decoder
	logger zerolog.Logger

	err       error
	closeOnce sync.Once
}

// Next returns the next text chunk. It returns io.EOF once the terminal marker or a
// clean end of body was seen; after that, and after any error, it keeps returning
// the same result without reading further.
func (s *Stream) Next() (string, error) {
	if s.err != nil {
		return "", s.err
	}

	frame, err := s.dec.Next()
	switch {
	case errors.Is(err, io.EOF):
		s.err = io.EOF
	case err != nil:
		s.err = fmt.Errorf("dec.Next: %w", causeOf(s.ctx, err))
	case frame.Kind == FrameDone:
		s.err = io.EOF
	default:
		return frame.Text, nil
	}

	if n := s.dec.Skipped(); n > 0 {
		s.logger.Debug().Int("skipped", n).Msg("stream had undecodable frames")
	}

	s.Close()
	return "", s.err
}

// Close aborts the request if it is still running and releases the connection.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.timer.Stop()
		s.cancel(context.Canceled)
		err = s.body.Close()
	})

	return err
}

// causeOf prefers the reason the request context ended over the transport error
// it produced.
func causeOf(ctx context.Context, err error) error {
	cause := context.Cause(ctx)
	if cause == nil {
		return err
	}
	if errors.Is(cause, ErrIdleTimeout) {
		return ErrIdleTimeout
	}

	return cause
}

// idleReader restarts the idle clock whenever bytes arrive.
type idleReader struct {
	r       io.Reader
	timer   *time.Timer
	timeout time.Duration
}

func (r *idleReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		r.timer.Reset(r.timeout)
	}

	return n, err
}

func readStatusError(resp *http.Response) *StatusError {
	statusErr := &StatusError{StatusCode: resp.StatusCode, Message: DefaultMessage(resp.StatusCode)}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return statusErr
	}

	var body struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || len(body.Error) == 0 {
		return statusErr
	}

	// {"error":"..."} or the OpenAI shape {"error":{"message":"..."}}
	var message string
	if err := json.Unmarshal(body.Error, &message); err != nil {
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(body.Error, &nested); err == nil {
			message = nested.Message
		}
	}

	if message = strings.TrimSpace(message); message != "" {
		statusErr.Message = message
	}

	return statusErr
}
