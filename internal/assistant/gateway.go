package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nikolayk812/tourcart/internal/chat"
	"github.com/nikolayk812/tourcart/internal/domain"
	"github.com/rs/zerolog"
)

const (
	maxRequestBody  = 1 << 20
	maxUpstreamBody = 64 << 10
	streamBufSize   = 4 << 10
)

type Config struct {
	UpstreamURL string
	APIKey      string
	Model       string
	// HeaderTimeout bounds the wait for the upstream response headers.
	HeaderTimeout time.Duration
}

// Gateway fronts an OpenAI-compatible completion endpoint: it adds the system
// prompt, keeps the key server side and pipes the event stream back unchanged.
type Gateway struct {
	cfg        Config
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewGateway(cfg Config, httpClient *http.Client, logger zerolog.Logger) (*Gateway, error) {
	if cfg.UpstreamURL == "" {
		return nil, fmt.Errorf("upstreamURL is empty")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is empty")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if cfg.HeaderTimeout <= 0 {
		cfg.HeaderTimeout = 60 * time.Second
	}

	return &Gateway{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     logger.With().Str("component", "assistant").Logger(),
	}, nil
}

type upstreamMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type upstreamRequest struct {
	Model    string            `json:"model"`
	Messages []upstreamMessage `json:"messages"`
	Stream   bool              `json:"stream"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req chat.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validate(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if g.cfg.APIKey == "" {
		g.logger.Error().Msg("AI_GATEWAY_API_KEY is not configured")
		writeError(w, http.StatusInternalServerError, "AI_GATEWAY_API_KEY is not configured")
		return
	}

	resp, cancel, err := g.callUpstream(r.Context(), req)
	if err != nil {
		if r.Context().Err() == nil {
			g.logger.Error().Err(err).Msg("upstream call failed")
			writeError(w, http.StatusInternalServerError, chat.MessageUnavailable)
		}
		return
	}
	defer cancel()
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		g.refuse(w, resp)
		return
	}

	g.pipe(w, r, resp.Body)
}

func validate(req *chat.Request) error {
	if len(req.Messages) == 0 {
		return fmt.Errorf("messages are empty")
	}
	for i, msg := range req.Messages {
		if !msg.Role.Valid() {
			return fmt.Errorf("messages[%d].role[%s] is not valid", i, msg.Role)
		}
	}

	if req.Mode == "" {
		req.Mode = domain.ModeChat
	}
	if !req.Mode.Valid() {
		return fmt.Errorf("mode[%s] is not valid", req.Mode)
	}

	return nil
}

// callUpstream returns the open upstream response. The returned cancel must run
// after the body is drained.
func (g *Gateway) callUpstream(ctx context.Context, req chat.Request) (*http.Response, context.CancelFunc, error) {
	messages := make([]upstreamMessage, 0, len(req.Messages)+1)
	messages = append(messages, upstreamMessage{Role: "system", Content: SystemPrompt(req.Mode)})
	for _, msg := range req.Messages {
		messages = append(messages, upstreamMessage{Role: string(msg.Role), Content: msg.Content})
	}

	body, err := json.Marshal(upstreamRequest{Model: g.cfg.Model, Messages: messages, Stream: true})
	if err != nil {
		return nil, nil, fmt.Errorf("json.Marshal: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	headerTimer := time.AfterFunc(g.cfg.HeaderTimeout, cancel)

	upstreamReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.UpstreamURL, bytes.NewReader(body))
	if err != nil {
		headerTimer.Stop()
		cancel()
		return nil, nil, fmt.Errorf("http.NewRequestWithContext: %w", err)
	}
	upstreamReq.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
	upstreamReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(upstreamReq)
	headerTimer.Stop()
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("httpClient.Do: %w", err)
	}

	return resp, cancel, nil
}

// refuse maps an upstream failure to the status the chat client distinguishes.
func (g *Gateway) refuse(w http.ResponseWriter, resp *http.Response) {
	switch resp.StatusCode {
	case http.StatusTooManyRequests, http.StatusPaymentRequired:
		g.logger.Warn().Int("status", resp.StatusCode).Msg("upstream refused")
		writeError(w, resp.StatusCode, chat.DefaultMessage(resp.StatusCode))
	default:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
		g.logger.Error().Int("status", resp.StatusCode).Str("body", string(detail)).Msg("upstream error")
		writeError(w, http.StatusInternalServerError, chat.MessageUnavailable)
	}
}

func (g *Gateway) pipe(w http.ResponseWriter, r *http.Request, body io.Reader) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	buf := make([]byte, streamBufSize)
	var written int64

	for {
		n, err := body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				g.logger.Debug().Err(werr).Msg("client went away")
				return
			}
			written += int64(n)
			if ferr := rc.Flush(); ferr != nil && !errors.Is(ferr, http.ErrNotSupported) {
				return
			}
		}
		if errors.Is(err, io.EOF) {
			g.logger.Debug().Int64("bytes", written).Msg("stream relayed")
			return
		}
		if err != nil {
			if r.Context().Err() != nil {
				return
			}
			// abort the connection so the caller sees a broken stream, not a clean end
			g.logger.Warn().Err(err).Int64("bytes", written).Msg("upstream stream broke")
			panic(http.ErrAbortHandler)
		}
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: message})
}
