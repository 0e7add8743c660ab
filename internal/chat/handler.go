package chat

import (
	"context"
	"errors"
	"io"
)

// Handler receives one reply. Exactly one of OnDone and OnError is called,
// unless the caller's context is cancelled, in which case neither is.
type Handler struct {
	OnDelta func(text string)
	OnDone  func()
	OnError func(err error)
}

// StreamChat streams one reply into h and returns once the exchange is over.
// Cancelling ctx aborts the request and silences every later callback.
func (c *Client) StreamChat(ctx context.Context, req Request, h Handler) {
	stream, err := c.Open(ctx, req)
	if err != nil {
		if ctx.Err() == nil {
			h.fail(err)
		}
		return
	}
	defer stream.Close()

	for {
		text, err := stream.Next()
		if ctx.Err() != nil {
			return
		}

		switch {
		case errors.Is(err, io.EOF):
			h.done()
			return
		case err != nil:
			c.logger.Warn().Err(err).Msg("chat stream failed")
			h.fail(err)
			return
		}

		if h.OnDelta != nil {
			h.OnDelta(text)
		}
	}
}

func (h Handler) done() {
	if h.OnDone != nil {
		h.OnDone()
	}
}

func (h Handler) fail(err error) {
	if h.OnError != nil {
		h.OnError(err)
	}
}
