package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nikolayk812/tourcart/internal/chat"
	"github.com/nikolayk812/tourcart/internal/config"
	"github.com/nikolayk812/tourcart/internal/domain"
	"github.com/nikolayk812/tourcart/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type options struct {
	endpoint    string
	token       string
	mode        string
	idleTimeout time.Duration
}

func newRootCmd() *cobra.Command {
	cfg, cfgErr := config.Load()

	var opts options
	cmd := &cobra.Command{
		Use:   "assistant [question]",
		Short: "Chat with the Dubai booking assistant",
		Long: "Streams replies from the storefront assistant. With a question it answers once " +
			"and exits, without one it starts an interactive session.",
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfgErr != nil {
				return cfgErr
			}

			log, err := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.LogLevel, true)
			if err != nil {
				return err
			}

			mode := domain.Mode(opts.mode)
			if !mode.Valid() {
				return fmt.Errorf("mode[%s] is not valid", opts.mode)
			}

			client, err := chat.NewClient(opts.endpoint,
				chat.WithToken(opts.token),
				chat.WithIdleTimeout(opts.idleTimeout),
				chat.WithLogger(log),
			)
			if err != nil {
				return err
			}

			s := &session{client: client, mode: mode, out: cmd.OutOrStdout(), log: log}
			if len(args) > 0 {
				return s.ask(cmd.Context(), strings.Join(args, " "))
			}

			return s.repl(cmd.Context(), cmd.InOrStdin())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.endpoint, "endpoint", cfg.ChatEndpoint, "assistant endpoint URL")
	flags.StringVar(&opts.token, "token", cfg.ChatToken, "bearer token sent to the endpoint")
	flags.StringVar(&opts.mode, "mode", string(domain.ModeChat), "chat, trip-planner or recommend")
	flags.DurationVar(&opts.idleTimeout, "idle-timeout", idleTimeoutOr(cfg.ChatIdleTimeout), "give up when the stream is silent this long")

	return cmd
}

func idleTimeoutOr(d time.Duration) time.Duration {
	if d <= 0 {
		return chat.DefaultIdleTimeout
	}
	return d
}

type session struct {
	client  *chat.Client
	mode    domain.Mode
	out     io.Writer
	log     zerolog.Logger
	history domain.ChatSession
}

func (s *session) repl(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprintln(s.out, "Ask about Dubai activities. Empty line or Ctrl-D quits.")

	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			return nil
		}

		if err := s.ask(ctx, line); err != nil {
			var statusErr *chat.StatusError
			if errors.As(err, &statusErr) || errors.Is(err, chat.ErrIdleTimeout) {
				// the visitor may retry after a refusal or a stall
				fmt.Fprintf(s.out, "\n[%v]\n", err)
				continue
			}
			return err
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

// appendDelta prints a chunk even when the history refuses it.
func (s *session) appendDelta(text string) {
	if err := s.history.AppendDelta(text); err != nil {
		s.log.Warn().Err(err).Msg("reply chunk not kept in history")
	}
	fmt.Fprint(s.out, text)
}

// ask runs one exchange, printing deltas as they arrive.
func (s *session) ask(ctx context.Context, question string) error {
	history, err := s.history.AddUser(question)
	if err != nil {
		return err
	}

	var streamErr error
	s.client.StreamChat(ctx, chat.Request{Messages: history, Mode: s.mode}, chat.Handler{
		OnDelta: s.appendDelta,
		OnDone: func() {
			fmt.Fprintln(s.out)
		},
		OnError: func(err error) {
			streamErr = err
		},
	})

	// the partial reply stays in the history even when the stream broke
	if _, err := s.history.Finish(); err != nil {
		return err
	}

	return streamErr
}
