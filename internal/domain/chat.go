package domain

import (
	"errors"
	"fmt"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Mode selects the assistant persona applied by the gateway.
type Mode string

const (
	ModeChat        Mode = "chat"
	ModeTripPlanner Mode = "trip-planner"
	ModeRecommend   Mode = "recommend"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeChat, ModeTripPlanner, ModeRecommend:
		return true
	}
	return false
}

type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

var (
	ErrExchangeInFlight = errors.New("an assistant reply is still streaming")
	ErrNoExchange       = errors.New("no assistant reply is streaming")
)

// ChatSession holds one conversation. While a reply streams, only the trailing
// assistant message grows; Finish freezes it until the next user message.
type ChatSession struct {
	messages  []ChatMessage
	streaming bool
	// replyOpen is set once the first delta of the current exchange arrived
	replyOpen bool
}

func (s *ChatSession) Messages() []ChatMessage {
	return append([]ChatMessage(nil), s.messages...)
}

func (s *ChatSession) Streaming() bool {
	return s.streaming
}

// AddUser starts a new exchange and returns the history to send, oldest first.
func (s *ChatSession) AddUser(content string) ([]ChatMessage, error) {
	if s.streaming {
		return nil, ErrExchangeInFlight
	}
	if content == "" {
		return nil, fmt.Errorf("content is empty")
	}

	s.messages = append(s.messages, ChatMessage{Role: RoleUser, Content: content})
	s.streaming = true
	s.replyOpen = false

	return s.Messages(), nil
}

// AppendDelta grows the trailing assistant message, creating it on the first delta.
func (s *ChatSession) AppendDelta(chunk string) error {
	if !s.streaming {
		return ErrNoExchange
	}

	if !s.replyOpen {
		s.messages = append(s.messages, ChatMessage{Role: RoleAssistant})
		s.replyOpen = true
	}

	last := &s.messages[len(s.messages)-1]
	last.Content += chunk

	return nil
}

// Finish ends the exchange and returns the assistant reply, empty when no delta arrived.
func (s *ChatSession) Finish() (string, error) {
	if !s.streaming {
		return "", ErrNoExchange
	}

	s.streaming = false
	if !s.replyOpen {
		return "", nil
	}
	s.replyOpen = false

	return s.messages[len(s.messages)-1].Content, nil
}
