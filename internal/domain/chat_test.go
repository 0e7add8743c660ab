package domain_test

import (
	"testing"

	"github.com/nikolayk812/tourcart/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatSession_Exchange(t *testing.T) {
	var session domain.ChatSession

	history, err := session.AddUser("Plan 3 days in Dubai")
	require.NoError(t, err)
	assert.Equal(t, []domain.ChatMessage{{Role: domain.RoleUser, Content: "Plan 3 days in Dubai"}}, history)
	assert.True(t, session.Streaming())

	_, err = session.AddUser("hello?")
	require.ErrorIs(t, err, domain.ErrExchangeInFlight)

	for _, chunk := range []string{"Hel", "lo ", "world"} {
		require.NoError(t, session.AppendDelta(chunk))
	}

	reply, err := session.Finish()
	require.NoError(t, err)
	assert.Equal(t, "Hello world", reply)
	assert.False(t, session.Streaming())

	// the finished reply is frozen
	require.ErrorIs(t, session.AppendDelta("!"), domain.ErrNoExchange)

	history, err = session.AddUser("Thanks")
	require.NoError(t, err)
	assert.Equal(t, []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "Plan 3 days in Dubai"},
		{Role: domain.RoleAssistant, Content: "Hello world"},
		{Role: domain.RoleUser, Content: "Thanks"},
	}, history)
}

func TestChatSession_FinishWithoutDeltas(t *testing.T) {
	var session domain.ChatSession

	_, err := session.AddUser("hi")
	require.NoError(t, err)

	reply, err := session.Finish()
	require.NoError(t, err)
	assert.Empty(t, reply)
	assert.Len(t, session.Messages(), 1)

	_, err = session.Finish()
	require.ErrorIs(t, err, domain.ErrNoExchange)
}

func TestChatSession_EmptyUserMessage(t *testing.T) {
	var session domain.ChatSession

	_, err := session.AddUser("")
	require.EqualError(t, err, "content is empty")
	assert.False(t, session.Streaming())
}

func TestMode_Valid(t *testing.T) {
	assert.True(t, domain.ModeChat.Valid())
	assert.True(t, domain.ModeTripPlanner.Valid())
	assert.True(t, domain.ModeRecommend.Valid())
	assert.False(t, domain.Mode("sales").Valid())
}
