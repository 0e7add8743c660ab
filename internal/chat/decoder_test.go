package chat_test

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/nikolayk812/tourcart/internal/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deltaLine(text string) string {
	return fmt.Sprintf("data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n", text)
}

// collect drains d and returns the deltas, whether the terminal marker was seen and
// the final error (nil for a clean end).
func collect(d *chat.Decoder) ([]string, bool, error) {
	var deltas []string
	for {
		frame, err := d.Next()
		if errors.Is(err, io.EOF) {
			return deltas, false, nil
		}
		if err != nil {
			return deltas, false, err
		}
		if frame.Kind == chat.FrameDone {
			return deltas, true, nil
		}
		deltas = append(deltas, frame.Text)
	}
}

func TestDecoder_Next(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantDeltas  []string
		wantDone    bool
		wantSkipped int
	}{
		{
			name:       "deltas then done: ok",
			input:      deltaLine("Hel") + deltaLine("lo ") + deltaLine("world") + "data: [DONE]\n",
			wantDeltas: []string{"Hel", "lo ", "world"},
			wantDone:   true,
		},
		{
			name:       "crlf, comments, blank lines and other fields: ok",
			input:      ": keep-alive\r\n\r\nevent: message\r\nid: 7\r\n" + strings.ReplaceAll(deltaLine("hi"), "\n", "\r\n") + "data: [DONE]\r\n",
			wantDeltas: []string{"hi"},
			wantDone:   true,
		},
		{
			name:        "malformed frame skipped: ok",
			input:       deltaLine("a") + "data: {not json\n" + deltaLine("b") + "data: [DONE]\n",
			wantDeltas:  []string{"a", "b"},
			wantDone:    true,
			wantSkipped: 1,
		},
		{
			name:       "frames without text ignored: ok",
			input:      "data: {\"choices\":[{\"delta\":{\"role\":\"assistant\"}}]}\ndata: {\"choices\":[]}\n" + deltaLine("x") + "data: [DONE]\n",
			wantDeltas: []string{"x"},
			wantDone:   true,
		},
		{
			name:       "data without space: ok",
			input:      "data:{\"choices\":[{\"delta\":{\"content\":\"tight\"}}]}\ndata:[DONE]\n",
			wantDeltas: []string{"tight"},
			wantDone:   true,
		},
		{
			name:       "nothing after done is read: ok",
			input:      deltaLine("a") + "data: [DONE]\n" + deltaLine("late"),
			wantDeltas: []string{"a"},
			wantDone:   true,
		},
		{
			name:       "end without marker: ok",
			input:      deltaLine("a") + deltaLine("b"),
			wantDeltas: []string{"a", "b"},
		},
		{
			name:       "unterminated last line flushed at end: ok",
			input:      deltaLine("a") + strings.TrimSuffix(deltaLine("b"), "\n"),
			wantDeltas: []string{"a", "b"},
		},
		{
			name:       "unterminated done marker: ok",
			input:      deltaLine("a") + "data: [DONE]",
			wantDeltas: []string{"a"},
			wantDone:   true,
		},
		{
			name:  "empty input: ok",
			input: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := chat.NewDecoder(strings.NewReader(tt.input))

			deltas, done, err := collect(dec)
			require.NoError(t, err)

			assert.Equal(t, tt.wantDeltas, deltas)
			assert.Equal(t, tt.wantDone, done)
			assert.Equal(t, tt.wantSkipped, dec.Skipped())
		})
	}
}

func TestDecoder_SplitAnywhere(t *testing.T) {
	input := deltaLine("Hel") + ": ping\n" + deltaLine("lo ") + deltaLine("wörld ✨") + "data: [DONE]\n"
	want := []string{"Hel", "lo ", "wörld ✨"}

	t.Run("one byte per read: ok", func(t *testing.T) {
		deltas, done, err := collect(chat.NewDecoder(iotest.OneByteReader(strings.NewReader(input))))
		require.NoError(t, err)
		assert.True(t, done)
		assert.Equal(t, want, deltas)
	})

	for i := 1; i < len(input); i++ {
		r := io.MultiReader(
			iotest.HalfReader(strings.NewReader(input[:i])),
			iotest.HalfReader(strings.NewReader(input[i:])),
		)

		deltas, done, err := collect(chat.NewDecoder(r))
		require.NoError(t, err, "split at %d", i)
		assert.True(t, done, "split at %d", i)
		assert.Equal(t, want, deltas, "split at %d", i)
	}
}

func TestDecoder_PartialFrameWaitsForDelimiter(t *testing.T) {
	pr, pw := io.Pipe()
	dec := chat.NewDecoder(pr)

	line := deltaLine("Hello")
	frames := make(chan chat.Frame, 1)
	go func() {
		frame, err := dec.Next()
		if err == nil {
			frames <- frame
		}
		close(frames)
	}()

	_, err := pw.Write([]byte(line[:len(line)-5]))
	require.NoError(t, err)

	assert.Never(t, func() bool { return len(frames) > 0 }, 50*time.Millisecond, 5*time.Millisecond)

	_, err = pw.Write([]byte(line[len(line)-5:]))
	require.NoError(t, err)

	frame, ok := <-frames
	require.True(t, ok)
	assert.Equal(t, chat.Frame{Kind: chat.FrameDelta, Text: "Hello"}, frame)

	require.NoError(t, pw.Close())
}

func TestDecoder_ReadErrorDropsPartialLine(t *testing.T) {
	errDropped := errors.New("connection reset")
	r := io.MultiReader(
		strings.NewReader(deltaLine("kept")+strings.TrimSuffix(deltaLine("lost"), "\n")),
		iotest.ErrReader(errDropped),
	)

	deltas, done, err := collect(chat.NewDecoder(r))
	require.ErrorIs(t, err, errDropped)
	assert.False(t, done)
	assert.Equal(t, []string{"kept"}, deltas)
}
