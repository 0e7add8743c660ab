package chat

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

const doneMarker = "[DONE]"

type FrameKind int

const (
	FrameDelta FrameKind = iota
	FrameDone
)

type Frame struct {
	Kind FrameKind
	Text string
}

// chunk is the part of an OpenAI-compatible streaming completion we read.
type chunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Decoder turns a newline-delimited event stream into frames. A line is only
// interpreted once its newline arrived, or at a clean end of input.
type Decoder struct {
	r       *bufio.Reader
	eof     bool
	skipped int
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next returns the next text-bearing or terminal frame. Blank lines, comments,
// non-data fields and malformed payloads are skipped. It returns io.EOF at a clean
// end of input; any other read error drops the partial line.
func (d *Decoder) Next() (Frame, error) {
	for !d.eof {
		line, err := d.r.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return Frame{}, err
			}
			d.eof = true
		}

		frame, ok := d.parse(line)
		if ok {
			return frame, nil
		}
	}

	return Frame{}, io.EOF
}

// Skipped counts data lines that could not be decoded.
func (d *Decoder) Skipped() int {
	return d.skipped
}

func (d *Decoder) parse(line string) (Frame, bool) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" || strings.HasPrefix(line, ":") {
		return Frame{}, false
	}

	payload, ok := strings.CutPrefix(line, "data:")
	if !ok {
		return Frame{}, false
	}
	payload = strings.TrimSpace(payload)

	if payload == doneMarker {
		return Frame{Kind: FrameDone}, true
	}

	var c chunk
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		d.skipped++
		return Frame{}, false
	}
	if len(c.Choices) == 0 || c.Choices[0].Delta.Content == "" {
		return Frame{}, false
	}

	return Frame{Kind: FrameDelta, Text: c.Choices[0].Delta.Content}, true
}
