package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const responsesEndpoint = "https://api.openai.com/v1/responses"

// Client talks to the OpenAI Responses API. Streaming requests go over a
// raw SSE connection because the event vocabulary of spec §4.4 (reasoning
// text/summary deltas, function-call-argument deltas) is not modelled by
// go-openai's chat-completions stream; go-openai is still used for the
// single-turn run_edit path, where a plain chat completion suffices.
type Client struct {
	apiKey     string
	httpClient *http.Client
	chat       *openai.Client
	maxRetries int
	retryDelay time.Duration
	debug      io.Writer
}

// EnableDebug routes the raw outgoing request body and every SSE frame to
// w (AI_DEBUG_API, SPEC_FULL.md §4 supplemented feature 9). It is
// independent of the Renderer's reasoning display.
func (c *Client) EnableDebug(w io.Writer) {
	c.debug = w
}

// NewClient constructs a Client. An empty apiKey is allowed at construction
// time; Stream and CompleteEdit both fail fast with a Configuration error.
func NewClient(apiKey string) *Client {
	c := &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 0},
		maxRetries: 3,
		retryDelay: time.Second,
	}
	if apiKey != "" {
		c.chat = openai.NewClient(apiKey)
	}
	return c
}

// Stream opens a streaming Responses-API request and returns the raw
// line-delimited SSE body for the Adapter to demultiplex.
func (c *Client) Stream(ctx context.Context, req Request) (io.ReadCloser, error) {
	if c.apiKey == "" {
		return nil, &Error{Reason: FailoverAuth, Message: "OPENAI_API_KEY is not configured", Provider: "openai"}
	}
	req.Stream = true

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	if c.debug != nil {
		fmt.Fprintf(c.debug, "--> %s\n", body)
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay * time.Duration(attempt)):
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, responsesEndpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
		httpReq.Header.Set("Accept", "text/event-stream")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode >= 400 {
			msg, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			provErr := &Error{Reason: classifyStatus(resp.StatusCode), Status: resp.StatusCode, Message: strings.TrimSpace(string(msg)), Provider: "openai"}
			if !provErr.Reason.IsRetryable() {
				return nil, provErr
			}
			lastErr = provErr
			continue
		}
		if c.debug != nil {
			return &teeReadCloser{r: io.TeeReader(resp.Body, c.debug), c: resp.Body}, nil
		}
		return resp.Body, nil
	}
	return nil, lastErr
}

// teeReadCloser mirrors every byte read from an SSE body into the debug
// sink while preserving the original Close semantics.
type teeReadCloser struct {
	r io.Reader
	c io.Closer
}

func (t *teeReadCloser) Read(p []byte) (int, error) { return t.r.Read(p) }
func (t *teeReadCloser) Close() error                { return t.c.Close() }

// CompleteEdit performs a single non-streaming chat completion for
// run_edit(path, instruction) (spec §4.7): the file content and instruction
// are sent as a user message and the raw text response returned.
func (c *Client) CompleteEdit(ctx context.Context, model, instructions, fileContent, instruction string) (string, error) {
	if c.chat == nil {
		return "", &Error{Reason: FailoverAuth, Message: "OPENAI_API_KEY is not configured", Provider: "openai"}
	}

	user := fmt.Sprintf("File contents:\n```\n%s\n```\n\nInstruction: %s", fileContent, instruction)

	resp, err := c.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: instructions},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", &Error{Reason: classifyMessage(err.Error()), Message: err.Error(), Provider: "openai"}
	}
	if len(resp.Choices) == 0 {
		return "", &Error{Reason: FailoverUnknown, Message: "empty completion response", Provider: "openai"}
	}
	return resp.Choices[0].Message.Content, nil
}

// sseScanner reads "data: <json>\n\n" frames off an SSE body. Comment lines
// and empty keepalive frames are skipped.
type sseScanner struct {
	scanner *bufio.Scanner
}

func newSSEScanner(r io.Reader) *sseScanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &sseScanner{scanner: scanner}
}

// Next returns the next data payload, or ok=false at EOF.
func (s *sseScanner) Next() (string, bool) {
	var data strings.Builder
	for s.scanner.Scan() {
		line := s.scanner.Text()
		if line == "" {
			if data.Len() > 0 {
				return data.String(), true
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		if payload, found := strings.CutPrefix(line, "data:"); found {
			data.WriteString(strings.TrimPrefix(payload, " "))
		}
	}
	if data.Len() > 0 {
		return data.String(), true
	}
	return "", false
}
