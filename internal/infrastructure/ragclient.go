package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"elevex/internal/entities"
	"elevex/internal/interfaces"
)

// RAGClient calls the retrieval/answer backend over HTTP.
type RAGClient struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

func NewRAGClient(baseURL string, timeout time.Duration) *RAGClient {
	return &RAGClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

type ragQueryRequest struct {
	Question          string            `json:"question"`
	SystemInstruction string            `json:"system_instruction,omitempty"`
	BrandFilter       string            `json:"brand_filter,omitempty"`
	History           []ragHistoryEntry `json:"history,omitempty"`
}

type ragHistoryEntry struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type ragQueryResponse struct {
	Answer         string `json:"answer"`
	DocumentsFound int    `json:"documents_found"`
}

// Ask sends the question to the backend and returns its answer. Timeouts and
// transport failures map to the shared sentinels so callers can refund.
func (c *RAGClient) Ask(ctx context.Context, question string, askCtx entities.AskContext) (entities.Answer, error) {
	reqBody := ragQueryRequest{
		Question:          question,
		SystemInstruction: askCtx.SystemInstruction,
		BrandFilter:       askCtx.BrandFilter,
	}
	for _, m := range askCtx.History {
		reqBody.History = append(reqBody.History, ragHistoryEntry{Role: m.Role, Text: m.Text})
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return entities.Answer{}, fmt.Errorf("encode query: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/query", bytes.NewReader(payload))
	if err != nil {
		return entities.Answer{}, fmt.Errorf("build query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return entities.Answer{}, interfaces.ErrAnswerTimeout
		}
		return entities.Answer{}, fmt.Errorf("%w: %v", interfaces.ErrAnswerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return entities.Answer{}, fmt.Errorf("%w: status %d", interfaces.ErrAnswerUnavailable, resp.StatusCode)
	}

	var out ragQueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return entities.Answer{}, fmt.Errorf("%w: decode response: %v", interfaces.ErrAnswerUnavailable, err)
	}
	return entities.Answer{Text: out.Answer, DocumentsFound: out.DocumentsFound}, nil
}
