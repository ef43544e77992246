package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RESTClient talks to the backend's HTTP API. It implements History and
// Actions.
type RESTClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     zerolog.Logger
}

var (
	_ History = &RESTClient{}
	_ Actions = &RESTClient{}
)

// NewRESTClient constructs a client for the given base URL. apiKey may be
// empty for unauthenticated local servers.
func NewRESTClient(baseURL, apiKey string, log zerolog.Logger) *RESTClient {
	return &RESTClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
}

// FetchPage implements History.
func (c *RESTClient) FetchPage(ctx context.Context, projectID string, before time.Time, limit int) (Page, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if !before.IsZero() {
		q.Set("before", before.UTC().Format(time.RFC3339Nano))
	}

	endpoint := fmt.Sprintf("%s/api/v1/projects/%s/messages?%s", c.baseURL, url.PathEscape(projectID), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Page{}, fmt.Errorf("build history request: %w", err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("fetch history page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Page{}, fmt.Errorf("%w: %d fetching history", ErrServerStatus, resp.StatusCode)
	}

	var page Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return Page{}, fmt.Errorf("decode history page: %w", err)
	}

	c.log.Debug().
		Str("project", projectID).
		Int("messages", len(page.Messages)).
		Int("total", page.TotalCount).
		Msg("fetched history page")

	return page, nil
}

// SubmitAnswer implements Actions.
func (c *RESTClient) SubmitAnswer(ctx context.Context, questionID, text string, selected []string) error {
	body := map[string]any{
		"answer_text": text,
	}
	if len(selected) > 0 {
		body["selected_options"] = selected
	}

	endpoint := fmt.Sprintf("%s/api/v1/questions/%s/answer", c.baseURL, url.PathEscape(questionID))
	if err := c.post(ctx, endpoint, body); err != nil {
		return fmt.Errorf("submit answer for question %s: %w", questionID, err)
	}

	c.log.Debug().Str("question_id", questionID).Msg("submitted answer")
	return nil
}

// SubmitBatch implements Actions.
func (c *RESTClient) SubmitBatch(ctx context.Context, batchID string, answers []BatchAnswer) error {
	body := map[string]any{
		"answers": answers,
	}

	endpoint := fmt.Sprintf("%s/api/v1/question-batches/%s/answers", c.baseURL, url.PathEscape(batchID))
	if err := c.post(ctx, endpoint, body); err != nil {
		return fmt.Errorf("submit batch %s: %w", batchID, err)
	}

	c.log.Debug().Str("batch_id", batchID).Int("answers", len(answers)).Msg("submitted batch answers")
	return nil
}

// SendMessage implements Actions. A client-generated id lets the server
// deduplicate retries.
func (c *RESTClient) SendMessage(ctx context.Context, projectID, text string) error {
	body := map[string]any{
		"client_id": uuid.New().String(),
		"content":   text,
	}

	endpoint := fmt.Sprintf("%s/api/v1/projects/%s/messages", c.baseURL, url.PathEscape(projectID))
	if err := c.post(ctx, endpoint, body); err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	c.log.Debug().Str("project", projectID).Msg("sent message")
	return nil
}

func (c *RESTClient) post(ctx context.Context, endpoint string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %d: %s", ErrServerStatus, resp.StatusCode, string(snippet))
	}

	return nil
}

func (c *RESTClient) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}
