package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/brainduel/gameserver/config"
	"github.com/brainduel/gameserver/models"
)

// Client calls the Gemini generateContent API to produce question batches.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewClient(cfg config.GeminiConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
		},
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func prompt(topic string, count int) string {
	return fmt.Sprintf(`Generate %d quiz questions about "%s".
The questions should be interesting and of medium difficulty.
Each question must have 4 options and the index of the correct answer (0-3).
Return ONLY a valid JSON array in this exact format:
[
    { "question": "Question 1...", "options": ["A","B","C","D"], "correctIndex": 0 },
    { "question": "Question 2...", "options": ["A","B","C","D"], "correctIndex": 2 }
]`, count, topic)
}

// Generate requests count questions on topic. Exactly one API call is
// made; any transport, parse, or schema problem is returned as an error
// so the caller can fall back to its reserve set.
func (c *Client) Generate(ctx context.Context, topic string, count int) ([]models.Question, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("gemini api key not configured")
	}

	reqBody, err := json.Marshal(&generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt(topic, count)}}}},
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini returned status %d: %s", resp.StatusCode, body)
	}

	var gr generateResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return nil, fmt.Errorf("decoding gemini response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini response has no candidates")
	}

	return parseBatch(gr.Candidates[0].Content.Parts[0].Text)
}

// parseBatch extracts the question array from the model's text output,
// tolerating markdown code fences around the JSON.
func parseBatch(text string) ([]models.Question, error) {
	cleaned := strings.ReplaceAll(text, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	var questions []models.Question
	if err := json.Unmarshal([]byte(cleaned), &questions); err != nil {
		return nil, fmt.Errorf("response is not a question array: %w", err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("response contained no questions")
	}
	for i, q := range questions {
		if !q.Valid() {
			return nil, fmt.Errorf("question %d is malformed", i)
		}
	}
	return questions, nil
}
