package genai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/brainduel/gameserver/config"
)

func testClient(baseURL string) *Client {
	return NewClient(config.GeminiConfig{
		APIKey:    "test-key",
		BaseURL:   baseURL,
		Model:     "test-model",
		TimeoutMS: 2000,
	})
}

func candidateResponse(text string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"candidates": []map[string]interface{}{
			{"content": map[string]interface{}{"parts": []map[string]string{{"text": text}}}},
		},
	})
	return string(body)
}

const validBatch = `[
	{"question": "Capital of Japan?", "options": ["Kyoto", "Tokyo", "Osaka", "Nagoya"], "correctIndex": 1},
	{"question": "2 + 2?", "options": ["3", "4", "5", "6"], "correctIndex": 1}
]`

func TestGenerateParsesFencedJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if !strings.Contains(r.URL.Path, "test-model:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Error("api key missing from request")
		}
		w.Write([]byte(candidateResponse("```json\n" + validBatch + "\n```")))
	}))
	defer ts.Close()

	questions, err := testClient(ts.URL).Generate(context.Background(), "Geography", 2)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	if questions[0].Question != "Capital of Japan?" || questions[0].CorrectIndex != 1 {
		t.Errorf("unexpected first question: %+v", questions[0])
	}
}

func TestGenerateWithoutFences(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(candidateResponse(validBatch)))
	}))
	defer ts.Close()

	questions, err := testClient(ts.URL).Generate(context.Background(), "Geography", 2)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
}

func TestGenerateRequiresAPIKey(t *testing.T) {
	client := NewClient(config.GeminiConfig{BaseURL: "http://unused", Model: "m", TimeoutMS: 100})
	if _, err := client.Generate(context.Background(), "Topic", 5); err == nil {
		t.Fatal("expected an error without an api key")
	}
}

func TestGenerateRejectsHTTPErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer ts.Close()

	if _, err := testClient(ts.URL).Generate(context.Background(), "Topic", 5); err == nil {
		t.Fatal("expected an error on a non-200 response")
	}
}

func TestGenerateRejectsMalformedBatches(t *testing.T) {
	cases := map[string]string{
		"not an array":       `{"question": "only one"}`,
		"empty array":        `[]`,
		"three options":      `[{"question": "Q", "options": ["A", "B", "C"], "correctIndex": 0}]`,
		"index out of range": `[{"question": "Q", "options": ["A", "B", "C", "D"], "correctIndex": 4}]`,
		"negative index":     `[{"question": "Q", "options": ["A", "B", "C", "D"], "correctIndex": -1}]`,
	}

	for name, batch := range cases {
		batch := batch
		t.Run(name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(candidateResponse(batch)))
			}))
			defer ts.Close()

			if _, err := testClient(ts.URL).Generate(context.Background(), "Topic", 1); err == nil {
				t.Fatal("expected a schema error")
			}
		})
	}
}

func TestGenerateRejectsEmptyCandidates(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": []}`))
	}))
	defer ts.Close()

	if _, err := testClient(ts.URL).Generate(context.Background(), "Topic", 1); err == nil {
		t.Fatal("expected an error when no candidates come back")
	}
}
