package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestComplete_Success(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Errorf("request body not JSON: %v", err)
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "Peacock spot is a fungal disease."}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewOpenAICompatibleClient()
	cfg := ChatConfig{
		BaseURL:     server.URL,
		APIKey:      "test-key",
		Model:       "test-model",
		Temperature: 0.5,
		MaxTokens:   1024,
	}

	text, err := client.Complete(context.Background(), cfg, []ChatMessage{
		TextMessage("system", "persona"),
		TextMessage("user", "what are these spots?"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if text != "Peacock spot is a fungal disease." {
		t.Errorf("unexpected completion: %q", text)
	}

	if captured["model"] != "test-model" {
		t.Errorf("model = %v", captured["model"])
	}
	if captured["temperature"] != 0.5 {
		t.Errorf("temperature = %v", captured["temperature"])
	}
	if captured["max_tokens"] != float64(1024) {
		t.Errorf("max_tokens = %v", captured["max_tokens"])
	}
}

func TestComplete_MultimodalPayload(t *testing.T) {
	var captured struct {
		Messages []struct {
			Role    string          `json:"role"`
			Content json.RawMessage `json:"content"`
		} `json:"messages"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": "ok"}}},
		})
	}))
	defer server.Close()

	client := NewOpenAICompatibleClient()
	cfg := ChatConfig{BaseURL: server.URL, APIKey: "k", Model: "m"}

	messages := []ChatMessage{{
		Role: "user",
		Content: []ContentPart{
			{Type: "text", Text: "analyze this"},
			{Type: "image_url", ImageURL: &ImageURL{URL: "data:image/jpeg;base64,Zm9v"}},
		},
	}}
	if _, err := client.Complete(context.Background(), cfg, messages); err != nil {
		t.Fatal(err)
	}

	if len(captured.Messages) != 1 {
		t.Fatalf("expected 1 message on the wire, got %d", len(captured.Messages))
	}
	var parts []ContentPart
	if err := json.Unmarshal(captured.Messages[0].Content, &parts); err != nil {
		t.Fatalf("content is not a part array: %v", err)
	}
	if len(parts) != 2 || parts[1].ImageURL == nil || parts[1].ImageURL.URL != "data:image/jpeg;base64,Zm9v" {
		t.Errorf("image part mangled on the wire: %+v", parts)
	}
}

func TestComplete_ErrorStatusIncludesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"image content not supported by this model"}}`))
	}))
	defer server.Close()

	client := NewOpenAICompatibleClient()
	cfg := ChatConfig{BaseURL: server.URL, APIKey: "k", Model: "m"}

	_, err := client.Complete(context.Background(), cfg, []ChatMessage{TextMessage("user", "hi")})
	if err == nil {
		t.Fatal("expected error on 400")
	}
	if !isImageRejection(err) {
		t.Errorf("error text should carry the upstream body for rejection matching: %v", err)
	}
}

func TestComplete_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []map[string]any{}})
	}))
	defer server.Close()

	client := NewOpenAICompatibleClient()
	cfg := ChatConfig{BaseURL: server.URL, APIKey: "k", Model: "m"}

	if _, err := client.Complete(context.Background(), cfg, []ChatMessage{TextMessage("user", "hi")}); err == nil {
		t.Fatal("expected error on empty choices")
	}
}
