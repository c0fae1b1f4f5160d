package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChatAccumulatesStream(t *testing.T) {
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/x-ndjson")
		chunks := []string{
			`{"message":{"content":"张三"},"done":false}`,
			``,
			`{"message":{"content":"是一级检察官"},"done":false}`,
			`{"message":{"content":"。"},"done":true}`,
		}
		for _, chunk := range chunks {
			w.Write([]byte(chunk + "\n"))
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	answer, err := client.Chat(context.Background(), "qwen2.5:7b", []Message{
		SystemPrompt("name,grade\n张三,一级检察官"),
		{Role: "user", Content: "张三是什么职级？"},
	})
	require.NoError(t, err)
	require.Equal(t, "张三是一级检察官。", answer)

	require.Equal(t, "qwen2.5:7b", gotReq.Model)
	require.True(t, gotReq.Stream)
	require.Len(t, gotReq.Messages, 2)
	require.Equal(t, "system", gotReq.Messages[0].Role)
	require.Contains(t, gotReq.Messages[0].Content, "CSV数据")
}

func TestChatMissingModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Chat(context.Background(), "missing", nil)
	require.ErrorContains(t, err, `model "missing" is not available`)
}

func TestChatMalformedChunk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not json\n"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Chat(context.Background(), "any", nil)
	require.ErrorContains(t, err, "malformed stream chunk")
}

func TestChatUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := NewClient(srv.URL).Chat(context.Background(), "any", nil)
	require.ErrorContains(t, err, "assistant service unreachable")
}

func TestModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"models": []map[string]string{
				{"name": "qwen2.5:7b"},
				{"name": "llama3.1:8b"},
			},
		})
	}))
	defer srv.Close()

	names, err := NewClient(srv.URL).Models(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"qwen2.5:7b", "llama3.1:8b"}, names)
}
