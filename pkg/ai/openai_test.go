package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newCompletionServer(t *testing.T, content string, capture *map[string]interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if capture != nil {
			_ = json.NewDecoder(r.Body).Decode(capture)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4o-mini",
			"choices": []map[string]interface{}{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]interface{}{"role": "assistant", "content": content},
			}},
		})
	}))
}

func TestGenerateStudentsParsesAndFilters(t *testing.T) {
	content := `{"students":[
		{"name":" Maya Patel ","roll_number":"12","grade":"10-A"},
		{"name":"","roll_number":"13","grade":"10-A"},
		{"name":"Leo Chen","roll_number":"7","grade":"11-Science"}
	]}`
	var request map[string]interface{}
	server := newCompletionServer(t, content, &request)
	defer server.Close()

	generator, err := NewOpenAIGenerator(OpenAIConfig{APIKey: "test", BaseURL: server.URL, Logger: zerolog.Nop()})
	require.NoError(t, err)

	profiles, err := generator.GenerateStudents(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	require.Equal(t, "Maya Patel", profiles[0].Name)
	require.Equal(t, "11-Science", profiles[1].Grade)
	require.Equal(t, "gpt-4o-mini", request["model"])
}

func TestGenerateStudentsRejectsMalformedJSON(t *testing.T) {
	server := newCompletionServer(t, "not json", nil)
	defer server.Close()

	generator, err := NewOpenAIGenerator(OpenAIConfig{APIKey: "test", BaseURL: server.URL, Logger: zerolog.Nop()})
	require.NoError(t, err)

	_, err = generator.GenerateStudents(context.Background(), 1)
	require.Error(t, err)
}

func TestExtractStudentReadsCard(t *testing.T) {
	server := newCompletionServer(t, `{"name":"Ana Ruiz","roll_number":"4","grade":"10","section":"A","blood_group":"O+"}`, nil)
	defer server.Close()

	generator, err := NewOpenAIGenerator(OpenAIConfig{APIKey: "test", BaseURL: server.URL, Logger: zerolog.Nop()})
	require.NoError(t, err)

	profile, err := generator.ExtractStudent(context.Background(), CardImage{MimeType: "image/png", Data: []byte{0x89, 0x50}})
	require.NoError(t, err)
	require.Equal(t, "Ana Ruiz", profile.Name)
	require.Equal(t, "A", profile.Section)
	require.Equal(t, "O+", profile.BloodGroup)

	_, err = generator.ExtractStudent(context.Background(), CardImage{})
	require.Error(t, err)
}

func TestNewOpenAIGeneratorRequiresKey(t *testing.T) {
	_, err := NewOpenAIGenerator(OpenAIConfig{})
	require.Error(t, err)
}
