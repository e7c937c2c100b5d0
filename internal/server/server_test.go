package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"claude-nodes/internal/nodes"
	"claude-nodes/internal/provider"
)

type stubProvider struct {
	reply string
}

func (s *stubProvider) Complete(ctx context.Context, req provider.Request) (string, error) {
	return s.reply, nil
}

func testRouter(reply string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	registry := nodes.DefaultRegistry(&stubProvider{reply: reply}, nodes.Defaults{
		Model:     "claude-sonnet-4-20250514",
		MaxTokens: 4096,
	})
	return NewRouter(registry, zap.NewNop())
}

func TestHealthEndpoint(t *testing.T) {
	router := testRouter("ok")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "ok", response["status"])
}

func TestListNodes(t *testing.T) {
	router := testRouter("ok")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/nodes", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response struct {
		Nodes []nodes.Spec `json:"nodes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response.Nodes, 9)
}

func TestGetNodeSpec(t *testing.T) {
	router := testRouter("ok")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/nodes/Transform%20Text", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var spec nodes.Spec
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &spec))
	assert.Equal(t, "Transform Text", spec.Name)
	assert.Equal(t, "Claude", spec.Category)
	assert.Equal(t, []string{"transformed_text"}, spec.Outputs)
}

func TestGetNodeSpecNotFound(t *testing.T) {
	router := testRouter("ok")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/nodes/Unknown", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExecuteNode(t *testing.T) {
	router := testRouter("a rewritten prompt")

	body, _ := json.Marshal(map[string]interface{}{
		"inputs": map[string]interface{}{"text": "hello"},
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/nodes/Transform%20Text/execute", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response struct {
		InvocationID string            `json:"invocation_id"`
		Node         string            `json:"node"`
		Outputs      map[string]string `json:"outputs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.NotEmpty(t, response.InvocationID)
	assert.Equal(t, "Transform Text", response.Node)
	assert.Equal(t, "a rewritten prompt", response.Outputs["transformed_text"])
}

func TestExecuteNodeWithImageTensor(t *testing.T) {
	router := testRouter("a tiny image")

	body := `{"inputs": {"image": {"shape": [1, 1, 3], "data": [0.1, 0.2, 0.3]}}}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/nodes/Describe%20Image/execute", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response struct {
		Outputs map[string]string `json:"outputs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "a tiny image", response.Outputs["description"])
}

func TestExecuteNodeErrorBecomesDisplayString(t *testing.T) {
	router := testRouter("ok")

	// Missing required input fails inside the node, surfacing as ERROR: output
	body := `{"inputs": {}}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/nodes/Transform%20Text/execute", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response struct {
		Outputs map[string]string `json:"outputs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, strings.HasPrefix(response.Outputs["transformed_text"], "ERROR: "))
}

func TestExecuteUnknownNode(t *testing.T) {
	router := testRouter("ok")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/nodes/Unknown/execute", strings.NewReader(`{"inputs": {}}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExecuteMalformedBody(t *testing.T) {
	router := testRouter("ok")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/nodes/Transform%20Text/execute", strings.NewReader(`{not json`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
