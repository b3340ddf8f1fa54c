package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestResolveEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		endpoint string
		want     Endpoint
		url      string
	}{
		{
			name:     "bare resource root",
			endpoint: "https://foo.openai.azure.com",
			want:     Endpoint{Base: "https://foo.openai.azure.com", Deployment: "gpt-35-turbo", APIVersion: "2023-05-15"},
			url:      "https://foo.openai.azure.com/openai/deployments/gpt-35-turbo/chat/completions?api-version=2023-05-15",
		},
		{
			name:     "root with trailing slashes",
			endpoint: " https://foo.openai.azure.com// ",
			want:     Endpoint{Base: "https://foo.openai.azure.com", Deployment: "gpt-35-turbo", APIVersion: "2023-05-15"},
		},
		{
			name:     "openai deployment path",
			endpoint: "https://foo.openai.azure.com/openai/deployments/mymodel",
			want:     Endpoint{Base: "https://foo.openai.azure.com", Deployment: "mymodel", APIVersion: "2023-05-15"},
		},
		{
			name:     "full completions url",
			endpoint: "https://foo.openai.azure.com/openai/deployments/mymodel/chat/completions?api-version=2024-02-01",
			want:     Endpoint{Base: "https://foo.openai.azure.com", Deployment: "mymodel", APIVersion: "2024-02-01"},
			url:      "https://foo.openai.azure.com/openai/deployments/mymodel/chat/completions?api-version=2024-02-01",
		},
		{
			name:     "deployments path with api version",
			endpoint: "https://foo.openai.azure.com/deployments/custom?api-version=2023-12-01",
			want:     Endpoint{Base: "https://foo.openai.azure.com", Deployment: "custom", APIVersion: "2023-12-01"},
		},
		{
			name:     "openai path with api version",
			endpoint: "https://foo.openai.azure.com/openai/deployments/mymodel?api-version=2024-06-01&x=1",
			want:     Endpoint{Base: "https://foo.openai.azure.com", Deployment: "mymodel", APIVersion: "2024-06-01"},
		},
		{
			name:     "case insensitive full url",
			endpoint: "HTTPS://foo.openai.azure.com/OpenAI/Deployments/m/Chat/Completions?API-Version=v1",
			want:     Endpoint{Base: "HTTPS://foo.openai.azure.com", Deployment: "m", APIVersion: "v1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveEndpoint(tt.endpoint)
			assert.Equal(t, tt.want, got)
			if tt.url != "" {
				assert.Equal(t, tt.url, got.URL())
			}
		})
	}
}

func TestAzureClient_Complete(t *testing.T) {
	var gotPath, gotQuery, gotKey, gotContentType string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("api-key")
		gotContentType = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hello there"}}]}`))
	}))
	defer srv.Close()

	// httptest serves plain http, so the full-url pattern never matches here.
	client := NewAzureClient(srv.Client(), zaptest.NewLogger(t))
	out, err := client.Complete(context.Background(), "hi", "secret", srv.URL+"/openai/deployments/dep1?api-version=2024-02-01")
	require.NoError(t, err)
	assert.Equal(t, "hello there", out)

	assert.Equal(t, "/openai/deployments/dep1/chat/completions", gotPath)
	assert.Equal(t, "api-version=2024-02-01", gotQuery)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, map[string]any{
		"messages":    []any{map[string]any{"role": "user", "content": "hi"}},
		"max_tokens":  float64(2000),
		"temperature": 0.7,
	}, gotBody)
}

func TestAzureClient_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:       "not found",
			status: http.StatusNotFound,
			body:   `{"error":{"code":"DeploymentNotFound"}}`,
			check: func(t *testing.T, err error) {
				var upstream *UpstreamError
				require.True(t, errors.As(err, &upstream))
				assert.Equal(t, http.StatusNotFound, upstream.Status)
				assert.Equal(t, "gpt-35-turbo", upstream.Deployment)
				assert.Contains(t, err.Error(), "deployment name (gpt-35-turbo)")
			},
		},
		{
			name:       "server error",
			status: http.StatusInternalServerError,
			body:   "overloaded",
			check: func(t *testing.T, err error) {
				var upstream *UpstreamError
				require.True(t, errors.As(err, &upstream))
				assert.Equal(t, "overloaded", upstream.Body)
				assert.Equal(t, "azure ai api error: 500 - overloaded", err.Error())
			},
		},
		{
			name:       "no choices",
			status: http.StatusOK,
			body:   `{"choices":[]}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrInvalidResponseFormat)
			},
		},
		{
			name:       "message without content",
			status: http.StatusOK,
			body:   `{"choices":[{"message":{"role":"assistant"}}]}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrInvalidResponseFormat)
			},
		},
		{
			name:       "not json",
			status: http.StatusOK,
			body:   "<html>",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrInvalidResponseFormat)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewAzureClient(srv.Client(), nil)
			_, err := client.Complete(context.Background(), "hi", "secret", srv.URL)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestAzureClient_RequiresCredentials(t *testing.T) {
	client := NewAzureClient(nil, nil)
	_, err := client.Complete(context.Background(), "hi", "", "https://foo.openai.azure.com")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "required"))
}
