package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

const (
	DefaultDeployment = "gpt-35-turbo"
	DefaultAPIVersion = "2023-05-15"

	maxTokens   = 2000
	temperature = 0.7
)

var ErrInvalidResponseFormat = errors.New("invalid response format from azure ai")

var (
	fullURLPattern        = regexp.MustCompile(`(?i)^(https://[^/]+)/openai/deployments/([^/?]+)/chat/completions\?api-version=([^&]+)`)
	openAIPathPattern     = regexp.MustCompile(`(?i)/openai/deployments/([^/?]+)`)
	deploymentPattern     = regexp.MustCompile(`(?i)/deployments/([^/?]+)`)
	deploymentTailPattern = regexp.MustCompile(`/deployments/([^/?]+).*$`)
	apiVersionPattern     = regexp.MustCompile(`(?i)api-version=([^&]+)`)
	trailingSlashes       = regexp.MustCompile(`/+$`)
)

// UpstreamError is a non-2xx answer from the completions endpoint.
type UpstreamError struct {
	Status int
	Body   string
	// Base and Deployment are what the request was resolved to.
	Base       string
	Deployment string
}

func (e *UpstreamError) Error() string {
	if e.Status == http.StatusNotFound {
		return fmt.Sprintf("azure ai endpoint not found: check the endpoint url (%s), the deployment name (%s) and that the deployment exists in your azure openai service",
			e.Base, e.Deployment)
	}
	return fmt.Sprintf("azure ai api error: %d - %s", e.Status, e.Body)
}

// Endpoint is a resolved Azure OpenAI chat completions target.
type Endpoint struct {
	Base       string
	Deployment string
	APIVersion string
}

func (e Endpoint) URL() string {
	return e.Base + "/openai/deployments/" + e.Deployment + "/chat/completions?api-version=" + e.APIVersion
}

// ResolveEndpoint accepts a full completions URL, a URL carrying
// /openai/deployments/{name} or /deployments/{name}, or a bare resource root.
// Missing parts fall back to DefaultDeployment and DefaultAPIVersion.
func ResolveEndpoint(raw string) Endpoint {
	if m := fullURLPattern.FindStringSubmatch(raw); m != nil {
		return Endpoint{Base: m[1], Deployment: m[2], APIVersion: m[3]}
	}

	ep := Endpoint{
		Base:       trailingSlashes.ReplaceAllString(strings.TrimSpace(raw), ""),
		Deployment: DefaultDeployment,
		APIVersion: DefaultAPIVersion,
	}
	if m := openAIPathPattern.FindStringSubmatch(raw); m != nil {
		ep.Deployment = m[1]
		ep.Base = strings.SplitN(raw, "/openai/deployments/", 2)[0]
	} else if m := deploymentPattern.FindStringSubmatch(raw); m != nil {
		ep.Deployment = m[1]
		ep.Base = deploymentTailPattern.ReplaceAllString(raw, "")
	}
	if m := apiVersionPattern.FindStringSubmatch(raw); m != nil {
		ep.APIVersion = m[1]
	}
	return ep
}

type completionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Messages    []completionMessage `json:"messages"`
	MaxTokens   int                 `json:"max_tokens"`
	Temperature float64             `json:"temperature"`
}

// AzureClient calls an Azure OpenAI deployment. Requests are bounded only by
// the caller's context.
type AzureClient struct {
	httpClient *http.Client
	log        *zap.Logger
}

func NewAzureClient(httpClient *http.Client, log *zap.Logger) *AzureClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AzureClient{httpClient: httpClient, log: log}
}

// Complete sends message as a single user turn and returns the first choice.
func (c *AzureClient) Complete(ctx context.Context, message, apiKey, endpoint string) (string, error) {
	if apiKey == "" || endpoint == "" {
		return "", errors.New("azure api key and endpoint are required")
	}

	ep := ResolveEndpoint(endpoint)
	url := ep.URL()
	c.log.Debug("azure ai request", zap.String("url", url), zap.String("deployment", ep.Deployment))

	bodyBytes, err := json.Marshal(completionRequest{
		Messages:    []completionMessage{{Role: "user", Content: message}},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion request failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("build completion request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read completion response failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn("azure ai error response",
			zap.Int("status", resp.StatusCode),
			zap.String("deployment", ep.Deployment),
		)
		return "", &UpstreamError{
			Status:     resp.StatusCode,
			Body:       string(raw),
			Base:       ep.Base,
			Deployment: ep.Deployment,
		}
	}

	var parsed struct {
		Choices []struct {
			Message *struct {
				Content *string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidResponseFormat, err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message == nil || parsed.Choices[0].Message.Content == nil {
		return "", ErrInvalidResponseFormat
	}
	return *parsed.Choices[0].Message.Content, nil
}
