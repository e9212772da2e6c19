// Package genai is a lightweight HTTP client for the Gemini generative-media
// API: synchronous image generation and editing via generateContent, and
// long-running video generation via predictLongRunning plus operation
// polling. Providers translate domain requests into these calls; everything
// transport-level stays in here.
package genai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Options controls how the client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client calls the generative API. Safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = "https://generativelanguage.googleapis.com/v1beta"
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Client{
		httpClient: client,
		baseURL:    base,
		apiKey:     strings.TrimSpace(opts.APIKey),
	}
}

// APIError is a provider-reported failure. Status carries the
// machine-readable kind when the API supplies one (RESOURCE_EXHAUSTED,
// INVALID_ARGUMENT, INTERNAL, ...).
type APIError struct {
	HTTPStatus int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("genai: %s (%s)", e.Message, e.Status)
	}
	return fmt.Sprintf("genai: %s (http %d)", e.Message, e.HTTPStatus)
}

// InlineImage is an input or output image carried inline.
type InlineImage struct {
	MimeType string
	Data     []byte
}

// ImageRequest asks for one generateContent call producing images. When
// References are present the call is an edit of those images.
type ImageRequest struct {
	Model       string
	Prompt      string
	AspectRatio string
	References  []InlineImage
}

// VideoRequest asks for one long-running video generation operation.
type VideoRequest struct {
	Model           string
	Prompt          string
	AspectRatio     string
	Resolution      string
	DurationSeconds int
	Reference       *InlineImage
}

// RemoteVideo is a provider-hosted generated video.
type RemoteVideo struct {
	URI      string
	MimeType string
}

// OperationState is the polled state of a long-running operation.
type OperationState struct {
	Done         bool
	Video        *RemoteVideo
	ErrorMessage string
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts,omitempty"`
}

type geminiImageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type geminiGenerationConfig struct {
	ResponseModalities []string           `json:"responseModalities,omitempty"`
	ImageConfig        *geminiImageConfig `json:"imageConfig,omitempty"`
}

type generateContentRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type videoInstance struct {
	Prompt string            `json:"prompt"`
	Image  *geminiInlineData `json:"image,omitempty"`
}

type videoParameters struct {
	AspectRatio     string `json:"aspectRatio,omitempty"`
	Resolution      string `json:"resolution,omitempty"`
	DurationSeconds int    `json:"durationSeconds,omitempty"`
}

type predictLongRunningRequest struct {
	Instances  []videoInstance `json:"instances"`
	Parameters videoParameters `json:"parameters"`
}

type operationResponse struct {
	Name     string `json:"name"`
	Done     bool   `json:"done"`
	Response *struct {
		GenerateVideoResponse struct {
			GeneratedSamples []struct {
				Video struct {
					URI      string `json:"uri"`
					MimeType string `json:"mimeType"`
				} `json:"video"`
			} `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
	} `json:"response,omitempty"`
	Error *apiErrorBody `json:"error,omitempty"`
}

type apiErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

type errorEnvelope struct {
	Error *apiErrorBody `json:"error"`
}

// GenerateImages runs one synchronous image generation or edit call and
// returns the inline image parts of the first candidate.
func (c *Client) GenerateImages(ctx context.Context, req ImageRequest) ([]InlineImage, error) {
	parts := make([]geminiPart, 0, len(req.References)+1)
	for _, ref := range req.References {
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{
			MimeType: ref.MimeType,
			Data:     base64.StdEncoding.EncodeToString(ref.Data),
		}})
	}
	parts = append(parts, geminiPart{Text: req.Prompt})

	payload := generateContentRequest{
		Contents: []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: &geminiGenerationConfig{
			ResponseModalities: []string{"IMAGE"},
			ImageConfig:        &geminiImageConfig{AspectRatio: req.AspectRatio},
		},
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, req.Model)
	var resp generateContentResponse
	if err := c.post(ctx, endpoint, payload, &resp); err != nil {
		return nil, err
	}
	if len(resp.Candidates) == 0 {
		return nil, &APIError{Message: "no candidates returned"}
	}

	var images []InlineImage
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData == nil {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
		if err != nil {
			return nil, fmt.Errorf("genai: decode inline image: %w", err)
		}
		images = append(images, InlineImage{MimeType: part.InlineData.MimeType, Data: data})
	}
	if len(images) == 0 {
		return nil, &APIError{Message: "response contained no image data"}
	}
	return images, nil
}

// StartVideoGeneration submits a long-running video operation and returns
// its operation name for polling.
func (c *Client) StartVideoGeneration(ctx context.Context, req VideoRequest) (string, error) {
	instance := videoInstance{Prompt: req.Prompt}
	if req.Reference != nil {
		instance.Image = &geminiInlineData{
			MimeType: req.Reference.MimeType,
			Data:     base64.StdEncoding.EncodeToString(req.Reference.Data),
		}
	}
	payload := predictLongRunningRequest{
		Instances: []videoInstance{instance},
		Parameters: videoParameters{
			AspectRatio:     req.AspectRatio,
			Resolution:      req.Resolution,
			DurationSeconds: req.DurationSeconds,
		},
	}

	endpoint := fmt.Sprintf("%s/models/%s:predictLongRunning", c.baseURL, req.Model)
	var resp operationResponse
	if err := c.post(ctx, endpoint, payload, &resp); err != nil {
		return "", err
	}
	if resp.Name == "" {
		return "", &APIError{Message: "submission returned no operation name"}
	}
	return resp.Name, nil
}

// GetOperation polls a long-running operation by name.
func (c *Client) GetOperation(ctx context.Context, name string) (*OperationState, error) {
	endpoint := c.baseURL + "/" + strings.TrimLeft(name, "/")
	var resp operationResponse
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return nil, err
	}

	state := &OperationState{Done: resp.Done}
	if resp.Error != nil {
		state.ErrorMessage = resp.Error.Message
		return state, nil
	}
	if resp.Response != nil {
		samples := resp.Response.GenerateVideoResponse.GeneratedSamples
		if len(samples) > 0 {
			state.Video = &RemoteVideo{
				URI:      samples[0].Video.URI,
				MimeType: samples[0].Video.MimeType,
			}
		}
	}
	if state.Done && state.Video == nil && state.ErrorMessage == "" {
		state.ErrorMessage = "operation finished without a video sample"
	}
	return state, nil
}

// DownloadFile fetches a provider-hosted file, returning its bytes and
// content type.
func (c *Client) DownloadFile(ctx context.Context, uri string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", c.decodeError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	mediaType := resp.Header.Get("Content-Type")
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	return data, mediaType, nil
}

func (c *Client) post(ctx context.Context, endpoint string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(body)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("x-goog-api-key", c.apiKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return c.decodeError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) decodeError(resp *http.Response) error {
	apiErr := &APIError{HTTPStatus: resp.StatusCode, Message: resp.Status}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apiErr
	}
	var envelope errorEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error != nil {
		apiErr.Status = envelope.Error.Status
		apiErr.Message = envelope.Error.Message
	}
	return apiErr
}
