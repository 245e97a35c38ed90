package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"pulse-chat/internal/logger"
	"pulse-chat/internal/models"
)

// Turn is one prior exchange entry sent as conversation history.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TextRequest is the plain JSON prompt shape.
type TextRequest struct {
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
	History     []Turn  `json:"history,omitempty"`
}

// FileRequest is the multipart shape for file-augmented prompts.
type FileRequest struct {
	Prompt      string
	Temperature float64
	FileName    string
	FileType    string
	Payload     []byte
}

// ImageRequest is the image-generation shape.
type ImageRequest struct {
	Prompt  string `json:"prompt"`
	Size    string `json:"size,omitempty"`
	Quality string `json:"quality,omitempty"`
	Style   string `json:"style,omitempty"`
	N       int    `json:"n,omitempty"`
}

// TextResponse is a successful text generation.
type TextResponse struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}

// ImageResponse is a successful image generation. Providers return either
// a URL or an inline image reference; URL wins when both are set.
type ImageResponse struct {
	ImageURL string `json:"image_url"`
	Image    string `json:"image"`
}

// Ref returns the usable image reference.
func (r *ImageResponse) Ref() string {
	if r.ImageURL != "" {
		return r.ImageURL
	}
	return r.Image
}

// Generator is the boundary contract of the generation provider gateway.
// Any non-success HTTP response is a uniform generation failure.
type Generator interface {
	GenerateText(ctx context.Context, provider models.Provider, req TextRequest) (*TextResponse, error)
	GenerateWithFile(ctx context.Context, provider models.Provider, req FileRequest) (*TextResponse, error)
	GenerateImage(ctx context.Context, req ImageRequest) (*ImageResponse, error)
}

// Client talks to the per-provider generation endpoints over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ Generator = (*Client)(nil)

// NewClient creates a gateway client. A nil httpClient falls back to
// http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// GenerateText posts the JSON shape to the provider's standard endpoint.
func (c *Client) GenerateText(ctx context.Context, provider models.Provider, reqBody TextRequest) (*TextResponse, error) {
	logger.Log.WithFields(logrus.Fields{
		"provider":      provider,
		"history_turns": len(reqBody.History),
	}).Info("Calling generation gateway")

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/generate", c.baseURL, provider)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.doText(req)
}

// GenerateWithFile posts the multipart shape, carrying the raw file payload,
// to the provider's file-capable endpoint variant.
func (c *Client) GenerateWithFile(ctx context.Context, provider models.Provider, reqBody FileRequest) (*TextResponse, error) {
	logger.Log.WithFields(logrus.Fields{
		"provider":  provider,
		"file_name": reqBody.FileName,
		"file_size": len(reqBody.Payload),
	}).Info("Calling generation gateway with file")

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("prompt", reqBody.Prompt); err != nil {
		return nil, fmt.Errorf("error writing prompt field: %w", err)
	}
	if err := writer.WriteField("temperature", strconv.FormatFloat(reqBody.Temperature, 'f', -1, 64)); err != nil {
		return nil, fmt.Errorf("error writing temperature field: %w", err)
	}
	part, err := writer.CreateFormFile("file", reqBody.FileName)
	if err != nil {
		return nil, fmt.Errorf("error creating file part: %w", err)
	}
	if _, err := part.Write(reqBody.Payload); err != nil {
		return nil, fmt.Errorf("error writing file payload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("error finalizing multipart body: %w", err)
	}

	url := fmt.Sprintf("%s/%s/generate", c.baseURL, provider)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.doText(req)
}

// GenerateImage posts the image shape to the image endpoint.
func (c *Client) GenerateImage(ctx context.Context, reqBody ImageRequest) (*ImageResponse, error) {
	logger.Log.WithField("prompt_length", len(reqBody.Prompt)).Info("Calling image generation gateway")

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/image/generate", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := readSuccess(resp)
	if err != nil {
		return nil, err
	}

	var imageResp ImageResponse
	if err := json.Unmarshal(body, &imageResp); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}
	if imageResp.Ref() == "" {
		return nil, fmt.Errorf("no image in response")
	}

	return &imageResp, nil
}

func (c *Client) doText(req *http.Request) (*TextResponse, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := readSuccess(resp)
	if err != nil {
		return nil, err
	}

	var textResp TextResponse
	if err := json.Unmarshal(body, &textResp); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}

	logger.Log.WithField("content_length", len(textResp.Text)).Debug("Extracted generated text")
	return &textResp, nil
}

// readSuccess folds every non-2xx status into one uniform failure.
func readSuccess(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(body))
	}
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}
	return body, nil
}
