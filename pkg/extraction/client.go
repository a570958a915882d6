package extraction

import (
	"Harina-Web-Backend/domain"
	"Harina-Web-Backend/internal/utils"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultBaseURL = "http://harina:8000"
	// DefaultModel is used when a receipt has no recorded model.
	DefaultModel = "gemini/gemini-2.5-flash"
)

type (
	// ProcessResult is the payload of a successful extraction-service call.
	ProcessResult struct {
		Data         string
		Model        string
		FallbackUsed bool
		KeyType      string
	}

	// HarinaClient submits receipt images to the external OCR/LLM service
	// and returns the markup it produced.
	HarinaClient interface {
		Process(ctx context.Context, image []byte, filename, model, instructions string) (ProcessResult, error)
	}

	harinaClient struct {
		baseURL    string
		httpClient *http.Client
	}
)

func NewHarinaClient() HarinaClient {
	baseURL := utils.GetConfig("HARINA_API_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &harinaClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func mimeTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".bmp":
		return "image/bmp"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

func (c *harinaClient) Process(ctx context.Context, image []byte, filename, model, instructions string) (ProcessResult, error) {
	if model == "" {
		model = utils.GetConfig("HARINA_DEFAULT_MODEL")
	}
	if model == "" {
		model = DefaultModel
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", mimeTypeFor(filename))
	part, err := writer.CreatePart(header)
	if err != nil {
		return ProcessResult{}, err
	}
	if _, err = part.Write(image); err != nil {
		return ProcessResult{}, err
	}
	if err = writer.WriteField("model", model); err != nil {
		return ProcessResult{}, err
	}
	if err = writer.WriteField("format", "xml"); err != nil {
		return ProcessResult{}, err
	}
	if trimmed := strings.TrimSpace(instructions); trimmed != "" {
		if err = writer.WriteField("instructions", trimmed); err != nil {
			return ProcessResult{}, err
		}
	}
	if err = writer.Close(); err != nil {
		return ProcessResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/process", body)
	if err != nil {
		return ProcessResult{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("extraction service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return ProcessResult{}, &domain.ExtractionServiceError{
			Status: resp.StatusCode,
			Body:   string(bodyBytes),
		}
	}

	var payload struct {
		Success      bool   `json:"success"`
		Data         string `json:"data"`
		Format       string `json:"format"`
		Model        string `json:"model"`
		Error        string `json:"error"`
		FallbackUsed bool   `json:"fallbackUsed"`
		KeyType      string `json:"keyType"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return ProcessResult{}, fmt.Errorf("failed to decode extraction service response: %w", err)
	}

	if !payload.Success {
		return ProcessResult{}, &domain.ExtractionServiceError{
			Status: http.StatusBadGateway,
			Body:   payload.Error,
		}
	}

	return ProcessResult{
		Data:         payload.Data,
		Model:        payload.Model,
		FallbackUsed: payload.FallbackUsed,
		KeyType:      payload.KeyType,
	}, nil
}
