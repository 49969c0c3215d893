package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

// maxFetchSize caps the locator fetch so a misbehaving server cannot balloon
// memory.
const maxFetchSize = 32 << 20

// openaiClient implements Regenerator using the OpenAI /v1/images/variations
// API format.
type openaiClient struct {
	endpoint string
	cfg      Config
	client   *http.Client
}

func newOpenAIClient(cfg Config) *openaiClient {
	return &openaiClient{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		cfg:      cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
	}
}

// variationResponse is the JSON response from /v1/images/variations.
type variationResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

func (c *openaiClient) Regenerate(ctx context.Context, png []byte) ([]byte, error) {
	locator, err := c.requestVariation(ctx, png)
	if err != nil {
		return nil, err
	}
	return c.fetch(ctx, locator)
}

// requestVariation posts the source PNG and returns the retrieval locator.
func (c *openaiClient) requestVariation(ctx context.Context, png []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("image", "image.png")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(png); err != nil {
		return "", err
	}
	if err := mw.WriteField("n", "1"); err != nil {
		return "", err
	}
	if err := mw.WriteField("size", c.cfg.Size); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	url := c.endpoint + "/v1/images/variations"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP POST %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("HTTP %d from %s: %s", resp.StatusCode, url, string(respBody))
	}

	var result variationResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(result.Data) == 0 || result.Data[0].URL == "" {
		return "", fmt.Errorf("no image locator returned from %s", url)
	}
	return result.Data[0].URL, nil
}

// fetch retrieves the generated bytes from the locator.
func (c *openaiClient) fetch(ctx context.Context, locator string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP GET %s: %w", locator, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d fetching %s", resp.StatusCode, locator)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchSize))
	if err != nil {
		return nil, fmt.Errorf("read image from %s: %w", locator, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image from %s", locator)
	}
	c.cfg.Logger.Debug("variation fetched", "locator", locator, "bytes", len(data))
	return data, nil
}
