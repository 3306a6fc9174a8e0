// Package filestore предоставляет клиент внешнего файлового хранилища скриншотов.
package filestore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client инкапсулирует HTTP-взаимодействие с файловым хранилищем.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт HTTP-клиент файлового хранилища по указанному адресу.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Upload загружает объект по указанному пути и возвращает его публичный URL.
func (c *Client) Upload(ctx context.Context, path, contentType string, data io.Reader) (string, error) {
	if c == nil || c.baseURL == "" {
		return "", fmt.Errorf("file storage client not configured")
	}

	base := c.baseURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	url := fmt.Sprintf("%s/objects/%s", base, strings.TrimLeft(path, "/"))

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, data)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return url, nil
}
