package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/spec-kit/workorder-service/internal/config"
)

// BlobClient talks to the external object store. Uploads happen
// directly from clients via signed URLs; this service only deletes
// objects and issues URLs.
type BlobClient interface {
	Delete(ctx context.Context, path string) error
	SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
}

type httpBlobClient struct {
	client *resty.Client
	bucket string
}

// NewHTTPBlobClient builds a client for the storage HTTP API.
func NewHTTPBlobClient(cfg config.StorageConfig) BlobClient {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.ServiceToken).
		SetTimeout(15 * time.Second)
	return &httpBlobClient{client: client, bucket: cfg.Bucket}
}

func (c *httpBlobClient) Delete(ctx context.Context, path string) error {
	resp, err := c.client.R().
		SetContext(ctx).
		Delete(fmt.Sprintf("/object/%s/%s", c.bucket, path))
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("blob delete %s: status %d", path, resp.StatusCode())
	}
	return nil
}

func (c *httpBlobClient) SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	var out struct {
		SignedURL string `json:"signedURL"`
	}
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]any{"expiresIn": int(ttl.Seconds())}).
		SetResult(&out).
		Post(fmt.Sprintf("/object/sign/%s/%s", c.bucket, path))
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("blob sign %s: status %d", path, resp.StatusCode())
	}
	return out.SignedURL, nil
}
