package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"github.com/Borislavv/go-ash-urlcache/config"
	"github.com/tidwall/gjson"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxResponseBytes = 1 << 20

// Storage signs object keys through the sign endpoint of a storage service:
//
//	POST {endpoint}/object/sign/{bucket}/{key}  {"expiresIn": <seconds>}
//	200  {"signedURL": "/object/sign/{bucket}/{key}?token=..."}
type Storage struct {
	client   *http.Client
	endpoint string
	bucket   string
	apiKey   string
}

func NewStorage(cfg config.GatewayCfg, client *http.Client) *Storage {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Storage{
		client:   client,
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		bucket:   cfg.Bucket,
		apiKey:   cfg.APIKey,
	}
}

func (s *Storage) Sign(ctx context.Context, objectKey string, validity time.Duration) (string, error) {
	if objectKey == "" {
		return "", ErrEmptyKey
	}

	body, err := json.Marshal(struct {
		ExpiresIn int64 `json:"expiresIn"`
	}{ExpiresIn: Seconds(validity)})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+signPath(s.bucket, objectKey), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build sign request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
		req.Header.Set("apikey", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("sign request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read sign response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusNotFound || gjson.GetBytes(payload, "error").String() == "not_found" {
			return "", ErrObjectNotFound
		}
		msg := gjson.GetBytes(payload, "message").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return "", fmt.Errorf("sign request: status %d: %s", resp.StatusCode, msg)
	}

	signed := gjson.GetBytes(payload, "signedURL").String()
	if signed == "" {
		signed = gjson.GetBytes(payload, "signedUrl").String()
	}
	if signed == "" {
		return "", ErrEmptyURL
	}
	if strings.HasPrefix(signed, "http://") || strings.HasPrefix(signed, "https://") {
		return signed, nil
	}
	if !strings.HasPrefix(signed, "/") {
		signed = "/" + signed
	}
	return s.endpoint + signed, nil
}
