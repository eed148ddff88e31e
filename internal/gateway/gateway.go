// Package gateway defines the signing gateway contract and its implementations.
// A gateway turns an object key and a validity duration into a time-limited URL.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"github.com/Borislavv/go-ash-urlcache/config"
	"time"
)

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrEmptyURL       = errors.New("gateway returned no signed url")
	ErrEmptyKey       = errors.New("empty object key")
)

// Signer mints a signed URL for objectKey valid for the given duration.
type Signer interface {
	Sign(ctx context.Context, objectKey string, validity time.Duration) (string, error)
}

// SignerFunc adapts a function to Signer.
type SignerFunc func(ctx context.Context, objectKey string, validity time.Duration) (string, error)

func (f SignerFunc) Sign(ctx context.Context, objectKey string, validity time.Duration) (string, error) {
	return f(ctx, objectKey, validity)
}

// Seconds converts a validity to the whole number of seconds sent to gateways.
func Seconds(validity time.Duration) int64 {
	secs := int64(validity / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// New builds the signer selected by cfg.Kind.
func New(cfg config.GatewayCfg) (Signer, error) {
	switch cfg.Kind {
	case config.GatewayStorage:
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("storage gateway: empty endpoint")
		}
		return NewStorage(cfg, nil), nil
	case config.GatewayLocal:
		if cfg.Secret == "" {
			return nil, fmt.Errorf("local gateway: empty secret")
		}
		return NewLocal(cfg.Endpoint, cfg.Bucket, cfg.Secret, nil), nil
	default:
		return nil, fmt.Errorf("unknown gateway kind %q", cfg.Kind)
	}
}
