package gateway

import (
	"context"
	"errors"
	"fmt"
	"github.com/benbjohnson/clock"
	"github.com/golang-jwt/jwt/v5"
	"net/url"
	"strings"
	"time"
)

var ErrInvalidToken = errors.New("invalid url token")

type urlClaims struct {
	URL string `json:"url"`
	jwt.RegisteredClaims
}

// Local signs URLs itself with an HMAC secret. The produced URL has the same shape as the
// storage service's: {base}/object/sign/{bucket}/{key}?token=<jwt>.
type Local struct {
	clock  clock.Clock
	base   string
	bucket string
	secret []byte
}

func NewLocal(base, bucket, secret string, clk clock.Clock) *Local {
	if clk == nil {
		clk = clock.New()
	}
	return &Local{
		clock:  clk,
		base:   strings.TrimRight(base, "/"),
		bucket: bucket,
		secret: []byte(secret),
	}
}

func (l *Local) Sign(ctx context.Context, objectKey string, validity time.Duration) (string, error) {
	if objectKey == "" {
		return "", ErrEmptyKey
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	now := l.clock.Now()
	claims := urlClaims{
		URL: l.bucket + "/" + objectKey,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(Seconds(validity)) * time.Second)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(l.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return l.base + signPath(l.bucket, objectKey) + "?token=" + url.QueryEscape(token), nil
}

// Verify checks a URL produced by Sign and returns its object key.
// An expired or tampered URL yields an error wrapping ErrInvalidToken.
func (l *Local) Verify(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	raw := u.Query().Get("token")
	if raw == "" {
		return "", fmt.Errorf("%w: missing token", ErrInvalidToken)
	}

	claims := &urlClaims{}
	_, err = jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return l.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(l.clock.Now), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	prefix := "/object/sign/" + l.bucket + "/"
	i := strings.Index(u.Path, prefix)
	if i < 0 {
		return "", fmt.Errorf("%w: unexpected path %q", ErrInvalidToken, u.Path)
	}
	objectKey := u.Path[i+len(prefix):]
	if claims.URL != l.bucket+"/"+objectKey {
		return "", fmt.Errorf("%w: token does not match %q", ErrInvalidToken, objectKey)
	}
	return objectKey, nil
}
