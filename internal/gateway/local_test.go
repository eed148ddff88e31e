package gateway

import (
	"context"
	"github.com/Borislavv/go-ash-urlcache/config"
	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
	"time"
)

func newLocal() (*Local, *clock.Mock) {
	clk := clock.NewMock()
	clk.Set(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))
	return NewLocal("http://localhost:8080/storage/v1/", "journal-images", "s3cret", clk), clk
}

// TestLocal_SignVerify round-trips an object key through a signed URL.
func TestLocal_SignVerify(t *testing.T) {
	l, _ := newLocal()

	url, err := l.Sign(context.Background(), "user 1/e1.jpg", 24*time.Hour)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "http://localhost:8080/storage/v1/object/sign/journal-images/user%201/e1.jpg?token="))

	key, err := l.Verify(url)
	require.NoError(t, err)
	require.Equal(t, "user 1/e1.jpg", key)
}

// TestLocal_Verify_Expired rejects a URL past its validity.
func TestLocal_Verify_Expired(t *testing.T) {
	l, clk := newLocal()

	url, err := l.Sign(context.Background(), "e1.jpg", time.Hour)
	require.NoError(t, err)

	clk.Add(59 * time.Minute)
	_, err = l.Verify(url)
	require.NoError(t, err)

	clk.Add(2 * time.Minute)
	_, err = l.Verify(url)
	require.ErrorIs(t, err, ErrInvalidToken)
}

// TestLocal_Verify_Tampered rejects a token reused for another key or signed with another secret.
func TestLocal_Verify_Tampered(t *testing.T) {
	l, clk := newLocal()

	url, err := l.Sign(context.Background(), "e1.jpg", time.Hour)
	require.NoError(t, err)

	_, err = l.Verify(strings.Replace(url, "e1.jpg", "e2.jpg", 1))
	require.ErrorIs(t, err, ErrInvalidToken)

	other := NewLocal("http://localhost:8080/storage/v1", "journal-images", "other", clk)
	_, err = other.Verify(url)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = l.Verify("http://localhost:8080/storage/v1/object/sign/journal-images/e1.jpg")
	require.ErrorIs(t, err, ErrInvalidToken)
}

// TestLocal_Sign_Errors rejects an empty key and a cancelled context.
func TestLocal_Sign_Errors(t *testing.T) {
	l, _ := newLocal()

	_, err := l.Sign(context.Background(), "", time.Hour)
	require.ErrorIs(t, err, ErrEmptyKey)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Sign(ctx, "e1.jpg", time.Hour)
	require.ErrorIs(t, err, context.Canceled)
}

// TestSignerFunc adapts a plain function.
func TestSignerFunc(t *testing.T) {
	var s Signer = SignerFunc(func(_ context.Context, key string, d time.Duration) (string, error) {
		return key + "?" + d.String(), nil
	})
	url, err := s.Sign(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	require.Equal(t, "k?1m0s", url)
}

// TestNew selects the signer by kind.
func TestNew(t *testing.T) {
	s, err := New(config.GatewayCfg{Kind: config.GatewayStorage, Endpoint: "http://x", Bucket: "b"})
	require.NoError(t, err)
	require.IsType(t, &Storage{}, s)

	s, err = New(config.GatewayCfg{Kind: config.GatewayLocal, Secret: "s", Bucket: "b"})
	require.NoError(t, err)
	require.IsType(t, &Local{}, s)

	_, err = New(config.GatewayCfg{Kind: config.GatewayLocal})
	require.Error(t, err)
	_, err = New(config.GatewayCfg{Kind: "ftp"})
	require.Error(t, err)
}
