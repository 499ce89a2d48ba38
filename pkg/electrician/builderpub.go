package electrician

// Publish-only RelayClient built from Electrician builder primitives.
// No builder.* types are stored on the struct.

import (
	"context"
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/joeydtaylor/electrician/pkg/builder"

	"github.com/joeydtaylor/steeze-social/pkg/manifest"
)

type builderClient struct {
	submit func(context.Context, []byte) error // captures wire.Submit
}

// NewBuilderRelay returns a RelayClient backed by a ForwardRelay[[]byte] that
// lives until ctx is cancelled. With no targets it returns Noop().
func NewBuilderRelay(ctx context.Context, cfg manifest.Relay) (RelayClient, error) {
	if len(cfg.Targets) == 0 {
		return Noop(), nil
	}

	useSnappy := strings.EqualFold(cfg.Compress, "snappy")
	useAESGCM := cfg.AES256Hex != ""
	var aesKey string
	if useAESGCM {
		rawKey, err := hex.DecodeString(cfg.AES256Hex)
		if err != nil || len(rawKey) != 32 {
			return nil, fmt.Errorf("relay: aes256_key_hex must be 64 hex chars (32 bytes)")
		}
		aesKey = string(rawKey)
	}

	logger := builder.NewLogger(builder.LoggerWithDevelopment(false))
	wire := builder.NewWire[[]byte](ctx, builder.WireWithLogger[[]byte](logger))

	perf := builder.NewPerformanceOptions(useSnappy, builder.COMPRESS_SNAPPY)
	sec := builder.NewSecurityOptions(useAESGCM, builder.ENCRYPTION_AES_GCM)
	tlsCfg := builder.NewTlsClientConfig(
		cfg.TLS,
		cfg.ClientCert, cfg.ClientKey, cfg.CA,
		tls.VersionTLS13, tls.VersionTLS13,
	)

	relay := builder.NewForwardRelay[[]byte](
		ctx,
		builder.ForwardRelayWithLogger[[]byte](logger),
		builder.ForwardRelayWithTarget[[]byte](cfg.Targets...),
		builder.ForwardRelayWithPerformanceOptions[[]byte](perf),
		builder.ForwardRelayWithSecurityOptions[[]byte](sec, aesKey),
		builder.ForwardRelayWithTLSConfig[[]byte](tlsCfg),
		builder.ForwardRelayWithStaticHeaders[[]byte](cfg.StaticHeaders),
		builder.ForwardRelayWithInput(wire),
	)

	if err := wire.Start(ctx); err != nil {
		return nil, fmt.Errorf("builder wire start: %w", err)
	}
	if err := relay.Start(ctx); err != nil {
		return nil, fmt.Errorf("builder relay start: %w", err)
	}
	return &builderClient{
		submit: func(ctx context.Context, b []byte) error { return wire.Submit(ctx, b) },
	}, nil
}

// Publish sends bytes into the wire. The topic travels inside the body.
func (c *builderClient) Publish(ctx context.Context, rr RelayRequest) error {
	if rr.Topic == "" {
		return errMissingTopic
	}
	if rr.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rr.Timeout)
		defer cancel()
	}
	return c.submit(ctx, rr.Body)
}
