package httpc

import (
	"crypto/tls"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/loykin/bizmsg/internal/common"
)

// Options controls how New builds a resty client.
type Options struct {
	// Timeout bounds the whole exchange (connect, headers, body). Zero means no limit.
	Timeout time.Duration
	// Insecure skips server certificate verification.
	Insecure bool
	// MinTLSVersion and MaxTLSVersion accept forms such as "1.2", "tls13".
	MinTLSVersion string
	MaxTLSVersion string
	// Logger receives resty's own diagnostics. Defaults to the global logger.
	Logger *common.Logger
}

// ParseTLSVersion converts a TLS version string to the corresponding crypto/tls constant.
// Supports "1.2", "12", "tls1.2", "tls12" and so on. Returns 0 if unrecognized.
func ParseTLSVersion(version string) uint16 {
	switch strings.TrimSpace(strings.ToLower(version)) {
	case "1.0", "10", "tls1.0", "tls10":
		return tls.VersionTLS10
	case "1.1", "11", "tls1.1", "tls11":
		return tls.VersionTLS11
	case "1.2", "12", "tls1.2", "tls12":
		return tls.VersionTLS12
	case "1.3", "13", "tls1.3", "tls13":
		return tls.VersionTLS13
	default:
		return 0
	}
}

// TLSConfig returns the TLS settings implied by the options, or nil when the
// transport defaults should be left alone.
func (o Options) TLSConfig() *tls.Config {
	minV := ParseTLSVersion(o.MinTLSVersion)
	maxV := ParseTLSVersion(o.MaxTLSVersion)
	if !o.Insecure && minV == 0 && maxV == 0 {
		return nil
	}
	cfg := &tls.Config{
		MinVersion:         minV,
		MaxVersion:         maxV,
		InsecureSkipVerify: o.Insecure, // #nosec G402 -- explicit opt-in via client.insecure
	}
	if cfg.MinVersion == 0 {
		cfg.MinVersion = tls.VersionTLS12
	}
	return cfg
}

// New returns a resty.Client configured according to opts.
func New(opts Options) *resty.Client {
	logger := opts.Logger
	if logger == nil {
		logger = common.GetLogger()
	}
	c := resty.New().
		SetLogger(logger.WithComponent("resty")).
		SetTimeout(opts.Timeout)
	if cfg := opts.TLSConfig(); cfg != nil {
		c.SetTLSClientConfig(cfg)
	}
	return c
}
