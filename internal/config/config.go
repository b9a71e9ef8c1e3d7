// Package config loads the bizmsg settings from a YAML file and BIZMSG_*
// environment variables and turns them into the constructor inputs of the
// other packages.
package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/loykin/bizmsg/internal/authreq"
	"github.com/loykin/bizmsg/internal/common"
	"github.com/loykin/bizmsg/internal/credential"
	"github.com/loykin/bizmsg/internal/httpc"
	"github.com/loykin/bizmsg/internal/message"
	"github.com/loykin/bizmsg/internal/util"
	"github.com/spf13/viper"
)

// Log destinations accepted by logging.output.
const (
	OutputStdout = "stdout"
	OutputStderr = "stderr"
)

// EnvPrefix is prepended to every environment override, e.g. BIZMSG_SECRET.
const EnvPrefix = "BIZMSG"

type ClientConfig struct {
	Insecure      bool   `mapstructure:"insecure" yaml:"insecure"`
	MinTLSVersion string `mapstructure:"min_tls_version" yaml:"min_tls_version"`
	MaxTLSVersion string `mapstructure:"max_tls_version" yaml:"max_tls_version"`
}

type LoggingConfig struct {
	Level         string `mapstructure:"level" yaml:"level"`                   // error, warn, info, debug
	Format        string `mapstructure:"format" yaml:"format"`                 // text, json, color
	MaskSensitive *bool  `mapstructure:"mask_sensitive" yaml:"mask_sensitive"` // enable/disable sensitive data masking
	Color         *bool  `mapstructure:"color" yaml:"color"`                   // enable/disable colorized output
	Output        string `mapstructure:"output" yaml:"output"`                 // stdout, stderr
}

// CredentialConfig selects a registered credential provider for user data
// requests. It is used when no token is passed on the command line.
type CredentialConfig struct {
	// Provider type key (e.g., "static", "oauth2", "client_credentials")
	Type   string                 `mapstructure:"type" yaml:"type"`
	Config map[string]interface{} `mapstructure:"config" yaml:"config"`
}

type Config struct {
	BusinessID string `mapstructure:"business_id" yaml:"business_id"`
	CSPID      string `mapstructure:"csp_id" yaml:"csp_id"`
	// Secret is the base64 encoded HS256 key shared with the messaging server.
	Secret     string `mapstructure:"secret" yaml:"secret"`
	ServerHost string `mapstructure:"server_host" yaml:"server_host"`

	AuthTimeout    time.Duration `mapstructure:"auth_timeout" yaml:"auth_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	TokenTTL       time.Duration `mapstructure:"token_ttl" yaml:"token_ttl"`

	Credential CredentialConfig `mapstructure:"credential" yaml:"credential"`
	Client     ClientConfig     `mapstructure:"client" yaml:"client"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
}

// setDefaults registers every key so environment overrides are seen by
// Unmarshal even when the file does not mention them.
func setDefaults(v *viper.Viper) {
	v.SetDefault("business_id", "")
	v.SetDefault("csp_id", "")
	v.SetDefault("secret", "")
	v.SetDefault("server_host", "")
	v.SetDefault("auth_timeout", authreq.DefaultTimeout)
	v.SetDefault("request_timeout", message.DefaultTimeout)
	v.SetDefault("token_ttl", 5*time.Minute)
	v.SetDefault("client.insecure", false)
	v.SetDefault("client.min_tls_version", "")
	v.SetDefault("client.max_tls_version", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", OutputStdout)
	v.SetDefault("credential.type", "")
}

// New returns a viper instance with defaults and BIZMSG_* env binding.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path (optional) into a fresh viper and decodes the result.
func Load(path string) (*Config, error) {
	return LoadWith(New(), path)
}

// LoadWith decodes into a Config using v, which may already carry bound
// flags. An empty path skips the file and relies on defaults and env.
func LoadWith(v *viper.Viper, path string) (*Config, error) {
	if p, ok := util.TrimEmptyCheck(path); ok {
		if info, err := os.Stat(p); err != nil {
			return nil, err
		} else if !info.Mode().IsRegular() {
			return nil, fmt.Errorf("not a regular file: %s", p)
		}
		v.SetConfigFile(p)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", p, err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	util.TrimStructFields(&c)
	return &c, nil
}

// Validate checks the settings every command relies on.
func (c *Config) Validate() error {
	if c.AuthTimeout <= 0 {
		return errors.New("auth_timeout must be positive")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request_timeout must be positive")
	}
	if c.TokenTTL < 0 {
		return errors.New("token_ttl must not be negative")
	}
	if v := c.Client.MinTLSVersion; v != "" && httpc.ParseTLSVersion(v) == 0 {
		return fmt.Errorf("client.min_tls_version: unsupported TLS version %q", v)
	}
	if v := c.Client.MaxTLSVersion; v != "" && httpc.ParseTLSVersion(v) == 0 {
		return fmt.Errorf("client.max_tls_version: unsupported TLS version %q", v)
	}
	if _, err := common.ParseLogLevel(c.Logging.Level); err != nil {
		return err
	}
	if _, err := common.ParseFormat(c.Logging.Format); err != nil {
		return err
	}
	switch util.TrimAndLower(c.Logging.Output) {
	case "", OutputStdout, OutputStderr:
	default:
		return fmt.Errorf("invalid logging output: %s (valid: stdout, stderr)", c.Logging.Output)
	}
	return nil
}

// LogWriter picks stdout or stderr according to logging.output.
func (c *Config) LogWriter(stdout, stderr io.Writer) io.Writer {
	if util.TrimAndLower(c.Logging.Output) == OutputStderr {
		return stderr
	}
	return stdout
}

// ValidateMessaging checks the settings needed to sign and post messages.
func (c *Config) ValidateMessaging() error {
	var missing []string
	if c.BusinessID == "" {
		missing = append(missing, "business_id")
	}
	if c.CSPID == "" {
		missing = append(missing, "csp_id")
	}
	if c.Secret == "" {
		missing = append(missing, "secret")
	}
	if c.ServerHost == "" {
		missing = append(missing, "server_host")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing messaging settings: %s", strings.Join(missing, ", "))
	}
	if u, err := url.Parse(c.ServerHost); err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("server_host must be an absolute URL, got %q", c.ServerHost)
	}
	return nil
}

// AuthRequest returns the settings for authreq.New.
func (c *Config) AuthRequest() authreq.Config {
	return authreq.Config{
		Timeout:       c.AuthTimeout,
		Insecure:      c.Client.Insecure,
		MinTLSVersion: c.Client.MinTLSVersion,
		MaxTLSVersion: c.Client.MaxTLSVersion,
	}
}

// Sender returns the settings for message.NewSender.
func (c *Config) Sender() message.SenderConfig {
	return message.SenderConfig{
		ServerHost:    c.ServerHost,
		Timeout:       c.RequestTimeout,
		Insecure:      c.Client.Insecure,
		MinTLSVersion: c.Client.MinTLSVersion,
		MaxTLSVersion: c.Client.MaxTLSVersion,
	}
}

// MessagingCredential builds the JWT source through the credential registry.
func (c *Config) MessagingCredential() (credential.Source, error) {
	return credential.FromSpec(credential.TypeJWT, map[string]interface{}{
		"business_id": c.BusinessID,
		"csp_id":      c.CSPID,
		"secret":      c.Secret,
		"ttl_seconds": int64(c.TokenTTL / time.Second),
	})
}

// UserDataCredential returns the source for user data requests: token when
// given, otherwise the provider configured under credential.
func (c *Config) UserDataCredential(token string) (credential.Source, error) {
	if tok, ok := util.TrimEmptyCheck(token); ok {
		return &credential.Static{Value: tok}, nil
	}
	typ, ok := util.TrimEmptyCheck(c.Credential.Type)
	if !ok {
		return nil, errors.New("no credential: pass a decrypted token or configure credential.type")
	}
	return credential.FromSpec(typ, c.Credential.Config)
}

// NewLogger builds the logger described by the logging section, writing to w.
func (c *Config) NewLogger(w io.Writer) (*common.Logger, error) {
	level, err := common.ParseLogLevel(c.Logging.Level)
	if err != nil {
		return nil, err
	}
	format, err := common.ParseFormat(c.Logging.Format)
	if err != nil {
		return nil, err
	}
	if c.Logging.Color != nil {
		if *c.Logging.Color && format == common.FormatText {
			format = common.FormatColor
		} else if !*c.Logging.Color && format == common.FormatColor {
			format = common.FormatText
		}
	}

	logger := common.NewLoggerWithWriter(w, level, format)
	maskingEnabled := true
	if c.Logging.MaskSensitive != nil {
		maskingEnabled = *c.Logging.MaskSensitive
	}
	logger.EnableMasking(maskingEnabled)
	return logger, nil
}

// SetupLogging installs the configured logger as the global default.
func (c *Config) SetupLogging(w io.Writer) (*common.Logger, error) {
	logger, err := c.NewLogger(w)
	if err != nil {
		return nil, err
	}
	common.SetDefaultLogger(logger)
	logger.Debug("logging configured",
		"level", util.TrimWithDefault(util.TrimAndLower(c.Logging.Level), "info"),
		"format", util.TrimWithDefault(util.TrimAndLower(c.Logging.Format), "text"))
	return logger, nil
}
