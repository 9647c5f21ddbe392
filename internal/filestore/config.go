package filestore

import (
	"fmt"

	"github.com/koustreak/dbinit/internal/errs"
)

// Provider identifies the file storage backend.
type Provider string

const (
	ProviderMinIO Provider = "minio"
)

// Config holds all settings needed to connect to a file storage backend.
type Config struct {
	Provider Provider `yaml:"provider"`

	// Endpoint is the host:port of the storage server, e.g. "localhost:9000".
	Endpoint string `yaml:"endpoint"`

	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`

	// Region is used by region-aware backends. Leave empty for MinIO.
	Region string `yaml:"region"`

	// Bucket receives the objects. It must already exist.
	Bucket string `yaml:"bucket"`
}

// DefaultConfig returns a local-dev config for MinIO.
func DefaultConfig(endpoint, accessKey, secretKey string) *Config {
	return &Config{
		Provider:  ProviderMinIO,
		Endpoint:  endpoint,
		AccessKey: accessKey,
		SecretKey: secretKey,
		UseSSL:    false,
		Bucket:    "dbinit",
	}
}

// Validate reports the first missing or unsupported setting.
func (c *Config) Validate() error {
	switch {
	case c.Provider != ProviderMinIO:
		return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("filestore: unsupported provider %q", c.Provider))
	case c.Endpoint == "":
		return errs.New(errs.ErrKindInvalidInput, "filestore: endpoint is required")
	case c.Bucket == "":
		return errs.New(errs.ErrKindInvalidInput, "filestore: bucket is required")
	}
	return nil
}
