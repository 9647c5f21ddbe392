package filestore

import (
	"testing"

	"github.com/koustreak/dbinit/internal/errs"
	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig("localhost:9000", "minioadmin", "minioadmin").Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"provider", func(c *Config) { c.Provider = "azure" }, "unsupported provider"},
		{"endpoint", func(c *Config) { c.Endpoint = "" }, "endpoint is required"},
		{"bucket", func(c *Config) { c.Bucket = "" }, "bucket is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig("localhost:9000", "minioadmin", "minioadmin")
			tt.mutate(cfg)
			err := cfg.Validate()
			assert.True(t, errs.IsInvalidInput(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
