package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile_Defaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
database:
  host: 127.0.0.1
  port: 3306
  dbname: storefront
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "https://api.iamport.kr", cfg.PortOne.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.PortOne.Timeout)
	assert.Equal(t, int64(50000), cfg.Order.FreeShippingThreshold)
	assert.Equal(t, int64(3000), cfg.Order.StandardShippingFee)
	assert.Equal(t, uint32(5), cfg.CircuitBreaker.ConsecutiveFailures)
	assert.Equal(t, "utf8mb4", cfg.Database.Charset)

	loc, err := cfg.Order.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoadFile_EnvOverride(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
portone:
  api_key: from-file
`)
	t.Setenv("STOREFRONT_PORTONE_API_KEY", "from-env")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.PortOne.APIKey)
}

func TestLoadFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"端口非法", "server:\n  port: 70000\n"},
		{"生产环境缺少网关密钥", "server:\n  port: 8080\n  mode: release\njwt:\n  secret: s3cret\n"},
		{"时区非法", "order:\n  timezone: Mars/Olympus\n"},
		{"MQ缺少地址", "mq:\n  enabled: true\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{User: "root", Password: "pw", Host: "db", Port: 3306, DBName: "storefront", Charset: "utf8mb4", ParseTime: true, Loc: "Asia/Seoul"}
	assert.Equal(t, "root:pw@tcp(db:3306)/storefront?charset=utf8mb4&parseTime=true&loc=Asia%2FSeoul", d.DSN())
}
