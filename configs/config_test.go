package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLoad_LayersFilesAndEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
app:
  http_addr: ":8080"
mysql:
  dsn: "base-dsn"
redis:
  addr: "localhost:6379"
security:
  jwt_secret: "s3cret"
cache:
  order_ttl: 2m
`)
	writeFile(t, dir, "staging.yaml", `
mysql:
  dsn: "staging-dsn"
`)
	t.Setenv("STOCKROOM_REDIS__PASSWORD", "from-env")

	cfg, err := Load(dir, "staging")
	require.NoError(t, err)
	assert.Equal(t, "staging-dsn", cfg.MySQL.DSN)
	assert.Equal(t, "from-env", cfg.Redis.Password)
	assert.Equal(t, 2*time.Minute, cfg.Cache.OrderTTL)

	// defaults
	assert.Equal(t, "stockroom-api", cfg.App.Name)
	assert.Equal(t, 16, cfg.MySQL.MaxOpenConns)
	assert.Equal(t, "stockroom.events", cfg.Rabbit.Exchange)
	assert.Equal(t, 24*time.Hour, cfg.Idempotency.TTL)
	assert.Equal(t, "*", cfg.CORS.AllowOrigin)
}

func TestLoad_MissingEnvFileIsOptional(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
app: {http_addr: ":1"}
mysql: {dsn: "x"}
redis: {addr: "y"}
security: {jwt_secret: "z"}
`)
	_, err := Load(dir, "prod")
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	var c Config
	assert.ErrorContains(t, c.Validate(), "app.http_addr")

	c.App.HTTPAddr = ":8080"
	c.MySQL.DSN = "dsn"
	c.Redis.Addr = "redis"
	assert.ErrorContains(t, c.Validate(), "jwt_secret")

	c.Security.JWTSecret = "s"
	c.Kafka.Brokers = []string{"kafka:9092"}
	assert.ErrorContains(t, c.Validate(), "kafka.group_id")

	c.Kafka.GroupID, c.Kafka.DeliveryTopic = "g", "t"
	assert.NoError(t, c.Validate())
}
