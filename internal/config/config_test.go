package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestMustInit_DefaultsAndEnv(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Chdir(t.TempDir())

	t.Setenv("SHOP_SERVER_HTTP_PORT", "8080")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/shop")
	t.Setenv("SHOP_RABBITMQ_ENABLED", "true")

	MustInit()

	assert.Equal(t, "8080", viper.GetString("server.http.port"))
	assert.Equal(t, "postgres://u:p@db:5432/shop", viper.GetString("postgres.dsn"))
	assert.True(t, viper.GetBool("rabbitmq.enabled"))
	assert.Equal(t, "5001", viper.GetString("server.grpc.port"))
	assert.Equal(t, time.Second, viper.GetDuration("rabbitmq.outbox.interval"))
	assert.Equal(t, "ecommerce_db", viper.GetString("postgres.db"))
}
