package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	// 保存原始环境变量
	originalEnvs := make(map[string]string)
	envKeys := []string{
		"TODOAPI_JWT_SECRET",
		"TODOAPI_SERVER_HOST",
		"TODOAPI_SERVER_PORT",
		"TODOAPI_JWT_ALLOW_COOKIE_AUTH",
		"TODOAPI_JWT_FORCE_COOKIE_AUTH",
		"TODOAPI_RATELIMIT_REQUESTS",
		"TODOAPI_RATELIMIT_WINDOW",
		"TODOAPI_USAGE_BATCH_SIZE",
		"TODOAPI_APIKEY_GRACE_WINDOW",
		"TODOAPI_LOG_LEVEL",
		"TODOAPI_DATABASE_TYPE",
		"TODOAPI_DATABASE_DSN",
	}

	for _, key := range envKeys {
		originalEnvs[key] = os.Getenv(key)
	}

	// 测试后恢复环境变量
	defer func() {
		for key, value := range originalEnvs {
			if value == "" {
				os.Unsetenv(key)
			} else {
				os.Setenv(key, value)
			}
		}
	}()

	clearEnv := func() {
		for _, key := range envKeys {
			os.Unsetenv(key)
		}
	}

	t.Run("加载默认配置成功", func(t *testing.T) {
		clearEnv()
		os.Setenv("TODOAPI_JWT_SECRET", "test-secret-key-for-development-32-chars-long-at-least")

		cfg, err := Load()

		assert.NoError(t, err)
		assert.NotNil(t, cfg)

		// 验证默认值
		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.False(t, cfg.Log.Development)
		assert.Equal(t, "todoapi", cfg.JWT.Issuer)
		assert.Equal(t, "todoapi-clients", cfg.JWT.Audience)
		assert.Equal(t, 24*time.Hour, cfg.JWT.AccessExpiry)
		assert.Equal(t, "auth_token", cfg.JWT.CookieName)
		assert.False(t, cfg.JWT.AllowCookieAuth)
		assert.Equal(t, "X-API-Key", cfg.APIKey.Header)
		assert.Equal(t, 24*time.Hour, cfg.APIKey.GraceWindow)
		assert.Equal(t, 100, cfg.RateLimit.Requests)
		assert.Equal(t, time.Minute, cfg.RateLimit.Window)
		assert.Equal(t, 100, cfg.Usage.BatchSize)
		assert.Equal(t, time.Minute, cfg.Usage.FlushInterval)
		assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	})

	t.Run("缺少JWT密钥时返回错误", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()

		assert.Error(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("JWT密钥过短时返回错误", func(t *testing.T) {
		clearEnv()
		os.Setenv("TODOAPI_JWT_SECRET", "too-short")

		_, err := Load()

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "at least 32 characters")
	})

	t.Run("环境变量覆盖默认值", func(t *testing.T) {
		clearEnv()
		os.Setenv("TODOAPI_JWT_SECRET", "test-secret-key-for-development-32-chars-long-at-least")
		os.Setenv("TODOAPI_SERVER_PORT", "9000")
		os.Setenv("TODOAPI_RATELIMIT_REQUESTS", "5")
		os.Setenv("TODOAPI_RATELIMIT_WINDOW", "1s")
		os.Setenv("TODOAPI_APIKEY_GRACE_WINDOW", "48h")

		cfg, err := Load()

		assert.NoError(t, err)
		assert.Equal(t, 9000, cfg.Server.Port)
		assert.Equal(t, 5, cfg.RateLimit.Requests)
		assert.Equal(t, time.Second, cfg.RateLimit.Window)
		assert.Equal(t, 48*time.Hour, cfg.APIKey.GraceWindow)
	})

	t.Run("仅Cookie模式必须先允许Cookie认证", func(t *testing.T) {
		clearEnv()
		os.Setenv("TODOAPI_JWT_SECRET", "test-secret-key-for-development-32-chars-long-at-least")
		os.Setenv("TODOAPI_JWT_FORCE_COOKIE_AUTH", "true")

		_, err := Load()

		assert.Error(t, err)
	})

	t.Run("数据库类型不合法时返回错误", func(t *testing.T) {
		clearEnv()
		os.Setenv("TODOAPI_JWT_SECRET", "test-secret-key-for-development-32-chars-long-at-least")
		os.Setenv("TODOAPI_DATABASE_TYPE", "oracle")
		os.Setenv("TODOAPI_DATABASE_DSN", "dsn")

		_, err := Load()

		assert.Error(t, err)
	})
}
