package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name   string
		config LoggerConfig
		check  func(t *testing.T, output string)
	}{
		{
			name: "JSON output with info level",
			config: LoggerConfig{
				Level: "info",
			},
			check: func(t *testing.T, output string) {
				var logEntry map[string]interface{}
				err := json.Unmarshal([]byte(output), &logEntry)
				require.NoError(t, err)
				assert.Equal(t, "info", logEntry["level"])
				assert.Equal(t, "test message", logEntry["message"])
				assert.Contains(t, logEntry, "time")
			},
		},
		{
			name: "With caller info",
			config: LoggerConfig{
				Level:      "info",
				CallerInfo: true,
			},
			check: func(t *testing.T, output string) {
				var logEntry map[string]interface{}
				err := json.Unmarshal([]byte(output), &logEntry)
				require.NoError(t, err)
				assert.Contains(t, logEntry, "caller")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := NewLogger(tt.config)
			logger = logger.Output(buf)

			logger.Info().Msg("test message")

			tt.check(t, strings.TrimSpace(buf.String()))
		})
	}
}

func TestInvalidLogLevelDefaultsToInfo(t *testing.T) {
	buf := &bytes.Buffer{}

	logger := NewLogger(LoggerConfig{Level: "invalid"})
	logger = logger.Output(buf)

	logger.Debug().Msg("debug message")
	logger.Info().Msg("info message")

	output := buf.String()
	assert.NotContains(t, output, "debug message")
	assert.Contains(t, output, "info message")
}

func TestWithContext(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := zerolog.New(buf).With().Timestamp().Logger()

	ctx := WithContext(context.Background(), logger)

	loggerFromCtx := FromContext(ctx)
	require.NotNil(t, loggerFromCtx)

	loggerFromCtx.Info().Msg("context test")
	assert.Contains(t, buf.String(), "context test")
}

func TestLoggerConfigs(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()
		assert.Equal(t, "info", config.Level)
		assert.False(t, config.Pretty)
	})

	t.Run("DevelopmentConfig", func(t *testing.T) {
		config := DevelopmentConfig()
		assert.Equal(t, "debug", config.Level)
		assert.True(t, config.Pretty)
	})
}
