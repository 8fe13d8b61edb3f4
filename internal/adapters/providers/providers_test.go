package providers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantlab/config"
)

type noopLogger struct{}

func (noopLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (noopLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (noopLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (noopLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func TestNew(t *testing.T) {
	for _, name := range Names {
		t.Run(name, func(t *testing.T) {
			provider, err := New(name, Options{Logger: noopLogger{}, Timeout: 5 * time.Second})
			require.NoError(t, err)
			assert.Equal(t, name, provider.Name())
		})
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New("quandl", Options{Logger: noopLogger{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestNew_RequiresLogger(t *testing.T) {
	_, err := New("yahoo", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required dependencies")
}

func TestFromConfig(t *testing.T) {
	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	provider, err := FromConfig(cfg, noopLogger{})
	require.NoError(t, err)
	assert.Equal(t, cfg.Provider.Name, provider.Name())
}

func TestFromConfig_MissingDependencies(t *testing.T) {
	_, err := FromConfig(nil, noopLogger{})
	require.Error(t, err)

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	_, err = FromConfig(cfg, nil)
	require.Error(t, err)
}
