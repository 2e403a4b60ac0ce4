package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	t.Run("DisabledWithoutEndpoint", func(t *testing.T) {
		shutdown, err := Setup("tally", "")
		require.NoError(t, err)

		assert.NoError(t, shutdown(context.Background()))
	})

	t.Run("WithEndpoint", func(t *testing.T) {
		shutdown, err := Setup("tally", "http://localhost:14268/api/traces")
		require.NoError(t, err)

		assert.NoError(t, shutdown(context.Background()))
	})
}
