package enrich

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeminiClient_RequiresAPIKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestPassthrough(t *testing.T) {
	var c Client = Passthrough{}

	out, err := c.Condense(context.Background(), "anything", "  raw context  ")
	require.NoError(t, err)
	assert.Equal(t, "raw context", out)

	assert.NoError(t, c.Close())
}
