package ingestion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetadata(t *testing.T) {
	metadata := NewMetadata("Backend Engineer at Acme", "https://jobs.lever.co/acme/1")

	assert.Equal(t, "https://jobs.lever.co/acme/1", metadata.URL)
	assert.Len(t, metadata.Hash, 64)

	ts, err := time.Parse(time.RFC3339, metadata.Timestamp)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), ts, time.Minute)
}

func TestComputeHash(t *testing.T) {
	assert.Equal(t, computeHash("same"), computeHash("same"))
	assert.NotEqual(t, computeHash("one"), computeHash("two"))
	// SHA256 of the empty string
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", computeHash(""))
}
