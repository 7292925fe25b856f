package adapters

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPClient(t *testing.T) {
	client, err := NewHTTPClient(3*time.Second, false)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, client.Timeout)

	client, err = NewHTTPClient(time.Second, true)
	require.NoError(t, err)
	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Contains(t, transport.TLSNextProto, "h2")
}
