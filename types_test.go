package restclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheManagementString(t *testing.T) {
	tests := []struct {
		policy   CacheManagement
		expected string
	}{
		{CacheDefault, "default"},
		{CacheOffline, "offline"},
		{CacheManagement(7), "CacheManagement(7)"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.policy.String())
	}
}

func TestCacheManagementUnmarshalText(t *testing.T) {
	var policy CacheManagement
	require.NoError(t, policy.UnmarshalText([]byte("Offline")))
	assert.Equal(t, CacheOffline, policy)

	assert.Error(t, policy.UnmarshalText([]byte("sometimes")))
}

func TestLogLevelHas(t *testing.T) {
	assert.True(t, LogAll.Has(LogRequests))
	assert.True(t, LogAll.Has(LogResponses))
	assert.False(t, LogRequests.Has(LogResponses))
	assert.False(t, LogAll.Has(LogNone))
}

func TestLogLevelUnmarshalText(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"", LogNone},
		{"none", LogNone},
		{"requests", LogRequests},
		{"responses", LogResponses},
		{"requests, responses", LogAll},
		{"all", LogAll},
	}

	for _, tt := range tests {
		var level LogLevel
		if assert.NoError(t, level.UnmarshalText([]byte(tt.input)), tt.input) {
			assert.Equal(t, tt.expected, level, tt.input)
		}
	}

	var level LogLevel
	assert.Error(t, level.UnmarshalText([]byte("requests,verbose")))
}

func TestRequestSerializerContentType(t *testing.T) {
	assert.Equal(t, "application/json", SerializerJSON.ContentType())
	assert.Equal(t, "application/x-www-form-urlencoded; charset=utf-8", SerializerFormURLEncoded.ContentType())
}

func TestSerializerUnmarshalText(t *testing.T) {
	var req RequestSerializer
	require.NoError(t, req.UnmarshalText([]byte("form")))
	assert.Equal(t, SerializerFormURLEncoded, req)
	assert.Error(t, req.UnmarshalText([]byte("xml")))

	var resp ResponseSerializer
	require.NoError(t, resp.UnmarshalText([]byte("raw")))
	assert.Equal(t, ResponseRaw, resp)
	assert.Error(t, resp.UnmarshalText([]byte("xml")))
}

func TestPtr(t *testing.T) {
	assert.Equal(t, CacheOffline, *Ptr(CacheOffline))
}
