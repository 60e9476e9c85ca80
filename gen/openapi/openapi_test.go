package openapi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSpec(t *testing.T) {
	data, err := GetSpec()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "3.0.3", doc["openapi"])
	assert.Contains(t, string(data), "MiddlemanService")
}

func TestMustGetSpec(t *testing.T) {
	assert.NotPanics(t, func() { MustGetSpec() })
}

func TestPaths(t *testing.T) {
	paths, err := Paths()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/middleman.v1.MiddlemanService/Balance",
		"/middleman.v1.MiddlemanService/Export",
		"/middleman.v1.MiddlemanService/Profits",
		"/middleman.v1.MiddlemanService/Solve",
		"/middleman.v1.MiddlemanService/Validate",
	}, paths)
}
