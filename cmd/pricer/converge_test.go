package main

import (
	"testing"

	"github.com/alejandrodnm/crrpricer/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStepsRange(t *testing.T) {
	cfg := config.ConvergenceConfig{FromSteps: 10, ToSteps: 200, Window: 20}

	from, to, err := parseStepsRange("5:50", cfg)
	require.NoError(t, err)
	assert.Equal(t, 5, from)
	assert.Equal(t, 50, to)

	from, to, err = parseStepsRange("config", cfg)
	require.NoError(t, err)
	assert.Equal(t, 10, from)
	assert.Equal(t, 200, to)

	for _, bad := range []string{"50", "a:10", "10:b", ""} {
		_, _, err := parseStepsRange(bad, cfg)
		assert.Error(t, err, bad)
	}
}
