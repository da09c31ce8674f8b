package sysinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFits(t *testing.T) {
	ok, avail, err := Fits(1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Greater(t, avail, uint64(0))

	ok, _, err = Fits(^uint64(0))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHumanBytes(t *testing.T) {
	assert.Equal(t, "512 B", HumanBytes(512))
	assert.Equal(t, "1.5 KiB", HumanBytes(1536))
	assert.Equal(t, "2.0 GiB", HumanBytes(2<<30))
}
