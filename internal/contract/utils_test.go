package contract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/careai/careai/schema"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetColorLabel(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	assert.Equal(t, "High", GetColorLabel(schema.HighTier))
	assert.Equal(t, "Medium", GetColorLabel(schema.MediumTier))
	assert.Equal(t, "Stable", GetColorLabel(schema.StableTier))
}

func TestSelectOutputFile(t *testing.T) {
	f, err := SelectOutputFile("")
	require.NoError(t, err)
	assert.Equal(t, os.Stdout, f)

	path := filepath.Join(t.TempDir(), "out.txt")
	f, err = SelectOutputFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.FileExists(t, path)
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", TruncateText("short", 10))
	assert.Equal(t, "abcd...", TruncateText("abcdefghij", 7))
	assert.Equal(t, "abcdefghij", TruncateText("abcdefghij", 3))
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"yes", "TRUE", "1"} {
		b, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.True(t, b)
	}
	for _, s := range []string{"no", "False", "0"} {
		b, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.False(t, b)
	}
	_, err := ParseBoolString("sometimes")
	assert.Error(t, err)
}

func TestYesNo(t *testing.T) {
	assert.Equal(t, "Yes", YesNo(true))
	assert.Equal(t, "No", YesNo(false))
}
