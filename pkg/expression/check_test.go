package expression

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relink-tools/relink/pkg/config"
)

func TestCheckFileSingleMatch(t *testing.T) {
	compiled, err := Compile([]string{
		`Ext == ".iso"`,
		`Size > 1000`,
	})
	require.NoError(t, err)

	tests := []struct {
		name  string
		file  config.File
		match bool
	}{
		{
			name:  "ext_match",
			file:  config.NewFile("/data/image.iso", 10, time.Now()),
			match: true,
		},
		{
			name:  "size_match",
			file:  config.NewFile("/data/movie.mkv", 4096, time.Now()),
			match: true,
		},
		{
			name:  "no_match",
			file:  config.NewFile("/data/notes.txt", 10, time.Now()),
			match: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, err := CheckFileSingleMatch(tt.file, compiled)
			require.NoError(t, err)
			assert.Equal(t, tt.match, match)
		})
	}
}

func TestCheckFileSingleMatchWithReason(t *testing.T) {
	compiled, err := Compile([]string{`Name == "skipme"`})
	require.NoError(t, err)

	match, reason, err := CheckFileSingleMatchWithReason(
		config.NewFile("/data/skipme", 1, time.Now()), compiled)
	require.NoError(t, err)
	assert.True(t, match)
	assert.Equal(t, `Name == "skipme"`, reason)
}

func TestCompile_InvalidExpression(t *testing.T) {
	_, err := Compile([]string{`Size >`})
	assert.Error(t, err)
}

func TestCompile_NonBooleanExpression(t *testing.T) {
	_, err := Compile([]string{`Size + 1`})
	assert.Error(t, err)
}
