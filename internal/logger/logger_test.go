package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_IsNop(t *testing.T) {
	l := New()
	require.NotNil(t, l.Log)
	assert.False(t, l.Log.Core().Enabled(zap.ErrorLevel))
}

func TestInit_Levels(t *testing.T) {
	cases := []struct {
		level string
		debug bool
	}{
		{level: "Info"},
		{level: "debug", debug: true},
		{level: "WARN"},
	}
	for _, tc := range cases {
		t.Run(tc.level, func(t *testing.T) {
			l := New()
			require.NoError(t, l.Init(tc.level))
			assert.True(t, l.Log.Core().Enabled(zap.ErrorLevel))
			assert.Equal(t, tc.debug, l.Log.Core().Enabled(zap.DebugLevel))
		})
	}
}

func TestInit_BadLevel(t *testing.T) {
	l := New()
	assert.Error(t, l.Init("loud"))
	assert.False(t, l.Log.Core().Enabled(zap.ErrorLevel))
}
