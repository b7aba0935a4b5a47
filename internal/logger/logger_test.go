package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"trace", LevelTrace},
		{"DEBUG", LevelDebug},
		{" info ", LevelInfo},
		{"warn", LevelWarning},
		{"WARNING", LevelWarning},
		{"error", LevelError},
		{"fatal", LevelFatal},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	got, err := ParseLevel("verbose")
	assert.Error(t, err)
	assert.Equal(t, LevelInfo, got)
}

func TestSetLevel(t *testing.T) {
	prev := GetLevel()
	t.Cleanup(func() { SetLevel(prev) })

	SetLevel(LevelError)
	assert.Equal(t, LevelError, GetLevel())
}

func TestCountersIgnoreSampling(t *testing.T) {
	SetSampleRate(1000000)
	t.Cleanup(func() { SetSampleRate(1) })

	warnings := TotalWarnings.Load()
	errs := TotalErrors.Load()
	for range 10 {
		Warn("sampled warning")
		Error("sampled error")
	}
	assert.Equal(t, warnings+10, TotalWarnings.Load())
	assert.Equal(t, errs+10, TotalErrors.Load())
}

func TestHTTPCounters(t *testing.T) {
	bad := Total400Errors.Load()
	missing := Total404Errors.Load()
	client := Total4xxErrors.Load()
	server := Total5xxErrors.Load()

	WarnHttp4xx(400)
	WarnHttp4xx(404)
	WarnHttp4xx(422)
	ErrorHttp5xx()

	assert.Equal(t, bad+1, Total400Errors.Load())
	assert.Equal(t, missing+1, Total404Errors.Load())
	assert.Equal(t, client+3, Total4xxErrors.Load())
	assert.Equal(t, server+1, Total5xxErrors.Load())
}
