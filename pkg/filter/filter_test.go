package filter

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestFilter(t *testing.T) {
	tests := []struct {
		name     string
		accepted []string
		rejected []string
		line     string
		expected bool
	}{
		{
			name:     "No patterns specified, everything accepted",
			line:     "anything",
			expected: true,
		},
		{
			name:     "Only accepted patterns provided, matching line",
			accepted: []string{`(?i)error`},
			line:     "ERROR: disk full",
			expected: true,
		},
		{
			name:     "Only accepted patterns provided, non-matching line",
			accepted: []string{`(?i)error`},
			line:     "request ok",
			expected: false,
		},
		{
			name:     "Only rejected patterns provided, non-matching line",
			rejected: []string{`healthcheck`},
			line:     "GET /index.html",
			expected: true,
		},
		{
			name:     "Only rejected patterns provided, matching line",
			rejected: []string{`healthcheck`},
			line:     "GET /healthcheck",
			expected: false,
		},
		{
			name:     "Both provided, matching accepted, non-matching rejected",
			accepted: []string{`(?i)error`},
			rejected: []string{`^DEBUG`},
			line:     "error: timeout",
			expected: true,
		},
		{
			name:     "Both provided, matching accepted and rejected",
			accepted: []string{`(?i)error`},
			rejected: []string{`^DEBUG`},
			line:     "DEBUG error counter reset",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(tt.accepted, tt.rejected)
			require.NoError(t, err)
			require.Equal(t, tt.expected, f.Accept(tt.line))
		})
	}
}

func TestNilFilterAcceptsEverything(t *testing.T) {
	var f *Filter
	require.True(t, f.Accept("line"))
}

func TestInvalidPattern(t *testing.T) {
	_, err := New([]string{`(`}, []string{`[`})
	require.Error(t, err)
	require.Contains(t, err.Error(), `"("`)
	require.Contains(t, err.Error(), `"["`)
}

func TestFilterFromYAML(t *testing.T) {
	doc := `
accepted:
  - "(?i)error"
rejected:
  - "ignored"
`
	var f Filter
	require.NoError(t, yaml.Unmarshal([]byte(doc), &f))
	require.NoError(t, f.Compile())

	require.True(t, f.Accept("Error in module"))
	require.False(t, f.Accept("error ignored"))
	require.False(t, f.Accept("all fine"))
}
