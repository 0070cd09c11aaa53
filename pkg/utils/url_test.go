package utils

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostname(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"http://test.com/page", "test.com", false},
		{"https://Sub.Test2.com:8443/this/is/a/page3", "sub.test2.com", false},
		{"https://[::1]:80/x", "::1", false},
		{"/relative/path", "", true},
		{"://bad", "", true},
	}
	for _, tt := range tests {
		got, err := Hostname(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestToAbsoluteURL(t *testing.T) {
	t.Parallel()

	base, err := url.Parse("https://test.com/dir/page.html")
	require.NoError(t, err)

	got, err := ToAbsoluteURL(base, "../other")
	require.NoError(t, err)
	assert.Equal(t, "https://test.com/other", got)

	got, err = ToAbsoluteURL(base, "https://x.com/y")
	require.NoError(t, err)
	assert.Equal(t, "https://x.com/y", got)
}
