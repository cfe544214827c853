package utils

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashURL(t *testing.T) {
	a := HashURL("http://a.test")
	assert.Len(t, a, 64)
	assert.Equal(t, a, HashURL("http://a.test"))
	assert.NotEqual(t, a, HashURL("http://a.test/"))
}

func TestToAbsoluteURL(t *testing.T) {
	base, err := url.Parse("http://a.test/dir/page.html")
	require.NoError(t, err)

	tests := []struct {
		name     string
		relative string
		expected string
	}{
		{name: "sibling path", relative: "other.html", expected: "http://a.test/dir/other.html"},
		{name: "root path", relative: "/b", expected: "http://a.test/b"},
		{name: "absolute url", relative: "https://c.test/x", expected: "https://c.test/x"},
		{name: "query only", relative: "?q=1", expected: "http://a.test/dir/page.html?q=1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToAbsoluteURL(base, tt.relative)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	_, err = ToAbsoluteURL(base, "http://[::1")
	assert.Error(t, err)
}

func TestParseLaunchFlag(t *testing.T) {
	name, value, ok := ParseLaunchFlag("--proxy-server=http://p.test:8080")
	require.True(t, ok)
	assert.Equal(t, "proxy-server", name)
	assert.Equal(t, "http://p.test:8080", value)

	name, value, ok = ParseLaunchFlag("--ignore-certificate-errors")
	require.True(t, ok)
	assert.Equal(t, "ignore-certificate-errors", name)
	assert.Empty(t, value)

	_, _, ok = ParseLaunchFlag("headless")
	assert.False(t, ok)
	_, _, ok = ParseLaunchFlag("--")
	assert.False(t, ok)
}
