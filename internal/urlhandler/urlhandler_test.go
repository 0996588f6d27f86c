package urlhandler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name     string
		inputURL string
		expected string
		wantErr  bool
	}{
		{name: "absolute", inputURL: "https://example.com/page", expected: "https://example.com/page"},
		{name: "adds scheme", inputURL: "shop.example.com/cart", expected: "http://shop.example.com/cart"},
		{name: "lowercases host", inputURL: "HTTPS://Shop.Example.COM/Cart", expected: "https://shop.example.com/Cart"},
		{name: "drops fragment", inputURL: " https://example.com/page#section ", expected: "https://example.com/page"},
		{name: "keeps port", inputURL: "localhost:8000/", expected: "http://localhost:8000/"},
		{name: "empty", inputURL: "  ", wantErr: true},
		{name: "relative path", inputURL: "/relative", wantErr: true},
		{name: "broken scheme", inputURL: "://broken", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeURL(tt.inputURL)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestValidateURLFormat(t *testing.T) {
	assert.NoError(t, ValidateURLFormat("http://127.0.0.1:8000"))
	assert.NoError(t, ValidateURLFormat("https://example.com/base/"))
	assert.Error(t, ValidateURLFormat(""))
	assert.Error(t, ValidateURLFormat("/just/a/path"))
	assert.Error(t, ValidateURLFormat("ftp://example.com"))
	assert.Error(t, ValidateURLFormat("not a url"))
}
