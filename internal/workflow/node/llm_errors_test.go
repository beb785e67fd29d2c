package node

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsResponseFormatUnsupportedError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"response_format rejected", errors.New("400: Extra inputs are not permitted: response_format"), true},
		{"json mode", errors.New("JSON mode is not supported for this model"), true},
		{"unknown parameter", errors.New("Unknown parameter: 'response.type'"), true},
		{"rate limit", errors.New("error, status code: 429, message: Requests rate limit exceeded"), false},
		{"unauthorized", errors.New("status code: 401, message: Unauthorized"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsResponseFormatUnsupportedError(tt.err))
		})
	}
}

func TestRateLimitMentioningResponseFormatIsNotRetried(t *testing.T) {
	err := errors.New("error, status code: 429, message: too many requests with response_format")
	assert.False(t, IsResponseFormatUnsupportedError(err))
}
