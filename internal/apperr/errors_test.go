package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimitedIsProviderUnavailable(t *testing.T) {
	err := fmt.Errorf("weatherapi: %w", ErrRateLimited)

	assert.True(t, errors.Is(err, ErrRateLimited))
	assert.True(t, errors.Is(err, ErrProviderUnavailable))
	assert.False(t, errors.Is(err, ErrInvalidAPIKey))
	assert.Equal(t, KindRateLimited, KindOf(err))
}

func TestProviderUnavailableIsNotRateLimited(t *testing.T) {
	assert.False(t, errors.Is(ErrProviderUnavailable, ErrRateLimited))
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"invalid argument", InvalidArgument("top_n must be >= 1, got %d", 0), KindInvalidArgument},
		{"location", fmt.Errorf("openweathermap: %w", ErrLocationNotFound), KindLocationNotFound},
		{"config", &ConfigError{Source: "fruits.json", Err: errors.New("bad")}, KindConfig},
		{"plain", errors.New("boom"), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestConfigErrorMessage(t *testing.T) {
	err := &ConfigError{Source: "fruits.json", Field: "Lemon.ph", Err: errors.New("out of range")}
	assert.Equal(t, "config error in fruits.json (Lemon.ph): out of range", err.Error())
	assert.ErrorContains(t, errors.Unwrap(err), "out of range")
}
