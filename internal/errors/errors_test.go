package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorMessage(t *testing.T) {
	provider := NewSearchError("Series not found!", nil)
	assert.Equal(t, "Series not found!", provider.Error())
	assert.Equal(t, "SEARCH_FAILED", provider.Code)
	assert.False(t, IsTransport(provider))

	cause := errors.New("dial tcp: connection refused")
	transport := NewSearchError("Failed to search TV series", cause)
	assert.Equal(t, "Failed to search TV series: dial tcp: connection refused", transport.Error())
	assert.True(t, IsTransport(transport))
	assert.ErrorIs(t, transport, cause)
}

func TestTypePredicates(t *testing.T) {
	cases := []struct {
		err   error
		check func(error) bool
		code  string
	}{
		{NewEmptyQueryError(), IsEmptyQueryError, "EMPTY_QUERY"},
		{NewValidationError("bad id", nil), IsValidationError, "VALIDATION_ERROR"},
		{NewNotFoundError("session", nil), IsNotFoundError, "NOT_FOUND"},
		{NewDetailError("Incorrect IMDb ID.", nil), IsDetailError, "DETAIL_FAILED"},
		{NewRecapNoContentError(), IsRecapNoContentError, "RECAP_NO_CONTENT"},
		{NewRecapTransportError(errors.New("boom")), IsRecapTransportError, "RECAP_TRANSPORT"},
	}

	for _, tc := range cases {
		wrapped := fmt.Errorf("outer: %w", tc.err)
		assert.True(t, tc.check(wrapped), tc.code)

		var appErr *AppError
		assert.True(t, errors.As(wrapped, &appErr))
		assert.Equal(t, tc.code, appErr.Code)
	}

	assert.Equal(t, ErrorType(""), TypeOf(errors.New("plain")))
	assert.Equal(t, MsgEmptyQuery, NewEmptyQueryError().Error())
	assert.Equal(t, MsgRecapNoContent, NewRecapNoContentError().Error())
}

func TestWrapError(t *testing.T) {
	assert.Nil(t, WrapError(nil, "ctx", ErrorTypeSearch))

	wrapped := WrapError(NewDetailError("Incorrect IMDb ID.", nil), "select", ErrorTypeSearch)
	assert.True(t, IsDetailError(wrapped))
	assert.Equal(t, "select: Incorrect IMDb ID.", wrapped.Error())

	plain := WrapError(errors.New("eof"), "decode", ErrorTypeRecapTransport)
	assert.True(t, IsRecapTransportError(plain))
}
