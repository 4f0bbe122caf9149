package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewErrorFormatsTemplate(t *testing.T) {
	req := require.New(t)

	err := NewError(ErrInfoTooLong, 100)

	req.Equal(ErrInfoTooLong, err.Code)
	req.Equal("too_long", err.Reason)
	req.Equal("Info must be at most 100 characters.", err.Message)
	req.Equal(http.StatusBadRequest, err.Status)
}

func TestNewErrorDefaultsStatusAndUnknownCode(t *testing.T) {
	req := require.New(t)

	req.Equal(http.StatusOK, NewError(ErrMessageTooLong).Status)

	unknown := NewError(424242)
	req.Equal(ErrUnknown, unknown.Code)
	req.Equal(http.StatusInternalServerError, unknown.Status)
}

func TestHasCodeAndFrom(t *testing.T) {
	req := require.New(t)

	wrapped := fmt.Errorf("purchase: %w", NewError(ErrInsufficientActivity))
	req.True(HasCode(wrapped, ErrInsufficientActivity))
	req.False(HasCode(wrapped, ErrUnknownSkin))
	req.False(HasCode(errors.New("plain"), ErrUnknown))

	req.Equal(ErrInsufficientActivity, From(wrapped).Code)
	req.Equal(ErrUnknown, From(errors.New("boom")).Code)
	req.Nil(From(nil))
}
