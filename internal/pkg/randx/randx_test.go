package randx

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestLoginCodeShape(t *testing.T) {
	req := require.New(t)

	for range 50 {
		code, err := LoginCode()
		req.NoError(err)
		req.Len(code, LoginCodeLength)
		req.True(IsValidLoginCode(code), code)
	}
}

func TestNormalizeLoginCode(t *testing.T) {
	req := require.New(t)

	req.Equal("AB12CD", NormalizeLoginCode("  ab12cd\n"))
	req.True(IsValidLoginCode(NormalizeLoginCode(" ab12cd ")))
	req.False(IsValidLoginCode("ab12cd"))
	req.False(IsValidLoginCode("AB12C"))
	req.False(IsValidLoginCode("AB12C!"))
}

func TestConnectionIDIsUUID(t *testing.T) {
	req := require.New(t)

	a, b := ConnectionID(), ConnectionID()
	req.NotEqual(a, b)

	_, err := uuid.Parse(a)
	req.NoError(err)
}
