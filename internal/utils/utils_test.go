package utils

import (
    "strings"
    "testing"

    "github.com/golang-jwt/jwt/v5"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestNewBadgeCode(t *testing.T) {
    code, err := NewBadgeCode("0042")
    require.NoError(t, err)

    parts := strings.SplitN(code, "-", 3)
    require.Len(t, parts, 3)
    assert.Equal(t, "MEM", parts[0])
    assert.Equal(t, "0042", parts[1])
    assert.Len(t, parts[2], 12)

    // Two badges for the same number must not collide.
    other, err := NewBadgeCode("0042")
    require.NoError(t, err)
    assert.NotEqual(t, code, other)
}

func TestGeneratePassword(t *testing.T) {
    pw, err := GeneratePassword(12)
    require.NoError(t, err)
    assert.Len(t, pw, 12)
    for _, r := range pw {
        assert.Contains(t, passwordChars, string(r))
    }

    // Non-positive lengths fall back to the default.
    pw, err = GeneratePassword(0)
    require.NoError(t, err)
    assert.Len(t, pw, 10)
}

func TestHashAndVerifyPassword(t *testing.T) {
    hash, err := HashPassword("s3cret!", 4)
    require.NoError(t, err)
    assert.True(t, VerifyPassword(hash, "s3cret!"))
    assert.False(t, VerifyPassword(hash, "wrong"))
}

func TestAccessTokenClaims(t *testing.T) {
    at, err := NewAccessToken("test-secret", 42, "security", 15)
    require.NoError(t, err)

    tok, err := jwt.Parse(at.Token, func(t *jwt.Token) (interface{}, error) {
        return []byte("test-secret"), nil
    })
    require.NoError(t, err)
    require.True(t, tok.Valid)

    claims, ok := tok.Claims.(jwt.MapClaims)
    require.True(t, ok)
    assert.Equal(t, float64(42), claims["sub"])
    assert.Equal(t, "security", claims["role"])
}

func TestRefreshTokenHashing(t *testing.T) {
    rt, err := NewRefreshToken(7)
    require.NoError(t, err)
    require.NotEmpty(t, rt.Raw)

    // Hashing is deterministic and never echoes the raw value.
    h1 := HashRefreshRaw(rt.Raw)
    h2 := HashRefreshRaw(rt.Raw)
    assert.Equal(t, h1, h2)
    assert.NotEqual(t, rt.Raw, h1)
    assert.Len(t, h1, 64)
}
