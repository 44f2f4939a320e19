package utils

import (
    "crypto/rand"
    "math/big"

    "golang.org/x/crypto/bcrypt"
)

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
    b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
    if err != nil {
        return "", err
    }
    return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
    return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// passwordChars excludes visually ambiguous characters (0/O, 1/l/I) so
// a password read over the phone to a member survives the trip.
const passwordChars = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnpqrstuvwxyz23456789!@#$%"

// GeneratePassword returns a random password for a generated member
// login.  The plaintext is shown to the admin exactly once; only the
// bcrypt hash is stored.
func GeneratePassword(length int) (string, error) {
    if length <= 0 {
        length = 10
    }
    out := make([]byte, length)
    max := big.NewInt(int64(len(passwordChars)))
    for i := range out {
        n, err := rand.Int(rand.Reader, max)
        if err != nil {
            return "", err
        }
        out[i] = passwordChars[n.Int64()]
    }
    return string(out), nil
}
