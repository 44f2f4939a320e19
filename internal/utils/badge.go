package utils

import (
    "crypto/rand"
    "encoding/hex"
    "fmt"
)

// NewBadgeCode generates the opaque code encoded in a member's QR badge.
// The format is MEM-<memberNumber>-<random>; the random suffix keeps
// codes unguessable even though member numbers are sequential.  Nothing
// in the scan path parses this format back apart; the code is only ever
// matched verbatim against the members table.
func NewBadgeCode(memberNumber string) (string, error) {
    suffix, err := randomHex(6)
    if err != nil {
        return "", err
    }
    return fmt.Sprintf("MEM-%s-%s", memberNumber, suffix), nil
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}
