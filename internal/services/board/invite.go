package board

import (
	"crypto/rand"
	"fmt"
)

// MaxInviteAttempts bounds how many codes are generated before giving up.
const MaxInviteAttempts = 5

const inviteAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// inviteCutoff is the largest multiple of the alphabet size that fits in a byte;
// bytes at or above it are rejected so every character is equally likely.
const inviteCutoff = 256 - 256%len(inviteAlphabet)

// randomInviteCode returns n characters drawn uniformly from inviteAlphabet.
func randomInviteCode(n int) (string, error) {
	code := make([]byte, 0, n)
	buf := make([]byte, n+n/2)
	for len(code) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= inviteCutoff {
				continue
			}
			code = append(code, inviteAlphabet[int(b)%len(inviteAlphabet)])
			if len(code) == n {
				break
			}
		}
	}
	return string(code), nil
}
