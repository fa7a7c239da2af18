package security

import (
	"crypto/rand"
	"errors"
	"io"
)

// RandomString draws n symbols uniformly from alphabet (at most 256 symbols).
// Bytes that would bias the distribution are rejected and redrawn.
func RandomString(alphabet string, n int) (string, error) {
	if len(alphabet) == 0 || len(alphabet) > 256 {
		return "", errors.New("security: alphabet must have 1..256 symbols")
	}
	limit := 256 - 256%len(alphabet)
	out := make([]byte, 0, n)
	buf := make([]byte, n*2)
	for len(out) < n {
		if _, err := io.ReadFull(rand.Reader, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}
