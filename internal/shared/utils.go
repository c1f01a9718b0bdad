// Package shared provides small utilities for handling sensitive data.
package shared

// WipeByteArray overwrites the contents of the provided byte slice with
// zeros. This is useful for removing plaintext passwords from memory after
// they have been hashed or verified.
//
// If the slice is nil, the function does nothing.
func WipeByteArray(b []byte) {
	if b == nil {
		return
	}
	for i := range b {
		b[i] = 0
	}
}
