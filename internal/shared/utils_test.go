package shared

import "testing"

func TestWipeByteArray(t *testing.T) {
	b := []byte("secret-password")
	WipeByteArray(b)
	for i, v := range b {
		if v != 0 {
			t.Fatalf("byte %d not wiped: %v", i, v)
		}
	}
}

func TestWipeByteArray_Nil(t *testing.T) {
	WipeByteArray(nil) // must not panic
}
