// Package hash wraps bcrypt for password storage. bcrypt hashes are
// self-describing (cost and salt are embedded), so verification needs no
// extra state and comparison time is governed by the stored parameters.
package hash

import "golang.org/x/crypto/bcrypt"

// Password produces a salted adaptive hash of the plaintext.
func Password(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Verify reports whether plain matches the stored hash. A malformed stored
// hash verifies as false; errors never escape this boundary.
func Verify(plain, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
