package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword derives the bcrypt digest stored in the credential
// column. Only this digest ever reaches the database; the cost comes
// from configuration so tests can run it cheap.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches the stored digest. A
// malformed digest simply fails the comparison, never panics.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
