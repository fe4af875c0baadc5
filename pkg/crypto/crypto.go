package crypto

import "golang.org/x/crypto/bcrypt"

// HashPassword returns a one-way bcrypt digest of the plaintext password.
// The digest is the only form in which passwords are ever stored or compared.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext password matches the stored digest.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
