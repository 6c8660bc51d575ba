package security

import "golang.org/x/crypto/bcrypt"

// Work factor for customer and admin password hashes. Raising it only
// affects newly stored hashes; existing rows keep verifying at the cost
// they were written with.
const bcryptCost = 12

// HashPassword derives the bcrypt hash stored for a new or changed password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
