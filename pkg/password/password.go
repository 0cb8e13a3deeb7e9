package password

import (
	"golang.org/x/crypto/bcrypt"
)

// bcrypt cost. Anything below 10 is too cheap to resist offline brute
// force on leaked hashes.
const hashCost = 12

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
