package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateRandomToken returns a crypto/rand token over an alphanumeric charset.
func GenerateRandomToken(length int) (string, error) {
	token := make([]byte, length)
	max := big.NewInt(int64(len(charset)))
	for i := range token {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		token[i] = charset[n.Int64()]
	}
	return string(token), nil
}

// DishCode renders the human code for a dish id, e.g. 7 -> PRATO007.
func DishCode(id uint) string {
	return fmt.Sprintf("PRATO%03d", id)
}
