package password

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"math/big"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLength = 16
	keyLength  = 32
	iterations = 210000

	// MinLength is the minimum accepted password length.
	MinLength = 10

	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars  = "0123456789"
	symbolChars = "!@#$%^&*()-_=+[]{};:,.?"
)

// Hash derives a credential string from the clear-text password.
// The format is base64(salt):base64(key) so Verify can recover the salt.
func Hash(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := pbkdf2.Key([]byte(password), salt, iterations, keyLength, sha256.New)
	return base64.StdEncoding.EncodeToString(salt) + ":" + base64.StdEncoding.EncodeToString(key), nil
}

// Verify re-derives the key with the stored salt and compares in constant time.
func Verify(password, credential string) bool {
	parts := strings.SplitN(credential, ":", 2)
	if len(parts) != 2 {
		return false
	}
	salt, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}
	stored, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}
	derived := pbkdf2.Key([]byte(password), salt, iterations, keyLength, sha256.New)
	return subtle.ConstantTimeCompare(derived, stored) == 1
}

// ValidateComplexity checks the password rules in a fixed order so the
// reported reason is deterministic: length, uppercase, lowercase, digit, symbol.
func ValidateComplexity(password string) error {
	if len(password) < MinLength {
		return errors.New("password must be at least 10 characters long")
	}
	if !strings.ContainsAny(password, upperChars) {
		return errors.New("password must contain at least one uppercase letter")
	}
	if !strings.ContainsAny(password, lowerChars) {
		return errors.New("password must contain at least one lowercase letter")
	}
	if !strings.ContainsAny(password, digitChars) {
		return errors.New("password must contain at least one digit")
	}
	if !strings.ContainsAny(password, symbolChars) {
		return errors.New("password must contain at least one symbol")
	}
	return nil
}

// Generate produces a random password of the given length that always
// satisfies ValidateComplexity. Lengths below MinLength are raised to it.
func Generate(length int) (string, error) {
	if length < MinLength {
		length = MinLength
	}

	classes := []string{upperChars, lowerChars, digitChars, symbolChars}
	union := upperChars + lowerChars + digitChars + symbolChars

	chars := make([]byte, 0, length)
	for _, class := range classes {
		c, err := randomChar(class)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}
	for len(chars) < length {
		c, err := randomChar(union)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}

	// Fisher-Yates so the seeded class characters do not sit at the front.
	for i := len(chars) - 1; i > 0; i-- {
		j, err := randomInt(i + 1)
		if err != nil {
			return "", err
		}
		chars[i], chars[j] = chars[j], chars[i]
	}

	return string(chars), nil
}

func randomChar(alphabet string) (byte, error) {
	i, err := randomInt(len(alphabet))
	if err != nil {
		return 0, err
	}
	return alphabet[i], nil
}

func randomInt(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
