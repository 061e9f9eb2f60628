package services

import (
	"fmt"

	"github.com/amirphl/tailwind-mail/utils"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// KeyGenerator produces opaque unguessable contact keys
type KeyGenerator interface {
	Generate() (string, error)
}

// NanoIDKeyGenerator draws keys from crypto/rand through nanoid's URL-safe alphabet
type NanoIDKeyGenerator struct {
	length int
}

// NewKeyGenerator creates a generator producing keys of utils.ContactKeyLength characters
func NewKeyGenerator() KeyGenerator {
	return &NanoIDKeyGenerator{length: utils.ContactKeyLength}
}

// Generate returns a fresh key
func (g *NanoIDKeyGenerator) Generate() (string, error) {
	key, err := gonanoid.New(g.length)
	if err != nil {
		return "", fmt.Errorf("generate contact key: %w", err)
	}
	return key, nil
}
