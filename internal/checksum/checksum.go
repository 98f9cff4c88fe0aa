package checksum

import (
	"crypto/sha256"
	"fmt"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateArtifactHash генерирует SHA256 для сохранённого скриншота
// Формула: SHA256(location|sha256_hex(data))
func (g *Generator) GenerateArtifactHash(location string, data []byte) string {
	dataHash := sha256.Sum256(data)

	content := fmt.Sprintf("%s|%x", location, dataHash)

	hash := sha256.Sum256([]byte(content))

	return fmt.Sprintf("%x", hash)
}

// VerifyArtifactHash проверяет соответствие хеша
func (g *Generator) VerifyArtifactHash(expectedHash, location string, data []byte) bool {
	return g.GenerateArtifactHash(location, data) == expectedHash
}
