package checksum

import (
	"testing"
)

func TestGenerateArtifactHash(t *testing.T) {
	gen := NewGenerator()

	location := "https://x.test/"
	data := []byte{0x89, 'P', 'N', 'G'}

	hash1 := gen.GenerateArtifactHash(location, data)
	hash2 := gen.GenerateArtifactHash(location, data)

	// Хеш должен быть детерминированным
	if hash1 != hash2 {
		t.Errorf("Hash not deterministic: %s != %s", hash1, hash2)
	}

	if len(hash1) != 64 {
		t.Errorf("Hash wrong length: %d, expected 64", len(hash1))
	}

	if hash3 := gen.GenerateArtifactHash("https://y.test/", data); hash1 == hash3 {
		t.Errorf("Hash should change when location changes")
	}

	if hash4 := gen.GenerateArtifactHash(location, []byte("other")); hash1 == hash4 {
		t.Errorf("Hash should change when data changes")
	}
}

func TestVerifyArtifactHash(t *testing.T) {
	gen := NewGenerator()

	location := "https://x.test/"
	data := []byte("composite")

	hash := gen.GenerateArtifactHash(location, data)

	if !gen.VerifyArtifactHash(hash, location, data) {
		t.Errorf("VerifyArtifactHash failed for correct data")
	}

	if gen.VerifyArtifactHash(hash, location, []byte("changed")) {
		t.Errorf("VerifyArtifactHash should fail for changed data")
	}
}
