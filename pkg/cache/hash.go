package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Hash returns the hex SHA-256 of data. The pipeline uses it to identify
// uploaded payloads and rendered composites by content, so the same images
// hit the same cache entries regardless of file name.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashInputs hashes an ordered list of payload hashes into one input hash.
// Order matters: the same images in a different order composite differently.
func HashInputs(hashes []string) string {
	data, _ := json.Marshal(hashes)
	return Hash(data)
}

// stageKey builds "<stage>:<sha256>" from a content hash and the settings
// that shape that stage's output.
func stageKey(stage, contentHash string, settings any) string {
	data, _ := json.Marshal([]any{contentHash, settings})
	return stage + ":" + Hash(data)
}
