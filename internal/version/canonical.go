package version

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/prompt2figma/designd/pkg/types"
)

// CanonicalJSON serializes a wireframe with keys sorted lexicographically at
// every depth and no insignificant whitespace. encoding/json sorts map keys,
// so a plain Marshal of the decoded tree is canonical.
func CanonicalJSON(wireframe types.Wireframe) ([]byte, error) {
	return json.Marshal(wireframe)
}

// ContentHash returns the lowercase-hex SHA-256 of the canonical JSON
// serialization of a wireframe.
func ContentHash(wireframe types.Wireframe) (string, error) {
	canonical, err := CanonicalJSON(wireframe)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
