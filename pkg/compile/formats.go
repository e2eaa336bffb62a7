package compile

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// EncodeJSON renders the export as canonical two-space-indented JSON
// with a trailing newline. Struct field order plus the compiler's
// sorting guarantees make the bytes deterministic.
func EncodeJSON(e *Export) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(e); err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeYAML renders the export as YAML for pipelines that prefer it.
func EncodeYAML(e *Export) ([]byte, error) {
	out, err := yaml.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}
	return out, nil
}

// Checksum returns the hex SHA-256 of the canonical JSON encoding,
// used by the publish history to detect unchanged exports.
func Checksum(e *Export) (string, error) {
	data, err := EncodeJSON(e)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
