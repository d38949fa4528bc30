package orchestrator

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"

	"github.com/nguyentantai21042004/caption-notes/internal/acquirer"
)

// NormalizeSource trims URLs and makes local paths absolute and clean.
func NormalizeSource(source string) string {
	source = strings.TrimSpace(source)
	if acquirer.IsURL(source) {
		return source
	}
	if abs, err := filepath.Abs(source); err == nil {
		return abs
	}
	return filepath.Clean(source)
}

// Fingerprint identifies the artifact set of a (source, model size, language) triple.
func Fingerprint(normalizedSource, modelSize, language string) string {
	h := sha256.New()
	h.Write([]byte(normalizedSource))
	h.Write([]byte{0})
	h.Write([]byte(modelSize))
	h.Write([]byte{0})
	h.Write([]byte(strings.ToLower(language)))
	return hex.EncodeToString(h.Sum(nil))[:16]
}
