package blob

import (
	"fmt"
	"math/rand"
	"path"
	"strings"
	"time"
)

const (
	randomSuffixBound = 1_000_000_000
	fallbackStem      = "upload"
)

// Generator derives stored filenames of the form <stem>-<YYYYMMDD>-<random><ext>.
type Generator struct {
	now  func() time.Time
	intn func(n int) int
}

// NewGenerator returns a generator backed by the wall clock and math/rand.
func NewGenerator() *Generator {
	return &Generator{now: time.Now, intn: rand.Intn}
}

// Generate builds a stored name for the client-supplied filename. The stem keeps only
// [a-z0-9] (everything else becomes '_') and the original extension is preserved.
func (g *Generator) Generate(original string) string {
	base := path.Base(strings.ReplaceAll(original, `\`, "/"))
	if base == "." || base == "/" {
		base = ""
	}

	ext := sanitizeExt(path.Ext(base))
	stem := sanitizeStem(strings.TrimSuffix(base, path.Ext(base)))

	return fmt.Sprintf("%s-%s-%d%s", stem, g.now().Format("20060102"), g.intn(randomSuffixBound), ext)
}

func sanitizeStem(stem string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(stem) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return fallbackStem
	}
	return b.String()
}

// sanitizeExt keeps the extension's case but drops characters that are unsafe in a filename.
func sanitizeExt(ext string) string {
	if ext == "" {
		return ""
	}
	var b strings.Builder
	b.WriteByte('.')
	for _, r := range ext[1:] {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 1 {
		return ""
	}
	return b.String()
}

// ValidName reports whether name can be used as a flat blob key.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.ContainsRune(name, 0)
}
