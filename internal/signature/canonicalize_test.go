package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	t.Run("strips punctuation and whitespace from cleaned text", func(t *testing.T) {
		cleaned, message := Canonicalize([]byte("Bachelor of Science, 2024!"))
		assert.Equal(t, "BachelorofScience2024", cleaned)
		assert.Equal(t, []byte("Bachelor of Science, 2024!"), message)
	})

	t.Run("keeps accented letters", func(t *testing.T) {
		cleaned, _ := Canonicalize([]byte("Trịnh Gia Huy — Cử nhân"))
		assert.Equal(t, "TrịnhGiaHuyCửnhân", cleaned)
	})

	t.Run("message bytes are the raw input, always", func(t *testing.T) {
		raw := []byte("  padded\n\ttext  ")
		_, message := Canonicalize(raw)
		assert.Equal(t, raw, message)
	})

	t.Run("empty input", func(t *testing.T) {
		cleaned, message := Canonicalize(nil)
		assert.Empty(t, cleaned)
		assert.Empty(t, message)
	})
}
