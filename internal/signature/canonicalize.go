package signature

import "regexp"

// wordRunes matches letters of any script, digits, and underscore.
var wordRunes = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Canonicalize derives the normalized display string and the signable
// message from raw document bytes. The cleaned text is only for display and
// search; signatures are always computed over the unmodified raw bytes.
func Canonicalize(raw []byte) (cleanedText string, message []byte) {
	matches := wordRunes.FindAllString(string(raw), -1)
	cleaned := ""
	for _, m := range matches {
		cleaned += m
	}
	return cleaned, raw
}
