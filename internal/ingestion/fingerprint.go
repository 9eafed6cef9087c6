package ingestion

import (
	"crypto/md5"
	"encoding/hex"
)

// fingerprintPrefixLen is how much of the extracted text participates in
// the fingerprint.
const fingerprintPrefixLen = 1000

// Fingerprint derives the dedup identity of a resume from its filename and
// the first 1000 characters (runes, not bytes) of its extracted text. It is
// deterministic and used only for duplicate suppression, not security.
//
// Known limitation: two distinct resumes sharing a filename and a common
// boilerplate first page (for example the same template header) collide
// and the second one is never recorded.
func Fingerprint(filename, text string) string {
	prefix := text
	// The prefix is counted in characters, not bytes, so multibyte text
	// contributes the same amount of identity as ASCII.
	if runes := []rune(prefix); len(runes) > fingerprintPrefixLen {
		prefix = string(runes[:fingerprintPrefixLen])
	}
	sum := md5.Sum([]byte(filename + ":" + prefix))
	return hex.EncodeToString(sum[:])
}
