package entity

import (
	"crypto/sha256"
	"encoding/hex"
)

// fingerprintBodyPrefix is how much of the body participates in the
// fingerprint. Long enough to separate distinct posts, short enough that a
// post and its truncated ledger row fingerprint identically.
const fingerprintBodyPrefix = 200

// Fingerprint derives the content fingerprint used as the secondary dedup
// key: a hex SHA-256 over the normalized title and the first 200 bytes of
// the normalized body. Two sources reporting the same real-world post under
// different ids produce the same fingerprint; distinct posts colliding is
// not a practical concern at this key length.
func Fingerprint(title, body string) string {
	if len(body) > fingerprintBodyPrefix {
		body = body[:fingerprintBodyPrefix]
	}
	sum := sha256.Sum256([]byte(title + "\n" + body))
	return hex.EncodeToString(sum[:])
}
