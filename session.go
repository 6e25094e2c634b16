package sbsship

import (
	"crypto/rand"
	"fmt"
)

// newSessionID mints a random version 4 UUID. The sink groups events by
// session, so each shipper instance gets exactly one for its lifetime.
func newSessionID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand failing is unrecoverable for any practical purpose
		panic(err)
	}

	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80

	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}
