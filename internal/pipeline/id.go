package pipeline

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// newJobID returns a 26-character ULID: a 48-bit millisecond timestamp
// followed by 80 random bits, Crockford base32 encoded. IDs sort by
// creation time across milliseconds.
func newJobID() string {
	var b [16]byte
	ts := uint64(time.Now().UnixMilli())
	for i := 5; i >= 0; i-- {
		b[i] = byte(ts)
		ts >>= 8
	}
	rand.Read(b[6:])
	return encodeCrockford(b)
}

func encodeCrockford(b [16]byte) string {
	hi := binary.BigEndian.Uint64(b[:8])
	lo := binary.BigEndian.Uint64(b[8:])
	var out [26]byte
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = crockford[lo&31]
		lo = lo>>5 | hi<<59
		hi >>= 5
	}
	return string(out[:])
}
