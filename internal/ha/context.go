package ha

import (
	"hash/maphash"
	"math/bits"
	"strings"
)

// originTag is the short marker that prefixes every context ID the simulator
// creates. Kept short because context IDs are capped at 36 characters.
const originTag = "prsnc_sim"

// contextIDMaxLen is the longest context ID the recorder will store.
const contextIDMaxLen = 36

// base85Alphabet is the RFC 1924 alphabet, matching base64.b85encode.
const base85Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"abcdefghijklmnopqrstuvwxyz!#$%&()*+-;<=>?@^_`{|}~"

// nameSeed is randomized per process. Context IDs only need to correlate
// actions within a single run, so cross-run stability is not required.
var nameSeed = maphash.MakeSeed()

// encodeBase85 packs src into base-85, 4 bytes to 5 characters. A trailing
// group of n bytes is zero-padded and encoded to n+1 characters.
func encodeBase85(src []byte) string {
	if len(src) == 0 {
		return ""
	}
	out := make([]byte, 0, (len(src)+3)/4*5)
	for i := 0; i < len(src); i += 4 {
		n := len(src) - i
		if n > 4 {
			n = 4
		}
		var chunk uint32
		for j := 0; j < 4; j++ {
			chunk <<= 8
			if j < n {
				chunk |= uint32(src[i+j])
			}
		}
		var group [5]byte
		for j := 4; j >= 0; j-- {
			group[j] = base85Alphabet[chunk%85]
			chunk /= 85
		}
		out = append(out, group[:n+1]...)
	}
	return string(out)
}

// signedBytes returns the minimal little-endian two's-complement encoding of
// v: the magnitude's bit length plus one sign bit, rounded up to whole bytes.
func signedBytes(v int64) []byte {
	mag := uint64(v)
	if v < 0 {
		mag = uint64(-v)
	}
	n := (bits.Len64(mag) + 1 + 7) / 8
	u := uint64(v)
	out := make([]byte, n)
	for i := range out {
		if i < 8 {
			out[i] = byte(u >> (8 * i))
		} else if v < 0 {
			out[i] = 0xFF
		}
	}
	return out
}

// unsignedBytes returns the minimal little-endian encoding of v with no sign
// bit. Zero has a zero bit length and encodes to no bytes at all.
func unsignedBytes(v uint64) []byte {
	n := (bits.Len64(v) + 7) / 8
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(v >> (8 * i))
	}
	return out
}

// shortHash hashes s and keeps the first length base-85 characters.
func shortHash(s string, length int) string {
	h := int64(maphash.String(nameSeed, s))
	encoded := encodeBase85(signedBytes(h))
	if len(encoded) > length {
		encoded = encoded[:length]
	}
	return encoded
}

// NewContext creates a context that identifies the simulator as the
// originator of an action. The name is hashed because the full ID may not
// exceed 36 characters; the index is base-85 packed to maximize how many
// contexts fit before the ID hits the cap and truncation starts eating the
// index. An index reused after truncation can collide; that is an accepted
// trade-off, not treated as an error.
func NewContext(name, which string, index uint64, parent *Context) Context {
	id := originTag + ":" + shortHash(name, 4) + ":" + which + ":" +
		encodeBase85(unsignedBytes(index))
	if len(id) > contextIDMaxLen {
		id = id[:contextIDMaxLen]
	}
	ctx := Context{ID: id}
	if parent != nil {
		ctx.ParentID = parent.ID
	}
	return ctx
}

// IsOwnContext reports whether the simulator created ctx.
func IsOwnContext(ctx *Context) bool {
	if ctx == nil {
		return false
	}
	return strings.HasPrefix(ctx.ID, originTag)
}
