package matrix

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"golang.org/x/text/unicode/norm"
)

// Domain prefix for configuration fingerprints. The version suffix leaves
// room for changing the encoding later.
const DomainConfiguration = "tracematrix/configuration/v1"

// Fingerprint is a content hash of the selected axis values.
//
// Unlike the index tuple it does not depend on value positions, so it stays
// stable when axes are reordered or values are added to a declaration. Names
// and values are NFC normalized and hashed in name order as
// SHA256(domain 0x00 name 0x00 value 0x00 ...).
func (c Configuration) Fingerprint() string {
	values := c.Values()
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	h := sha256.New()
	h.Write([]byte(DomainConfiguration))
	h.Write([]byte{0x00})
	for _, name := range names {
		h.Write([]byte(norm.NFC.String(name)))
		h.Write([]byte{0x00})
		h.Write([]byte(norm.NFC.String(values[name])))
		h.Write([]byte{0x00})
	}
	return hex.EncodeToString(h.Sum(nil))
}
