package gitobj

import "encoding/hex"

// OidLen is the length in bytes of a SHA-1 object ID, the only hash
// algorithm josh targets (the spec's upstream is always a classic SHA-1
// repository).
const OidLen = 20

// ZeroOid is the 20-byte all-zero OID the spec uses to denote "absent".
var ZeroOid = make([]byte, OidLen)

// IsZeroOid reports whether oid is the nil/absent OID.
func IsZeroOid(oid []byte) bool {
	if len(oid) != OidLen {
		return len(oid) == 0
	}
	for _, b := range oid {
		if b != 0 {
			return false
		}
	}
	return true
}

// OidString renders oid as lowercase hex, or "0000...0" for the zero OID and
// empty input alike.
func OidString(oid []byte) string {
	if len(oid) == 0 {
		return hex.EncodeToString(ZeroOid)
	}
	return hex.EncodeToString(oid)
}

// ParseOid decodes a hex string into a 20-byte OID.
func ParseOid(s string) ([]byte, error) {
	return hex.DecodeString(s)
}

// CopyOid returns a defensive copy of oid, or nil if oid is empty.
func CopyOid(oid []byte) []byte {
	if len(oid) == 0 {
		return nil
	}
	cp := make([]byte, len(oid))
	copy(cp, oid)
	return cp
}
