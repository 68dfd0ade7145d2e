// Package privacy keeps raw client addresses out of logs and storage.
package privacy

import (
	"encoding/hex"
	"fmt"
	"net"

	"golang.org/x/crypto/blake2b"
)

// AnonymizeIP truncates an address for logging: /24 for IPv4, /48 for IPv6.
func AnonymizeIP(raw string) string {
	ip := net.ParseIP(raw)
	if ip == nil {
		return "invalid"
	}
	if v4 := ip.To4(); v4 != nil {
		return v4.Mask(net.CIDRMask(24, 32)).String()
	}
	return ip.Mask(net.CIDRMask(48, 128)).String()
}

// Pseudonymizer derives stable, non-reversible keys from client addresses
// with keyed BLAKE2b. The same address always maps to the same key for a
// given secret.
type Pseudonymizer struct {
	key []byte
}

// NewPseudonymizer builds a pseudonymizer. The secret must be 1..64 bytes.
func NewPseudonymizer(secret string) (*Pseudonymizer, error) {
	if len(secret) == 0 || len(secret) > blake2b.Size {
		return nil, fmt.Errorf("pseudonymizer secret must be between 1 and %d bytes", blake2b.Size)
	}
	return &Pseudonymizer{key: []byte(secret)}, nil
}

// Key returns the hex-encoded 128-bit keyed digest of the address.
func (p *Pseudonymizer) Key(ip string) string {
	h, err := blake2b.New(16, p.key)
	if err != nil {
		// key length is validated in NewPseudonymizer
		panic(err)
	}
	h.Write([]byte(ip))
	return hex.EncodeToString(h.Sum(nil))
}
