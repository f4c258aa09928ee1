package blockchain

import (
	"strings"
)

// NormalizeAddress prepares an address for use as a node deduplication key.
// EVM addresses are lowercased so checksummed and plain forms collapse into one
// node; addresses of other chains are only trimmed.
func NormalizeAddress(address string) string {
	address = strings.TrimSpace(address)
	if IsEVMAddress(address) {
		return strings.ToLower(address)
	}
	return address
}

// IsEVMAddress checks for a 0x prefixed, 40 hex digit address in any case
func IsEVMAddress(address string) bool {
	if len(address) != 42 {
		return false
	}
	if !strings.HasPrefix(address, "0x") && !strings.HasPrefix(address, "0X") {
		return false
	}

	for _, char := range address[2:] {
		if !((char >= '0' && char <= '9') || (char >= 'a' && char <= 'f') || (char >= 'A' && char <= 'F')) {
			return false
		}
	}

	return true
}
