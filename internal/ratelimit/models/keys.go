package models

import "strings"

// SanitizeKeySegment escapes delimiter characters in key segments so a
// crafted identifier cannot address another key.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// RedisGuestKeyPrefix namespaces guest quota hashes.
const RedisGuestKeyPrefix = "atelier:guest_quota:"

// RedisGuestKey returns the hash key holding one guest row.
func RedisGuestKey(ipKey string) string {
	return RedisGuestKeyPrefix + SanitizeKeySegment(ipKey)
}
