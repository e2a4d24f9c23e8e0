package license

const maskPrefixLen = 20

// MaskToken hides most of a token for listings and logs. Long tokens keep
// their first 20 characters, shorter ones at most half of theirs.
func MaskToken(token string) string {
	r := []rune(token)
	if len(r) > maskPrefixLen {
		return string(r[:maskPrefixLen]) + "..."
	}
	return string(r[:len(r)/2]) + "..."
}
