package datasets

import "strings"

// Sentinel is the padding and end-of-sequence delimiter item. Unused length
// slots in a tokenized sequence are filled with it, and shifted labels are
// terminated with its encoding.
const Sentinel = "."

// CharacterTokens splits raw into individual characters, drops any character
// present in drop first, and right-pads with the sentinel (or truncates to
// the leading maxLen characters) so the result has exactly maxLen items.
// Truncation is silent: content past maxLen is lost.
func CharacterTokens(raw string, maxLen int, drop string) []string {
	out := make([]string, 0, maxLen)
	for _, r := range raw {
		if len(out) == maxLen {
			break
		}
		if drop != "" && strings.ContainsRune(drop, r) {
			continue
		}
		out = append(out, string(r))
	}
	for len(out) < maxLen {
		out = append(out, Sentinel)
	}
	return out
}

// WordTokens splits raw on single spaces and reassembles a fixed-length
// sequence that alternates word and explicit single-space tokens, so joining
// the items reconstructs the original spacing. Slots past the available
// tokens are filled with the sentinel; the result always has exactly maxLen
// items.
func WordTokens(raw string, maxLen int) []string {
	var seq []string
	if raw != "" {
		for i, w := range strings.Split(raw, " ") {
			if i > 0 {
				seq = append(seq, " ")
			}
			seq = append(seq, w)
		}
	}

	out := make([]string, maxLen)
	for i := 0; i < maxLen; i++ {
		if i < len(seq) {
			out[i] = seq[i]
		} else {
			out[i] = Sentinel
		}
	}
	return out
}

// StripSentinel removes trailing sentinel items from a decoded string.
func StripSentinel(s string) string {
	return strings.TrimRight(s, Sentinel)
}
