package contracts

import "strings"

// LOB is a line of business over which opportunities are generated
type LOB string

const (
	LOBData         LOB = "DATA"
	LOBVoice        LOB = "VOICE"
	LOBVAS          LOB = "VAS"
	LOBTotalNetwork LOB = "TOTAL_NETWORK"
)

// Lower returns the lowercase form used in column names and offer text
func (l LOB) Lower() string {
	return strings.ToLower(string(l))
}

// DefaultLOBs is used when no LOB is selected
func DefaultLOBs() []LOB {
	return []LOB{LOBData, LOBVoice, LOBVAS}
}

// NormalizeLOB maps free text to a LOB.
// Unrecognized or blank values collapse to DATA.
func NormalizeLOB(s string) LOB {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TOTAL_NETWORK", "TOTAL NETWORK", "TOTALNETWORK":
		return LOBTotalNetwork
	case "VOICE":
		return LOBVoice
	case "VAS":
		return LOBVAS
	default:
		return LOBData
	}
}

// NormalizeLOBs normalizes and deduplicates a selection, keeping order.
// Blank entries are skipped; an empty result falls back to DefaultLOBs.
// TOTAL_NETWORK stays a LOB of its own and is never expanded.
func NormalizeLOBs(in []string) []LOB {
	out := make([]LOB, 0, len(in))
	seen := make(map[LOB]bool)
	for _, s := range in {
		if strings.TrimSpace(s) == "" {
			continue
		}
		lob := NormalizeLOB(s)
		if seen[lob] {
			continue
		}
		seen[lob] = true
		out = append(out, lob)
	}
	if len(out) == 0 {
		return DefaultLOBs()
	}
	return out
}

// LOBStrings converts LOBs back to plain strings
func LOBStrings(lobs []LOB) []string {
	out := make([]string, len(lobs))
	for i, l := range lobs {
		out[i] = string(l)
	}
	return out
}
