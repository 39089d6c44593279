package extract

import (
	"regexp"
	"strings"
)

// roomPattern matches a bounded room count (1-4) with an optional space
// before the unit token, or the literal studio unit.
var roomPattern = regexp.MustCompile(`(?i)\bstudio\b|\b[1-4]\s?bhk\b|\b[1-4]\s?b/r\b`)

// ExtractRoomConfig returns the first room configuration found in the text,
// canonicalized: the studio unit becomes "Studio", everything else has the
// internal space dropped and the unit upper-cased (e.g. "2 bhk" -> "2BHK").
// The boolean is false when nothing matches.
func ExtractRoomConfig(text string) (string, bool) {
	m := roomPattern.FindString(text)
	if m == "" {
		return "", false
	}
	if strings.EqualFold(m, "studio") {
		return "Studio", true
	}
	return strings.ToUpper(strings.ReplaceAll(m, " ", "")), true
}
