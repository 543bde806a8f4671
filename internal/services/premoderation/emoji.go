package premoderation

import (
	"unicode"

	"github.com/rivo/uniseg"
)

const (
	presentationSelector = 0xFE0F
	combiningKeycap      = 0x20E3
)

// CountEmoji counts grapheme clusters that render as emoji, so a family
// sequence or a flag counts once. Symbols with a text default such as
// ★ or ✓ count only when followed by the emoji presentation selector.
func CountEmoji(text string) int {
	count := 0
	gr := uniseg.NewGraphemes(text)
	for gr.Next() {
		if isEmojiCluster(gr.Runes()) {
			count++
		}
	}
	return count
}

func isEmojiCluster(runes []rune) bool {
	if len(runes) == 0 {
		return false
	}
	base := runes[0]
	if unicode.Is(emojiPresentation, base) {
		return true
	}
	if isKeycapBase(base) {
		return len(runes) > 1 && runes[len(runes)-1] == combiningKeycap
	}
	if len(runes) > 1 && runes[1] == presentationSelector {
		return unicode.In(base, unicode.So, unicode.Sm) || base == 0x203C || base == 0x2049 || base == 0x2139 || base == 0x3030 || base == 0x303D
	}
	return false
}

func isKeycapBase(r rune) bool {
	return r == '#' || r == '*' || (r >= '0' && r <= '9')
}
