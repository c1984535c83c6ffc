package reactions

// digestSymbols is the ordered reaction vocabulary for digest items: digit
// emoji for the first ten, regional-indicator letters for the next fifteen.
var digestSymbols = []string{
	"1️⃣", "2️⃣", "3️⃣", "4️⃣", "5️⃣", "6️⃣", "7️⃣", "8️⃣", "9️⃣", "🔟",
	"🇦", "🇧", "🇨", "🇩", "🇪", "🇫", "🇬", "🇭", "🇮", "🇯",
	"🇰", "🇱", "🇲", "🇳", "🇴",
}

// MaxDigestItems is the number of items a single digest can carry
var MaxDigestItems = len(digestSymbols)

// SymbolForIndex returns the reaction symbol for a digest item index. The
// second return value is false when the index is out of range.
func SymbolForIndex(i int) (string, bool) {
	if i < 0 || i >= len(digestSymbols) {
		return "", false
	}
	return digestSymbols[i], true
}
