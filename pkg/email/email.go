// Package email derives presentable names from company login addresses.
package email

import (
	"strings"
	"unicode"
)

// DisplayName turns the local part of address into a title-cased name,
// e.g. "kita.ward-office@example.jp" becomes "Kita Ward Office". Used when a
// seeded company has no display name configured.
func DisplayName(address string) string {
	local := strings.TrimSpace(address)
	if at := strings.IndexByte(local, '@'); at >= 0 {
		local = local[:at]
	}
	parts := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return "Company"
	}
	for i, p := range parts {
		parts[i] = capitalize(p)
	}
	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
