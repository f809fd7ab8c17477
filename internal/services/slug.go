package services

import (
	"strings"

	"github.com/gosimple/slug"
)

func init() {
	// qrIds and folder refs keep the event's original casing.
	slug.Lowercase = false
}

// slugify transliterates s (Turkish aware) and joins words with underscores:
// "Alice Wedding" becomes "Alice_Wedding", "Düğün Şöleni" becomes "Dugun_Soleni".
func slugify(s string) string {
	out := slug.MakeLang(s, "tr")
	out = strings.ReplaceAll(out, "-", "_")
	if out == "" {
		return "etkinlik"
	}
	return out
}
