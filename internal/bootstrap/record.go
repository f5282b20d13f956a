package bootstrap

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"grimoire/internal/catalog"
	"grimoire/internal/scryfall"
)

// Column widths in the index schema. Values longer than these arrive in the
// dump occasionally (promo names, odd collector numbers) and are truncated
// rather than rejected.
const (
	maxNameLen      = 255
	maxLanguageLen  = 5
	maxSetCodeLen   = 10
	maxCollectorLen = 20
	maxManaCostLen  = 50
	maxTypeLineLen  = 255
	maxColorsLen    = 10
	maxRarityLen    = 20
	maxThumbnailLen = 500
)

// Non-playable layouts excluded from the index.
var skippedLayouts = map[string]struct{}{
	"token":              {},
	"double_faced_token": {},
	"art_series":         {},
	"emblem":             {},
}

// Product set types excluded from the index.
var skippedSetTypes = map[string]struct{}{
	"memorabilia": {},
	"token":       {},
	"minigame":    {},
}

// indexEntryFromRecord converts one dump record into an index row, or reports
// false when the record is filtered out.
func indexEntryFromRecord(record scryfall.CardData) (catalog.IndexEntry, bool) {
	if record.ID == "" || record.Name == "" {
		return catalog.IndexEntry{}, false
	}
	if _, skip := skippedLayouts[record.Layout]; skip {
		return catalog.IndexEntry{}, false
	}
	if _, skip := skippedSetTypes[record.SetType]; skip {
		return catalog.IndexEntry{}, false
	}
	id, err := uuid.Parse(record.ID)
	if err != nil {
		return catalog.IndexEntry{}, false
	}

	return catalog.IndexEntry{
		CatalogID:       id.String(),
		OracleGroupID:   record.OracleID,
		Name:            truncate(record.Name, maxNameLen),
		SetCode:         truncate(strings.ToUpper(record.SetCode), maxSetCodeLen),
		CollectorNumber: truncate(record.CollectorNumber, maxCollectorLen),
		ManaCost:        truncate(record.ManaCost, maxManaCostLen),
		ConvertedCost:   int(record.ConvertedCost),
		TypeLine:        truncate(record.TypeLine, maxTypeLineLen),
		Colors:          truncate(joinColors(record.Colors), maxColorsLen),
		Rarity:          truncate(strings.ToLower(record.Rarity), maxRarityLen),
		Language:        truncate(normalizeLanguage(record.Language), maxLanguageLen),
		ThumbnailURL:    truncate(thumbnailURL(record), maxThumbnailLen),
	}, true
}

// joinColors renders a color array as a string in canonical WUBRG order.
func joinColors(colors []string) string {
	if len(colors) == 0 {
		return ""
	}
	ordered := make([]string, 0, len(colors))
	for _, want := range []string{"W", "U", "B", "R", "G"} {
		for _, symbol := range colors {
			if strings.EqualFold(symbol, want) {
				ordered = append(ordered, want)
				break
			}
		}
	}
	return strings.Join(ordered, "")
}

// normalizeLanguage canonicalizes a dump language code via BCP 47 parsing.
// Unparseable values pass through as-is; the dump uses a few non-standard
// codes (e.g. "ph") that are still worth keeping.
func normalizeLanguage(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return "en"
	}
	tag, err := language.Parse(code)
	if err != nil {
		return strings.ToLower(code)
	}
	base, conf := tag.Base()
	if conf == language.No {
		return strings.ToLower(code)
	}
	return base.String()
}

// thumbnailURL picks the small image from the record, falling back to the
// first card face for multi-faced layouts that carry no top-level images.
func thumbnailURL(record scryfall.CardData) string {
	if url := record.ImageURIs["small"]; url != "" {
		return url
	}
	for _, face := range record.CardFaces {
		if url := face.ImageURIs["small"]; url != "" {
			return url
		}
	}
	return ""
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}
