package engine

import (
	"encoding/json"
	"strings"
	"time"

	"grimoire/internal/catalog"
	"grimoire/internal/scryfall"
)

// cardFromSource maps a fetched catalog payload onto a warm-tier row. New
// rows start in the evictable search-cache tier; callers refreshing an
// existing row overwrite the permanence fields afterwards.
func cardFromSource(data *scryfall.CardData, raw []byte) *catalog.Card {
	now := time.Now().UTC()
	return &catalog.Card{
		CatalogID:       strings.ToLower(data.ID),
		OracleGroupID:   data.OracleID,
		Name:            data.Name,
		SetCode:         strings.ToUpper(data.SetCode),
		SetName:         data.SetName,
		CollectorNumber: data.CollectorNumber,
		ManaCost:        data.ManaCost,
		TypeLine:        data.TypeLine,
		OracleText:      data.OracleText,
		Power:           data.Power,
		Toughness:       data.Toughness,
		Colors:          strings.Join(data.Colors, ""),
		ColorIdentity:   strings.Join(data.ColorIdentity, ""),
		Rarity:          strings.ToLower(data.Rarity),
		FlavorText:      data.FlavorText,
		Artist:          data.Artist,
		Language:        data.Language,
		ImageURIsJSON:   mapToJSON(data.ImageURIs),
		PricesJSON:      string(data.Prices),
		LegalitiesJSON:  string(data.Legalities),
		RawPayload:      string(raw),
		StorageReason:   catalog.ReasonSearchCache,
		Permanent:       false,
		CachedAt:        now,
		LastAccessed:    now,
	}
}

func mapToJSON(values map[string]string) string {
	if len(values) == 0 {
		return ""
	}
	data, err := json.Marshal(values)
	if err != nil {
		return ""
	}
	return string(data)
}
