package catalog

import (
	"strings"
	"time"
)

// StorageReason records why a warm-tier detail row is retained.
type StorageReason string

const (
	ReasonSearchCache    StorageReason = "search_cache"
	ReasonUserCollection StorageReason = "user_collection"
	ReasonDeckUsage      StorageReason = "deck_usage"
	ReasonAdminImport    StorageReason = "admin_import"
)

var allReasons = []StorageReason{
	ReasonSearchCache,
	ReasonUserCollection,
	ReasonDeckUsage,
	ReasonAdminImport,
}

var reasonSet = func() map[StorageReason]struct{} {
	set := make(map[StorageReason]struct{}, len(allReasons))
	for _, reason := range allReasons {
		set[reason] = struct{}{}
	}
	return set
}()

// AllReasons returns the ordered list of known storage reasons.
func AllReasons() []StorageReason {
	cp := make([]StorageReason, len(allReasons))
	copy(cp, allReasons)
	return cp
}

// ParseReason converts a string into a known StorageReason.
func ParseReason(value string) (StorageReason, bool) {
	normalized := StorageReason(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := reasonSet[normalized]
	return normalized, ok
}

// Permanent reports whether rows stored for this reason survive eviction.
// Only plain search-cache rows are evictable.
func (r StorageReason) Permanent() bool {
	return r != ReasonSearchCache
}

// IndexEntry is a lightweight card summary in the search index, one row per
// printing. Populated only by the bulk loader.
type IndexEntry struct {
	CatalogID       string
	OracleGroupID   string
	Name            string
	SetCode         string
	CollectorNumber string
	ManaCost        string
	ConvertedCost   int
	TypeLine        string
	Colors          string
	Rarity          string
	Language        string
	ThumbnailURL    string
}

// Card is a warm-tier detail row: the full typed fields the engine reasons
// about plus the verbatim source payload for forward compatibility.
type Card struct {
	CatalogID       string
	OracleGroupID   string
	Name            string
	SetCode         string
	SetName         string
	CollectorNumber string
	ManaCost        string
	TypeLine        string
	OracleText      string
	Power           string
	Toughness       string
	Colors          string
	ColorIdentity   string
	Rarity          string
	FlavorText      string
	Artist          string
	Language        string
	ImageURIsJSON   string
	PricesJSON      string
	LegalitiesJSON  string
	RawPayload      string
	StorageReason   StorageReason
	Permanent       bool
	CachedAt        time.Time
	LastAccessed    time.Time
}

// Filters describes search predicates over the index. Zero-valued fields are
// unset; supplied fields are ANDed. The same predicate set drives both the
// page query and the count query.
type Filters struct {
	Text     string // substring of name OR type line, case-insensitive
	Colors   string // substring of the color string
	SetCode  string // exact match, case-normalized
	Rarity   string // exact match, case-normalized
	TypeLine string // substring of type line, case-insensitive
}

// Normalize returns a copy with case conventions applied: set codes are
// stored uppercase, rarities lowercase.
func (f Filters) Normalize() Filters {
	f.Text = strings.TrimSpace(f.Text)
	f.Colors = strings.TrimSpace(f.Colors)
	f.SetCode = strings.ToUpper(strings.TrimSpace(f.SetCode))
	f.Rarity = strings.ToLower(strings.TrimSpace(f.Rarity))
	f.TypeLine = strings.TrimSpace(f.TypeLine)
	return f
}

// IsZero reports whether no predicate is set.
func (f Filters) IsZero() bool {
	return f.Text == "" && f.Colors == "" && f.SetCode == "" && f.Rarity == "" && f.TypeLine == ""
}

// UniqueGroup is one result row of a unique-card search: a representative
// printing plus the number of printings sharing its oracle group among the
// filtered rows.
type UniqueGroup struct {
	Representative IndexEntry
	VersionCount   int
}

// DatabaseHealth captures diagnostic information about the catalog database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TablesPresent    []string
	MissingTables    []string
	IntegrityCheck   bool
	IndexedCards     int
	CachedDetails    int
	Error            string
}
