package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const cardColumns = "catalog_id, oracle_group_id, name, set_code, set_name, collector_number, mana_cost, type_line, oracle_text, power, toughness, colors, color_identity, rarity, flavor_text, artist, language, image_uris_json, prices_json, legalities_json, raw_payload, storage_reason, permanent, cached_at, last_accessed"

// GetCard fetches a warm-tier detail row by catalog id. Returns nil when the
// card has not been cached.
func (s *Store) GetCard(ctx context.Context, catalogID string) (*Card, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+cardColumns+` FROM cards WHERE catalog_id = ?`, catalogID)
	card, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get card: %w", err)
	}
	return card, nil
}

// PutCard inserts or replaces a warm-tier detail row. A replace keeps the
// table keyed strictly by catalog id; force-refreshed fetches overwrite the
// previous snapshot.
func (s *Store) PutCard(ctx context.Context, card *Card) error {
	if card == nil {
		return errors.New("card is nil")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO cards (`+cardColumns+`)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		card.CatalogID,
		nullableString(card.OracleGroupID),
		card.Name,
		nullableString(card.SetCode),
		nullableString(card.SetName),
		nullableString(card.CollectorNumber),
		nullableString(card.ManaCost),
		nullableString(card.TypeLine),
		nullableString(card.OracleText),
		nullableString(card.Power),
		nullableString(card.Toughness),
		nullableString(card.Colors),
		nullableString(card.ColorIdentity),
		nullableString(card.Rarity),
		nullableString(card.FlavorText),
		nullableString(card.Artist),
		nullableString(card.Language),
		nullableString(card.ImageURIsJSON),
		nullableString(card.PricesJSON),
		nullableString(card.LegalitiesJSON),
		nullableString(card.RawPayload),
		string(card.StorageReason),
		boolToInt(card.Permanent),
		formatTime(card.CachedAt),
		formatTime(card.LastAccessed),
	)
	if err != nil {
		return fmt.Errorf("put card: %w", err)
	}
	return nil
}

// TouchCard bumps last_accessed on a warm-tier row.
func (s *Store) TouchCard(ctx context.Context, catalogID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE cards SET last_accessed = ? WHERE catalog_id = ?`,
		formatTime(time.Now()), catalogID)
	if err != nil {
		return fmt.Errorf("touch card: %w", err)
	}
	return nil
}

// PromoteCard marks a warm-tier row permanent for the given reason and bumps
// last_accessed. Promoting an already-permanent row overwrites the reason.
// Returns false when no warm row exists for the id.
func (s *Store) PromoteCard(ctx context.Context, catalogID string, reason StorageReason) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE cards SET storage_reason = ?, permanent = ?, last_accessed = ? WHERE catalog_id = ?`,
		string(reason), boolToInt(reason.Permanent()), formatTime(time.Now()), catalogID)
	if err != nil {
		return false, fmt.Errorf("promote card: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// DeleteCard removes a warm-tier row by catalog id (explicit invalidation).
func (s *Store) DeleteCard(ctx context.Context, catalogID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cards WHERE catalog_id = ?`, catalogID)
	if err != nil {
		return false, fmt.Errorf("delete card: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// CardCount returns the number of warm-tier detail rows.
func (s *Store) CardCount(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cards`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count cards: %w", err)
	}
	return count, nil
}

// CardVersions returns the cached detail rows sharing an oracle group id.
func (s *Store) CardVersions(ctx context.Context, oracleGroupID string) ([]*Card, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE oracle_group_id = ? ORDER BY set_code, collector_number`,
		oracleGroupID)
	if err != nil {
		return nil, fmt.Errorf("query card versions: %w", err)
	}
	defer rows.Close()

	var cards []*Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

func scanCard(scanner interface{ Scan(dest ...any) error }) (*Card, error) {
	var (
		card          Card
		oracleGroup   sql.NullString
		setCode       sql.NullString
		setName       sql.NullString
		collector     sql.NullString
		manaCost      sql.NullString
		typeLine      sql.NullString
		oracleText    sql.NullString
		power         sql.NullString
		toughness     sql.NullString
		colors        sql.NullString
		colorIdentity sql.NullString
		rarity        sql.NullString
		flavorText    sql.NullString
		artist        sql.NullString
		language      sql.NullString
		imageURIs     sql.NullString
		prices        sql.NullString
		legalities    sql.NullString
		rawPayload    sql.NullString
		reasonStr     string
		permanent     int
		cachedRaw     string
		accessedRaw   string
	)
	if err := scanner.Scan(
		&card.CatalogID,
		&oracleGroup,
		&card.Name,
		&setCode,
		&setName,
		&collector,
		&manaCost,
		&typeLine,
		&oracleText,
		&power,
		&toughness,
		&colors,
		&colorIdentity,
		&rarity,
		&flavorText,
		&artist,
		&language,
		&imageURIs,
		&prices,
		&legalities,
		&rawPayload,
		&reasonStr,
		&permanent,
		&cachedRaw,
		&accessedRaw,
	); err != nil {
		return nil, err
	}

	card.OracleGroupID = oracleGroup.String
	card.SetCode = setCode.String
	card.SetName = setName.String
	card.CollectorNumber = collector.String
	card.ManaCost = manaCost.String
	card.TypeLine = typeLine.String
	card.OracleText = oracleText.String
	card.Power = power.String
	card.Toughness = toughness.String
	card.Colors = colors.String
	card.ColorIdentity = colorIdentity.String
	card.Rarity = rarity.String
	card.FlavorText = flavorText.String
	card.Artist = artist.String
	card.Language = language.String
	card.ImageURIsJSON = imageURIs.String
	card.PricesJSON = prices.String
	card.LegalitiesJSON = legalities.String
	card.RawPayload = rawPayload.String
	card.StorageReason = StorageReason(reasonStr)
	card.Permanent = permanent != 0

	if cached, err := parseTimeString(cachedRaw); err == nil {
		card.CachedAt = cached
	}
	if accessed, err := parseTimeString(accessedRaw); err == nil {
		card.LastAccessed = accessed
	}
	return &card, nil
}
