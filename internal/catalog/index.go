package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const indexColumns = "catalog_id, oracle_group_id, name, set_code, collector_number, mana_cost, converted_cost, type_line, colors, rarity, language, thumbnail_url"

// UpsertIndexBatch inserts index entries with conflict-ignore semantics keyed
// on catalog_id and returns the number of rows actually inserted. Each batch
// is a single transaction; re-running the loader over the same dump is a
// no-op for rows already present.
func (s *Store) UpsertIndexBatch(ctx context.Context, entries []IndexEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin upsert tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO cards_index (`+indexColumns+`)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, entry := range entries {
		res, err := stmt.ExecContext(ctx,
			entry.CatalogID,
			nullableString(entry.OracleGroupID),
			entry.Name,
			nullableString(entry.SetCode),
			nullableString(entry.CollectorNumber),
			nullableString(entry.ManaCost),
			entry.ConvertedCost,
			nullableString(entry.TypeLine),
			nullableString(entry.Colors),
			nullableString(entry.Rarity),
			nullableString(entry.Language),
			nullableString(entry.ThumbnailURL),
		)
		if err != nil {
			return inserted, fmt.Errorf("insert index entry %s: %w", entry.CatalogID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return inserted, fmt.Errorf("rows affected: %w", err)
		}
		inserted += int(affected)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert batch: %w", err)
	}
	return inserted, nil
}

// IndexCount returns the number of printings in the search index.
func (s *Store) IndexCount(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cards_index`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count index: %w", err)
	}
	return count, nil
}

// ClearIndex removes all search index entries ahead of a rebuild.
func (s *Store) ClearIndex(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cards_index`); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}
	return nil
}

// GetIndexEntry fetches one index entry by catalog id. Returns nil when the
// id is unknown to the index.
func (s *Store) GetIndexEntry(ctx context.Context, catalogID string) (*IndexEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+indexColumns+` FROM cards_index WHERE catalog_id = ?`, catalogID)
	entry, err := scanIndexEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get index entry: %w", err)
	}
	return entry, nil
}

// Search returns index entries matching the filters plus the total match
// count. The count query reuses the exact predicate set of the page query so
// the total stays consistent with the returned rows.
func (s *Store) Search(ctx context.Context, filters Filters, limit, offset int) ([]IndexEntry, int, error) {
	where, args := buildWhere(filters.Normalize(), false)

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cards_index`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count search: %w", err)
	}

	pageArgs := append(append([]any{}, args...), limit, offset)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+indexColumns+` FROM cards_index`+where+` ORDER BY name LIMIT ? OFFSET ?`,
		pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("query search: %w", err)
	}
	defer rows.Close()

	var entries []IndexEntry
	for rows.Next() {
		entry, err := scanIndexEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, *entry)
	}
	return entries, total, rows.Err()
}

// SearchUnique groups matching printings by oracle group id and returns one
// representative per group (the lexicographically-first name) along with the
// printing count inside the filtered set. Pagination and the total apply to
// groups, not printings.
func (s *Store) SearchUnique(ctx context.Context, filters Filters, limit, offset int) ([]UniqueGroup, int, error) {
	where, args := buildWhere(filters.Normalize(), true)

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM (SELECT 1 FROM cards_index`+where+` GROUP BY oracle_group_id)`,
		args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count unique search: %w", err)
	}

	pageArgs := append(append([]any{}, args...), limit, offset)
	// MIN(name) pins the non-aggregated columns to the row holding the
	// minimum, which SQLite guarantees for single min/max aggregates.
	rows, err := s.db.QueryContext(ctx,
		`SELECT catalog_id, oracle_group_id, MIN(name) AS name, set_code, collector_number,
                mana_cost, converted_cost, type_line, colors, rarity, language, thumbnail_url,
                COUNT(*) AS version_count
         FROM cards_index`+where+`
         GROUP BY oracle_group_id
         ORDER BY name LIMIT ? OFFSET ?`,
		pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("query unique search: %w", err)
	}
	defer rows.Close()

	var groups []UniqueGroup
	for rows.Next() {
		var (
			entry        IndexEntry
			oracleGroup  sql.NullString
			setCode      sql.NullString
			collector    sql.NullString
			manaCost     sql.NullString
			converted    sql.NullInt64
			typeLine     sql.NullString
			colors       sql.NullString
			rarity       sql.NullString
			language     sql.NullString
			thumbnailURL sql.NullString
			versionCount int
		)
		if err := rows.Scan(
			&entry.CatalogID,
			&oracleGroup,
			&entry.Name,
			&setCode,
			&collector,
			&manaCost,
			&converted,
			&typeLine,
			&colors,
			&rarity,
			&language,
			&thumbnailURL,
			&versionCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan unique group: %w", err)
		}
		entry.OracleGroupID = oracleGroup.String
		entry.SetCode = setCode.String
		entry.CollectorNumber = collector.String
		entry.ManaCost = manaCost.String
		entry.ConvertedCost = int(converted.Int64)
		entry.TypeLine = typeLine.String
		entry.Colors = colors.String
		entry.Rarity = rarity.String
		entry.Language = language.String
		entry.ThumbnailURL = thumbnailURL.String
		groups = append(groups, UniqueGroup{Representative: entry, VersionCount: versionCount})
	}
	return groups, total, rows.Err()
}

// IndexVersions returns all printings sharing an oracle group id, ordered by
// set code then collector number.
func (s *Store) IndexVersions(ctx context.Context, oracleGroupID string) ([]IndexEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+indexColumns+` FROM cards_index WHERE oracle_group_id = ? ORDER BY set_code, collector_number`,
		oracleGroupID)
	if err != nil {
		return nil, fmt.Errorf("query versions: %w", err)
	}
	defer rows.Close()

	var entries []IndexEntry
	for rows.Next() {
		entry, err := scanIndexEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// buildWhere renders the filter predicates once for both count and page
// queries. requireGroup adds the oracle-group presence predicate used by
// unique-card searches.
func buildWhere(filters Filters, requireGroup bool) (string, []any) {
	var (
		conditions []string
		args       []any
	)
	if filters.Text != "" {
		conditions = append(conditions, "(name LIKE ? OR type_line LIKE ?)")
		pattern := "%" + filters.Text + "%"
		args = append(args, pattern, pattern)
	}
	if filters.Colors != "" {
		conditions = append(conditions, "colors LIKE ?")
		args = append(args, "%"+filters.Colors+"%")
	}
	if filters.SetCode != "" {
		conditions = append(conditions, "set_code = ?")
		args = append(args, filters.SetCode)
	}
	if filters.Rarity != "" {
		conditions = append(conditions, "rarity = ?")
		args = append(args, filters.Rarity)
	}
	if filters.TypeLine != "" {
		conditions = append(conditions, "type_line LIKE ?")
		args = append(args, "%"+filters.TypeLine+"%")
	}
	if requireGroup {
		conditions = append(conditions, "oracle_group_id IS NOT NULL")
	}
	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func scanIndexEntry(scanner interface{ Scan(dest ...any) error }) (*IndexEntry, error) {
	var (
		entry        IndexEntry
		oracleGroup  sql.NullString
		setCode      sql.NullString
		collector    sql.NullString
		manaCost     sql.NullString
		converted    sql.NullInt64
		typeLine     sql.NullString
		colors       sql.NullString
		rarity       sql.NullString
		language     sql.NullString
		thumbnailURL sql.NullString
	)
	if err := scanner.Scan(
		&entry.CatalogID,
		&oracleGroup,
		&entry.Name,
		&setCode,
		&collector,
		&manaCost,
		&converted,
		&typeLine,
		&colors,
		&rarity,
		&language,
		&thumbnailURL,
	); err != nil {
		return nil, err
	}
	entry.OracleGroupID = oracleGroup.String
	entry.SetCode = setCode.String
	entry.CollectorNumber = collector.String
	entry.ConvertedCost = int(converted.Int64)
	entry.ManaCost = manaCost.String
	entry.TypeLine = typeLine.String
	entry.Colors = colors.String
	entry.Rarity = rarity.String
	entry.Language = language.String
	entry.ThumbnailURL = thumbnailURL.String
	return &entry, nil
}
