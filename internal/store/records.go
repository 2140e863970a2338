package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shiplink/internal/archive"
)

// execer lets insert helpers run against either the pooled connection
// or an import transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// TruthPair is one hand-verified voyage-to-track assignment.
type TruthPair struct {
	VoyageID string `json:"voyage_id"`
	TrackID  string `json:"track_id"`
}

// VoyageByID returns the voyage record, or (nil, nil) when absent.
func (s *Store) VoyageByID(ctx context.Context, id string) (*archive.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, archive, name, nationality, date_from, date_to, attrs FROM voyages WHERE id = ?`, id)
	rec, err := scanDatedRecord(row, archive.TypeVoyage)
	if err != nil {
		return nil, fmt.Errorf("voyage %s: %w", id, err)
	}
	return rec, nil
}

// AllVoyages returns every voyage, ordered by id. Feeds the ship name
// search index.
func (s *Store) AllVoyages(ctx context.Context) ([]*archive.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, archive, name, nationality, date_from, date_to, attrs FROM voyages ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list voyages: %w", err)
	}
	return collectDatedRecords(rows, archive.TypeVoyage)
}

// WreckByVoyage returns the wreck record tied to a voyage, or (nil,
// nil) when the voyage did not end in a documented loss.
func (s *Store) WreckByVoyage(ctx context.Context, voyageID string) (*archive.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, archive, name, date_from, date_to, attrs FROM wrecks WHERE voyage_id = ? ORDER BY id LIMIT 1`,
		voyageID)
	rec, err := scanWreck(row)
	if err != nil {
		return nil, fmt.Errorf("wreck for voyage %s: %w", voyageID, err)
	}
	return rec, nil
}

// VesselByVoyage resolves the vessel that sailed a voyage through the
// vessel_voyages relation, or (nil, nil) when unrecorded.
func (s *Store) VesselByVoyage(ctx context.Context, voyageID string) (*archive.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT v.id, v.archive, v.name, v.nationality, v.attrs
         FROM vessels v
         JOIN vessel_voyages vv ON vv.vessel_id = v.id
         WHERE vv.voyage_id = ?
         ORDER BY v.id LIMIT 1`, voyageID)
	rec, err := scanVessel(row)
	if err != nil {
		return nil, fmt.Errorf("vessel for voyage %s: %w", voyageID, err)
	}
	return rec, nil
}

// HullProfileByType returns the hull profile for a ship type, or (nil,
// nil) for types without one.
func (s *Store) HullProfileByType(ctx context.Context, shipType string) (*archive.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, archive, ship_type, name, attrs FROM hull_profiles WHERE ship_type = ? ORDER BY id LIMIT 1`,
		shipType)
	rec, err := scanHull(row)
	if err != nil {
		return nil, fmt.Errorf("hull profile %s: %w", shipType, err)
	}
	return rec, nil
}

// TrackByCrossRef returns the logbook track whose metadata records the
// given voyage id, or (nil, nil) when no track carries the reference.
func (s *Store) TrackByCrossRef(ctx context.Context, voyageID string) (*archive.Record, error) {
	if voyageID == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, archive, name, nationality, cross_ref, date_from, date_to, attrs
         FROM tracks WHERE cross_ref = ? ORDER BY id LIMIT 1`, voyageID)
	rec, err := scanTrack(row)
	if err != nil {
		return nil, fmt.Errorf("track for voyage %s: %w", voyageID, err)
	}
	return rec, nil
}

// AllTracks returns every track, ordered by id. Feeds the fuzzy lookup
// index.
func (s *Store) AllTracks(ctx context.Context) ([]*archive.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, archive, name, nationality, cross_ref, date_from, date_to, attrs FROM tracks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}
	defer rows.Close()

	var records []*archive.Record
	for rows.Next() {
		rec, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// TrackPoints returns a track's position reports in log order.
func (s *Store) TrackPoints(ctx context.Context, trackID string) ([]archive.TrackPoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, lat, lon FROM track_points WHERE track_id = ? ORDER BY seq`, trackID)
	if err != nil {
		return nil, fmt.Errorf("points for track %s: %w", trackID, err)
	}
	defer rows.Close()

	var points []archive.TrackPoint
	for rows.Next() {
		var (
			dateRaw string
			p       archive.TrackPoint
		)
		if err := rows.Scan(&dateRaw, &p.Lat, &p.Lon); err != nil {
			return nil, fmt.Errorf("scan track point: %w", err)
		}
		if t, ok := archive.ParseDate(dateRaw); ok {
			p.Date = t
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// CrewByVoyage returns the muster roll for a voyage, ordered by id.
func (s *Store) CrewByVoyage(ctx context.Context, voyageID string) ([]*archive.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, archive, voyage_id, name, rank, origin, attrs FROM crew WHERE voyage_id = ? ORDER BY id`,
		voyageID)
	if err != nil {
		return nil, fmt.Errorf("crew for voyage %s: %w", voyageID, err)
	}
	return collectCrew(rows)
}

// AllCrew returns every crew record, ordered by id. Feeds the crew name
// search.
func (s *Store) AllCrew(ctx context.Context) ([]*archive.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, archive, voyage_id, name, rank, origin, attrs FROM crew ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list crew: %w", err)
	}
	return collectCrew(rows)
}

// GroundTruth returns the hand-verified voyage-to-track pairs.
func (s *Store) GroundTruth(ctx context.Context) ([]TruthPair, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT voyage_id, track_id FROM ground_truth ORDER BY voyage_id, track_id`)
	if err != nil {
		return nil, fmt.Errorf("list ground truth: %w", err)
	}
	defer rows.Close()

	var pairs []TruthPair
	for rows.Next() {
		var p TruthPair
		if err := rows.Scan(&p.VoyageID, &p.TrackID); err != nil {
			return nil, fmt.Errorf("scan ground truth: %w", err)
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

// InsertVoyage stores a voyage record.
func (s *Store) InsertVoyage(ctx context.Context, rec *archive.Record) error {
	return insertVoyage(ctx, s.db, rec)
}

// InsertWreck stores a wreck record tied to a voyage. An empty
// voyageID stores an unlinked wreck.
func (s *Store) InsertWreck(ctx context.Context, rec *archive.Record, voyageID string) error {
	return insertWreck(ctx, s.db, rec, voyageID)
}

// InsertVessel stores a vessel and its voyage relations.
func (s *Store) InsertVessel(ctx context.Context, rec *archive.Record, voyageIDs []string) error {
	return insertVessel(ctx, s.db, rec, voyageIDs)
}

// InsertHullProfile stores a hull profile under its ship type.
func (s *Store) InsertHullProfile(ctx context.Context, rec *archive.Record, shipType string) error {
	return insertHullProfile(ctx, s.db, rec, shipType)
}

// InsertTrack stores a track, its optional cross-reference and its
// position reports.
func (s *Store) InsertTrack(ctx context.Context, rec *archive.Record, crossRef string, points []archive.TrackPoint) error {
	return insertTrack(ctx, s.db, rec, crossRef, points)
}

// InsertCrew stores a crew record tied to a voyage. Rank and origin are
// read from the record's attributes.
func (s *Store) InsertCrew(ctx context.Context, rec *archive.Record, voyageID string) error {
	return insertCrew(ctx, s.db, rec, voyageID)
}

// AddGroundTruth records one verified voyage-to-track pair.
func (s *Store) AddGroundTruth(ctx context.Context, voyageID, trackID string) error {
	return addGroundTruth(ctx, s.db, voyageID, trackID)
}

func insertVoyage(ctx context.Context, ex execer, rec *archive.Record) error {
	attrs, err := marshalAttrs(rec.Attrs)
	if err != nil {
		return fmt.Errorf("voyage %s attrs: %w", rec.ID, err)
	}
	_, err = ex.ExecContext(ctx,
		`INSERT INTO voyages (id, archive, name, nationality, date_from, date_to, attrs)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Archive), rec.Name, rec.Nationality,
		dateColumn(rec.When.From), dateColumn(rec.When.To), attrs)
	if err != nil {
		return fmt.Errorf("insert voyage %s: %w", rec.ID, err)
	}
	return nil
}

func insertWreck(ctx context.Context, ex execer, rec *archive.Record, voyageID string) error {
	attrs, err := marshalAttrs(rec.Attrs)
	if err != nil {
		return fmt.Errorf("wreck %s attrs: %w", rec.ID, err)
	}
	_, err = ex.ExecContext(ctx,
		`INSERT INTO wrecks (id, archive, voyage_id, name, date_from, date_to, attrs)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Archive), voyageID, rec.Name,
		dateColumn(rec.When.From), dateColumn(rec.When.To), attrs)
	if err != nil {
		return fmt.Errorf("insert wreck %s: %w", rec.ID, err)
	}
	return nil
}

func insertVessel(ctx context.Context, ex execer, rec *archive.Record, voyageIDs []string) error {
	attrs, err := marshalAttrs(rec.Attrs)
	if err != nil {
		return fmt.Errorf("vessel %s attrs: %w", rec.ID, err)
	}
	_, err = ex.ExecContext(ctx,
		`INSERT INTO vessels (id, archive, name, nationality, attrs) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Archive), rec.Name, rec.Nationality, attrs)
	if err != nil {
		return fmt.Errorf("insert vessel %s: %w", rec.ID, err)
	}
	for _, voyageID := range voyageIDs {
		if _, err := ex.ExecContext(ctx,
			`INSERT INTO vessel_voyages (vessel_id, voyage_id) VALUES (?, ?)`,
			rec.ID, voyageID); err != nil {
			return fmt.Errorf("relate vessel %s to voyage %s: %w", rec.ID, voyageID, err)
		}
	}
	return nil
}

func insertHullProfile(ctx context.Context, ex execer, rec *archive.Record, shipType string) error {
	attrs, err := marshalAttrs(rec.Attrs)
	if err != nil {
		return fmt.Errorf("hull profile %s attrs: %w", rec.ID, err)
	}
	_, err = ex.ExecContext(ctx,
		`INSERT INTO hull_profiles (id, archive, ship_type, name, attrs) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Archive), shipType, rec.Name, attrs)
	if err != nil {
		return fmt.Errorf("insert hull profile %s: %w", rec.ID, err)
	}
	return nil
}

func insertTrack(ctx context.Context, ex execer, rec *archive.Record, crossRef string, points []archive.TrackPoint) error {
	attrs, err := marshalAttrs(rec.Attrs)
	if err != nil {
		return fmt.Errorf("track %s attrs: %w", rec.ID, err)
	}
	_, err = ex.ExecContext(ctx,
		`INSERT INTO tracks (id, archive, name, nationality, cross_ref, date_from, date_to, attrs)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Archive), rec.Name, rec.Nationality, crossRef,
		dateColumn(rec.When.From), dateColumn(rec.When.To), attrs)
	if err != nil {
		return fmt.Errorf("insert track %s: %w", rec.ID, err)
	}
	for i, p := range points {
		if _, err := ex.ExecContext(ctx,
			`INSERT INTO track_points (track_id, seq, date, lat, lon) VALUES (?, ?, ?, ?, ?)`,
			rec.ID, i, dateColumn(p.Date), p.Lat, p.Lon); err != nil {
			return fmt.Errorf("insert point %d of track %s: %w", i, rec.ID, err)
		}
	}
	return nil
}

func insertCrew(ctx context.Context, ex execer, rec *archive.Record, voyageID string) error {
	attrs, err := marshalAttrs(rec.Attrs)
	if err != nil {
		return fmt.Errorf("crew %s attrs: %w", rec.ID, err)
	}
	_, err = ex.ExecContext(ctx,
		`INSERT INTO crew (id, archive, voyage_id, name, rank, origin, attrs)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Archive), voyageID, rec.Name,
		rec.StringAttr("rank"), rec.StringAttr("origin"), attrs)
	if err != nil {
		return fmt.Errorf("insert crew %s: %w", rec.ID, err)
	}
	return nil
}

func addGroundTruth(ctx context.Context, ex execer, voyageID, trackID string) error {
	if _, err := ex.ExecContext(ctx,
		`INSERT INTO ground_truth (voyage_id, track_id) VALUES (?, ?)`, voyageID, trackID); err != nil {
		return fmt.Errorf("insert ground truth %s -> %s: %w", voyageID, trackID, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDatedRecord(sc scanner, typ archive.RecordType) (*archive.Record, error) {
	var (
		rec              archive.Record
		archiveTag       string
		dateFrom, dateTo string
		attrsRaw         string
	)
	err := sc.Scan(&rec.ID, &archiveTag, &rec.Name, &rec.Nationality, &dateFrom, &dateTo, &attrsRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return finishRecord(&rec, typ, archiveTag, dateFrom, dateTo, attrsRaw)
}

func scanWreck(sc scanner) (*archive.Record, error) {
	var (
		rec              archive.Record
		archiveTag       string
		dateFrom, dateTo string
		attrsRaw         string
	)
	err := sc.Scan(&rec.ID, &archiveTag, &rec.Name, &dateFrom, &dateTo, &attrsRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return finishRecord(&rec, archive.TypeWreck, archiveTag, dateFrom, dateTo, attrsRaw)
}

func scanVessel(sc scanner) (*archive.Record, error) {
	var (
		rec        archive.Record
		archiveTag string
		attrsRaw   string
	)
	err := sc.Scan(&rec.ID, &archiveTag, &rec.Name, &rec.Nationality, &attrsRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return finishRecord(&rec, archive.TypeVessel, archiveTag, "", "", attrsRaw)
}

func scanHull(sc scanner) (*archive.Record, error) {
	var (
		rec        archive.Record
		archiveTag string
		shipType   string
		attrsRaw   string
	)
	err := sc.Scan(&rec.ID, &archiveTag, &shipType, &rec.Name, &attrsRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out, ferr := finishRecord(&rec, archive.TypeHullProfile, archiveTag, "", "", attrsRaw)
	if ferr != nil {
		return nil, ferr
	}
	if out.Attrs == nil {
		out.Attrs = map[string]any{}
	}
	out.Attrs["ship_type"] = shipType
	return out, nil
}

func scanTrack(sc scanner) (*archive.Record, error) {
	var (
		rec              archive.Record
		archiveTag       string
		crossRef         string
		dateFrom, dateTo string
		attrsRaw         string
	)
	err := sc.Scan(&rec.ID, &archiveTag, &rec.Name, &rec.Nationality, &crossRef, &dateFrom, &dateTo, &attrsRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out, ferr := finishRecord(&rec, archive.TypeTrack, archiveTag, dateFrom, dateTo, attrsRaw)
	if ferr != nil {
		return nil, ferr
	}
	if crossRef != "" {
		if out.Attrs == nil {
			out.Attrs = map[string]any{}
		}
		out.Attrs["cross_ref"] = crossRef
	}
	return out, nil
}

func scanCrew(sc scanner) (*archive.Record, error) {
	var (
		rec          archive.Record
		archiveTag   string
		voyageID     string
		rank, origin string
		attrsRaw     string
	)
	err := sc.Scan(&rec.ID, &archiveTag, &voyageID, &rec.Name, &rank, &origin, &attrsRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out, ferr := finishRecord(&rec, archive.TypeCrew, archiveTag, "", "", attrsRaw)
	if ferr != nil {
		return nil, ferr
	}
	if out.Attrs == nil {
		out.Attrs = map[string]any{}
	}
	out.Attrs["voyage_id"] = voyageID
	out.Attrs["rank"] = rank
	out.Attrs["origin"] = origin
	return out, nil
}

func collectDatedRecords(rows *sql.Rows, typ archive.RecordType) ([]*archive.Record, error) {
	defer rows.Close()
	var records []*archive.Record
	for rows.Next() {
		rec, err := scanDatedRecord(rows, typ)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func collectCrew(rows *sql.Rows) ([]*archive.Record, error) {
	defer rows.Close()
	var records []*archive.Record
	for rows.Next() {
		rec, err := scanCrew(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func finishRecord(rec *archive.Record, typ archive.RecordType, archiveTag, dateFrom, dateTo, attrsRaw string) (*archive.Record, error) {
	kind, err := archive.ParseKind(archiveTag)
	if err != nil {
		return nil, err
	}
	rec.Archive = kind
	rec.Type = typ
	rec.When = archive.ParseDateSpan(dateFrom, dateTo)
	if attrsRaw != "" && attrsRaw != "{}" {
		attrs := map[string]any{}
		if err := json.Unmarshal([]byte(attrsRaw), &attrs); err != nil {
			return nil, fmt.Errorf("decode attrs of %s: %w", rec.ID, err)
		}
		rec.Attrs = attrs
	}
	return rec, nil
}

func marshalAttrs(attrs map[string]any) (string, error) {
	if len(attrs) == 0 {
		return "{}", nil
	}
	raw, err := json.Marshal(attrs)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func dateColumn(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
