package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"bloodbank/m/domain"
)

const unitColumns = `component, barcode_id, volume, date_collected, blood_type, rh_factor, hcv, syphilis, hbsag, hiv, malaria`

// UnitStore persists blood units. Queries are written with '?' placeholders
// and rebound for the active driver.
type UnitStore struct {
	db *sqlx.DB
}

func NewUnitStore(db *sqlx.DB) *UnitStore {
	return &UnitStore{db: db}
}

// InsertIfAbsent adds a unit unless the barcode is already stocked as the
// same component. The check and the write are one statement, so concurrent
// callers cannot both insert.
func (s *UnitStore) InsertIfAbsent(ctx context.Context, c domain.Component, barcode string, volume, dateCollected *string) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`INSERT INTO blood_units (component, barcode_id, volume, date_collected)
                VALUES (?, ?, ?, ?)
                ON CONFLICT (component, barcode_id) DO NOTHING`),
		string(c), barcode, volume, dateCollected)
	if err != nil {
		return false, fmt.Errorf("insert %s unit %q: %w", c, barcode, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert %s unit %q: %w", c, barcode, err)
	}
	return n > 0, nil
}

// Intake processes entries in order. Barcodes are trimmed of surrounding
// whitespace; unknown components and blank barcodes are skipped without
// error. The first database error stops the run; units inserted before it
// stay inserted and are included in the returned results.
func (s *UnitStore) Intake(ctx context.Context, entries []domain.IntakeEntry) ([]domain.IntakeResult, error) {
	results := make([]domain.IntakeResult, 0, len(entries))
	for _, entry := range entries {
		entry.BarcodeID = strings.TrimSpace(entry.BarcodeID)
		component, ok := domain.ParseComponent(entry.Component)
		if !ok {
			results = append(results, domain.IntakeResult{Entry: entry, Outcome: domain.IntakeUnknownComponent})
			continue
		}
		if entry.BarcodeID == "" {
			results = append(results, domain.IntakeResult{Entry: entry, Component: component, Outcome: domain.IntakeBlankBarcode})
			continue
		}

		inserted, err := s.InsertIfAbsent(ctx, component, entry.BarcodeID, entry.Volume, entry.DateCollected)
		if err != nil {
			return results, err
		}
		outcome := domain.IntakeDuplicate
		if inserted {
			outcome = domain.IntakeInserted
		}
		results = append(results, domain.IntakeResult{Entry: entry, Component: component, Outcome: outcome})
	}
	return results, nil
}

// Lookup returns the typed-component records holding barcode.
func (s *UnitStore) Lookup(ctx context.Context, barcode string) (domain.UnitLookup, error) {
	var units []domain.BloodUnit
	query, args := typedScope(`SELECT `+unitColumns+` FROM blood_units WHERE barcode_id = ?`, barcode)
	if err := s.db.SelectContext(ctx, &units, s.db.Rebind(query), args...); err != nil {
		return domain.UnitLookup{}, fmt.Errorf("lookup unit %q: %w", barcode, err)
	}

	var lookup domain.UnitLookup
	for i := range units {
		unit := &units[i]
		switch unit.Component {
		case domain.ComponentPRBC:
			lookup.PRBC = unit
		case domain.ComponentPC:
			lookup.PC = unit
		case domain.ComponentPlasma:
			lookup.Plasma = unit
		}
	}
	return lookup, nil
}

// SetBloodType records ABO type and Rh factor on every typed-component record
// holding barcode and returns how many were updated.
func (s *UnitStore) SetBloodType(ctx context.Context, barcode, bloodType, rh string) (int64, error) {
	query, args := typedScope(`UPDATE blood_units SET blood_type = ?, rh_factor = ? WHERE barcode_id = ?`, bloodType, rh, barcode)
	res, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("set blood type for %q: %w", barcode, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("set blood type for %q: %w", barcode, err)
	}
	return n, nil
}

// SetScreening records the screening panel on every typed-component record
// holding barcode and returns how many were updated.
func (s *UnitStore) SetScreening(ctx context.Context, barcode string, panel domain.Screening) (int64, error) {
	query, args := typedScope(`UPDATE blood_units SET hcv = ?, syphilis = ?, hbsag = ?, hiv = ?, malaria = ? WHERE barcode_id = ?`,
		panel.HCV, panel.Syphilis, panel.HBsAg, panel.HIV, panel.Malaria, barcode)
	res, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("set screening for %q: %w", barcode, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("set screening for %q: %w", barcode, err)
	}
	return n, nil
}

// typedScope narrows a statement ending in a WHERE clause to the typed
// components.
func typedScope(query string, args ...any) (string, []any) {
	placeholders := make([]string, len(domain.TypedComponents))
	for i, c := range domain.TypedComponents {
		placeholders[i] = "?"
		args = append(args, string(c))
	}
	return query + ` AND component IN (` + strings.Join(placeholders, ", ") + `)`, args
}
