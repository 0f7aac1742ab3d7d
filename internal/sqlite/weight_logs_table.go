// This file implements the weight_logs collection and trend maintenance.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/macrostore/pkg/types"
)

const weightLogColumns = "id, person_id, date, scale_weight, trend_weight"

// WeightLogsTable reads and writes body-weight measurements.
type WeightLogsTable struct {
	backend *Backend
}

// Record stores a person's scale weight for date and updates its trend
// weight. Recording the same date twice overwrites the earlier measurement.
//
// The raw value is committed first with no trend; a second transaction then
// averages the valid measurements of the trailing TrendWindowDays (date
// included), rounds to one decimal and writes the trend on the same record.
func (wt *WeightLogsTable) Record(ctx context.Context, personID, date string, scaleWeight float64) (*types.WeightLog, error) {
	if personID == "" {
		return nil, types.MissingID("personId")
	}
	if _, err := types.ParseDate(date); err != nil {
		return nil, &types.ValidationError{Field: "date", Message: err.Error(), Err: types.ErrInvalidWeight}
	}
	wl := &types.WeightLog{PersonID: personID, Date: date, ScaleWeight: scaleWeight}
	if err := wl.Validate(); err != nil {
		return nil, err
	}

	tables := []string{types.WeightLogsTable}
	err := wt.backend.update(ctx, tables, func(tx *Tx) error {
		existing, err := weightLogOn(tx, personID, date)
		if err != nil {
			return err
		}
		if existing != nil {
			wl.ID = existing.ID
		} else {
			wl.ID = newUUID()
		}
		return putWeightLog(tx, wl)
	})
	if err != nil {
		return nil, fmt.Errorf("recording weight: %w", err)
	}

	from, err := types.ShiftDate(date, -(types.TrendWindowDays - 1))
	if err != nil {
		return nil, err
	}
	err = wt.backend.update(ctx, tables, func(tx *Tx) error {
		window, err := listWeightLogs(tx,
			"WHERE person_id = ? AND date >= ? AND date <= ? ORDER BY date", personID, from, date)
		if err != nil {
			return err
		}
		wl.TrendWeight = trendOf(window)
		_, err = tx.Exec(types.WeightLogsTable,
			"UPDATE weight_logs SET trend_weight = ? WHERE id = ?", encodeFloat(wl.TrendWeight), wl.ID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("updating trend weight: %w", err)
	}

	log.WithFields(log.Fields{"person": personID, "date": date}).Debug("weight recorded")
	return wl, nil
}

// trendOf averages the valid positive scale weights, rounded to one decimal.
// Returns nil when there are none.
func trendOf(logs []types.WeightLog) *float64 {
	var sum float64
	var n int
	for _, l := range logs {
		if types.IsFinite(l.ScaleWeight) && l.ScaleWeight > 0 {
			sum += l.ScaleWeight
			n++
		}
	}
	if n == 0 {
		return nil
	}
	trend := math.Round(sum/float64(n)*10) / 10
	return &trend
}

// Get returns the weight log with id, or nil if there is none.
func (wt *WeightLogsTable) Get(ctx context.Context, id string) (*types.WeightLog, error) {
	if id == "" {
		return nil, types.MissingID("id")
	}
	var wl *types.WeightLog
	err := wt.backend.view(ctx, []string{types.WeightLogsTable}, func(tx *Tx) error {
		row, err := tx.QueryRow(types.WeightLogsTable,
			"SELECT "+weightLogColumns+" FROM weight_logs WHERE id = ?", id)
		if err != nil {
			return err
		}
		wl, err = scanWeightLog(row)
		if errors.Is(err, sql.ErrNoRows) {
			wl = nil
			return nil
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("getting weight log %s: %w", id, err)
	}
	return wl, nil
}

// ForPersonDate returns a person's measurement for date, or nil.
func (wt *WeightLogsTable) ForPersonDate(ctx context.Context, personID, date string) (*types.WeightLog, error) {
	var wl *types.WeightLog
	err := wt.backend.view(ctx, []string{types.WeightLogsTable}, func(tx *Tx) error {
		var err error
		wl, err = weightLogOn(tx, personID, date)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("getting weight log: %w", err)
	}
	return wl, nil
}

// GetAll returns every weight log.
func (wt *WeightLogsTable) GetAll(ctx context.Context) ([]types.WeightLog, error) {
	return wt.query(ctx, "ORDER BY person_id, date")
}

// ForPerson returns a person's measurements ordered by date.
func (wt *WeightLogsTable) ForPerson(ctx context.Context, personID string) ([]types.WeightLog, error) {
	return wt.query(ctx, "WHERE person_id = ? ORDER BY date", personID)
}

// InRange returns a person's measurements with from <= date <= to, ordered
// by date.
func (wt *WeightLogsTable) InRange(ctx context.Context, personID, from, to string) ([]types.WeightLog, error) {
	return wt.query(ctx, "WHERE person_id = ? AND date >= ? AND date <= ? ORDER BY date", personID, from, to)
}

// Put creates or replaces a weight log as given, trend included. Use Record
// to log a measurement.
func (wt *WeightLogsTable) Put(ctx context.Context, wl *types.WeightLog) error {
	if wl == nil {
		return types.ErrInvalidData
	}
	if wl.ID == "" {
		return types.MissingID("id")
	}
	if wl.PersonID == "" {
		return types.MissingID("personId")
	}
	if err := wl.Validate(); err != nil {
		return err
	}
	wl.CleanTrend()
	return wt.backend.update(ctx, []string{types.WeightLogsTable}, func(tx *Tx) error {
		return putWeightLog(tx, wl)
	})
}

// Delete removes the weight log with id. A missing log is not an error.
func (wt *WeightLogsTable) Delete(ctx context.Context, id string) error {
	if id == "" {
		return types.MissingID("id")
	}
	return wt.backend.update(ctx, []string{types.WeightLogsTable}, func(tx *Tx) error {
		_, err := tx.deleteWhere(types.WeightLogsTable, "id = ?", id)
		return err
	})
}

func (wt *WeightLogsTable) query(ctx context.Context, clause string, args ...any) ([]types.WeightLog, error) {
	var logs []types.WeightLog
	err := wt.backend.view(ctx, []string{types.WeightLogsTable}, func(tx *Tx) error {
		var err error
		logs, err = listWeightLogs(tx, clause, args...)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing weight logs: %w", err)
	}
	return logs, nil
}

func weightLogOn(tx *Tx, personID, date string) (*types.WeightLog, error) {
	row, err := tx.QueryRow(types.WeightLogsTable,
		"SELECT "+weightLogColumns+" FROM weight_logs WHERE person_id = ? AND date = ?", personID, date)
	if err != nil {
		return nil, err
	}
	wl, err := scanWeightLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return wl, err
}

func putWeightLog(tx *Tx, wl *types.WeightLog) error {
	_, err := tx.Exec(types.WeightLogsTable, `INSERT INTO weight_logs (`+weightLogColumns+`)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET person_id = excluded.person_id, date = excluded.date,
    scale_weight = excluded.scale_weight, trend_weight = excluded.trend_weight`,
		wl.ID, wl.PersonID, wl.Date, wl.ScaleWeight, encodeFloat(wl.TrendWeight))
	if err != nil {
		return fmt.Errorf("persisting weight log %s: %w", wl.ID, err)
	}
	return nil
}

func listWeightLogs(tx *Tx, clause string, args ...any) ([]types.WeightLog, error) {
	rows, err := tx.Query(types.WeightLogsTable, "SELECT "+weightLogColumns+" FROM weight_logs "+clause, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []types.WeightLog{}
	for rows.Next() {
		wl, err := scanWeightLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *wl)
	}
	return logs, rows.Err()
}

func scanWeightLog(s scanner) (*types.WeightLog, error) {
	var wl types.WeightLog
	var trend sql.NullFloat64
	if err := s.Scan(&wl.ID, &wl.PersonID, &wl.Date, &wl.ScaleWeight, &trend); err != nil {
		return nil, err
	}
	wl.TrendWeight = decodeFloat(trend)
	return &wl, nil
}
