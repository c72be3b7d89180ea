package store

import (
	"context"
	"database/sql"

	"github.com/opsdeck/opsdeck/internal/ordering"
	"github.com/opsdeck/opsdeck/internal/registry"
)

// OverrideRepo persists the user layer of order overrides.
type OverrideRepo struct {
	db *sql.DB
}

func NewOverrideRepo(db *sql.DB) *OverrideRepo {
	return &OverrideRepo{db: db}
}

// Put inserts or replaces one user override.
func (r *OverrideRepo) Put(ctx context.Context, rule ordering.Rule) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO order_overrides(dimension, group_id, unit_id, sort_order, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(dimension, group_id, unit_id) DO UPDATE SET
	 sort_order=excluded.sort_order,
	 updated_at=excluded.updated_at;
	`, string(rule.Dimension), string(rule.GroupID), string(rule.UnitID), rule.Order, Now())
	return err
}

// Delete removes one user override.
func (r *OverrideRepo) Delete(ctx context.Context, dim registry.Dimension, group registry.GroupID, unit registry.UnitID) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM order_overrides WHERE dimension = ? AND group_id = ? AND unit_id = ?`,
		string(dim), string(group), string(unit))
	return err
}

// List returns every stored user override as user-scope rules.
func (r *OverrideRepo) List(ctx context.Context) ([]ordering.Rule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT dimension, group_id, unit_id, sort_order FROM order_overrides ORDER BY dimension, group_id, unit_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ordering.Rule
	for rows.Next() {
		var (
			dim, group, unit string
			order            int
		)
		if err := rows.Scan(&dim, &group, &unit, &order); err != nil {
			return nil, err
		}
		out = append(out, ordering.Rule{
			Scope:     ordering.ScopeUser,
			Dimension: registry.Dimension(dim),
			GroupID:   registry.GroupID(group),
			UnitID:    registry.UnitID(unit),
			Order:     order,
		})
	}
	return out, rows.Err()
}
