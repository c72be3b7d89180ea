package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/opsdeck/opsdeck/internal/nav"
	"github.com/opsdeck/opsdeck/internal/registry"
)

// SchemaVersion is the running version of the persisted state record.
// A stored record with any other version is discarded wholesale in
// favour of the default initial state; no partial migration.
const SchemaVersion = 1

// ErrInvalidPersistedState marks a stored record that failed version or
// shape validation. Recoverable: callers fall back to defaults.
var ErrInvalidPersistedState = errors.New("store: invalid persisted state")

// StateRepo persists the navigation state as a single versioned row.
type StateRepo struct {
	db *sql.DB
}

func NewStateRepo(db *sql.DB) *StateRepo {
	return &StateRepo{db: db}
}

// Save writes the committed navigation state. Called after every
// committed transition; failures are for the caller to log, never to
// block on.
func (r *StateRepo) Save(ctx context.Context, state nav.State, sessionID string) error {
	groups, err := json.Marshal(state.SelectedGroup)
	if err != nil {
		return fmt.Errorf("store: encode selected groups: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
	INSERT INTO nav_state(id, schema_version, mode, selected_groups, selected_unit, session_id, saved_at)
	VALUES (1, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	 schema_version=excluded.schema_version,
	 mode=excluded.mode,
	 selected_groups=excluded.selected_groups,
	 selected_unit=excluded.selected_unit,
	 session_id=excluded.session_id,
	 saved_at=excluded.saved_at;
	`, SchemaVersion, string(state.Mode), string(groups), string(state.SelectedUnit), sessionID, Now())
	return err
}

// Load reads the persisted state. ok is false when no record exists.
// A version mismatch or undecodable record returns
// ErrInvalidPersistedState so the caller can start from defaults —
// semantic validation against the registry is the machine's job.
func (r *StateRepo) Load(ctx context.Context) (nav.State, bool, error) {
	var (
		version int
		mode    string
		groups  string
		unit    string
	)
	row := r.db.QueryRowContext(ctx,
		`SELECT schema_version, mode, selected_groups, selected_unit FROM nav_state WHERE id = 1`)
	if err := row.Scan(&version, &mode, &groups, &unit); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nav.State{}, false, nil
		}
		return nav.State{}, false, err
	}
	if version != SchemaVersion {
		return nav.State{}, false, fmt.Errorf("%w: schema version %d, want %d", ErrInvalidPersistedState, version, SchemaVersion)
	}
	selected := make(map[registry.Dimension]registry.GroupID)
	if err := json.Unmarshal([]byte(groups), &selected); err != nil {
		return nav.State{}, false, fmt.Errorf("%w: decode selected groups: %v", ErrInvalidPersistedState, err)
	}
	return nav.State{
		Mode:          nav.ModeID(mode),
		SelectedGroup: selected,
		SelectedUnit:  registry.UnitID(unit),
	}, true, nil
}

// Clear drops the persisted record, forcing default initial state on
// the next start.
func (r *StateRepo) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM nav_state WHERE id = 1`)
	return err
}
