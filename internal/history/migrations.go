package history

import (
	"database/sql"

	"github.com/awylder/switchsync/internal/store"
)

// migrations returns the history schema in ascending version order. The seq
// rowid preserves insertion order so listings reflect detection order even
// when timestamps collide within one poll.
func migrations() []store.Migration {
	return []store.Migration{
		{
			Version:     1,
			Description: "create history_events table",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`
					CREATE TABLE IF NOT EXISTS history_events (
						seq            INTEGER PRIMARY KEY AUTOINCREMENT,
						id             TEXT NOT NULL UNIQUE,
						host           TEXT NOT NULL,
						entity_type    TEXT NOT NULL,
						entity_key     TEXT NOT NULL,
						change_kind    TEXT NOT NULL,
						field          TEXT NOT NULL DEFAULT '',
						previous_value TEXT NOT NULL DEFAULT '',
						new_value      TEXT NOT NULL DEFAULT '',
						recorded_at    DATETIME NOT NULL
					)
				`)
				return err
			},
		},
		{
			Version:     2,
			Description: "index history_events by host and entity",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE INDEX IF NOT EXISTS idx_history_host ON history_events(host, recorded_at)`,
					`CREATE INDEX IF NOT EXISTS idx_history_entity ON history_events(host, entity_type, entity_key)`,
				}
				for _, s := range stmts {
					if _, err := tx.Exec(s); err != nil {
						return err
					}
				}
				return nil
			},
		},
	}
}
