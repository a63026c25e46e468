package persistence

import "fmt"

type migration struct {
	id   int
	name string
	sql  string
}

var migrations = []migration{
	{
		id:   1,
		name: "change_history",
		sql: `
			CREATE TABLE change_history (
				game_id TEXT NOT NULL,
				idx INTEGER NOT NULL,
				round INTEGER NOT NULL,
				step TEXT NOT NULL,
				change_type TEXT NOT NULL,
				payload BLOB NOT NULL,
				created_at DATETIME NOT NULL,
				PRIMARY KEY (game_id, idx)
			);
		`,
	},
	{
		id:   2,
		name: "change_history_type_index",
		sql:  `CREATE INDEX idx_change_history_type ON change_history(game_id, change_type);`,
	},
}

// migrate runs all database migrations.
func (s *Store) migrate() error {
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		applied, err := s.isMigrationApplied(m.id)
		if err != nil {
			return err
		}
		if applied {
			continue
		}
		if err := s.runMigration(m); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.id, m.name, err)
		}
	}
	return nil
}

func (s *Store) isMigrationApplied(id int) (bool, error) {
	var count int
	err := s.conn.QueryRow("SELECT COUNT(*) FROM migrations WHERE id = ?", id).Scan(&count)
	return count > 0, err
}

func (s *Store) runMigration(m migration) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.sql); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO migrations (id, name) VALUES (?, ?)", m.id, m.name); err != nil {
		return err
	}
	return tx.Commit()
}
