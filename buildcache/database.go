// database.go - SQLite-Index des Build-Caches
// Enthält: database struct, newDatabase, Close, init, Migrationen

package buildcache

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // SQLite-Treiber registrieren
)

// currentSchemaVersion wird bei Schema-Änderungen erhöht
const currentSchemaVersion = 2

// database umhüllt die SQLite-Verbindung. Mehrere Prozesse duerfen
// denselben Cache nutzen; SQLite serialisiert die Schreiber.
type database struct {
	conn *sql.DB
}

// newDatabase öffnet die Datenbank und initialisiert das Schema
func newDatabase(dbPath string) (*database, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := &database{conn: conn}
	if err := db.init(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	return db, nil
}

// Close schließt die Datenbankverbindung
func (db *database) Close() error {
	_, _ = db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE);")
	return db.conn.Close()
}

func (db *database) init() error {
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		schema_version INTEGER NOT NULL DEFAULT %d
	);

	INSERT OR IGNORE INTO settings (id) VALUES (1);

	CREATE TABLE IF NOT EXISTS libraries (
		hash TEXT PRIMARY KEY,
		model TEXT NOT NULL,
		target TEXT NOT NULL,
		compiler TEXT NOT NULL DEFAULT '',
		file TEXT NOT NULL,
		size INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		used_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		hits INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_libraries_model ON libraries(model);
	`, currentSchemaVersion)

	if _, err := db.conn.Exec(schema); err != nil {
		return err
	}

	if err := db.migrate(); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// =============================================================================
// Migrationen
// =============================================================================

func (db *database) getSchemaVersion() (int, error) {
	var version int
	err := db.conn.QueryRow("SELECT schema_version FROM settings WHERE id = 1").Scan(&version)
	return version, err
}

func (db *database) setSchemaVersion(version int) error {
	_, err := db.conn.Exec("UPDATE settings SET schema_version = ? WHERE id = 1", version)
	return err
}

// migrate bringt ältere Cache-Datenbanken auf currentSchemaVersion
func (db *database) migrate() error {
	version, err := db.getSchemaVersion()
	if err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	for version < currentSchemaVersion {
		switch version {
		case 1:
			// hits Spalte zur libraries Tabelle hinzufügen
			if err := db.migrateV1ToV2(); err != nil {
				return fmt.Errorf("migrate v1 to v2: %w", err)
			}
			version = 2
		default:
			return fmt.Errorf("unknown schema version %d", version)
		}
	}
	return nil
}

func (db *database) migrateV1ToV2() error {
	var exists int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('libraries') WHERE name = 'hits'`).Scan(&exists)
	if err != nil {
		return err
	}
	if exists == 0 {
		if _, err := db.conn.Exec("ALTER TABLE libraries ADD COLUMN hits INTEGER NOT NULL DEFAULT 0"); err != nil {
			return err
		}
	}
	return db.setSchemaVersion(2)
}
