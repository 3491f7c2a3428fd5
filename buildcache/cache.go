// MODUL: buildcache
// ZWECK: Persistenter Cache kompilierter Kernel-Bibliotheken
// INPUT: Quelltext-Hash, Metadaten (Modell, Target, Compiler)
// OUTPUT: Pfade zu wiederverwendbaren Bibliotheken
// NEBENEFFEKTE: Legt <dir>/index.sqlite und <dir>/lib/ an, löscht beim
//               Prune Dateien
// ABHAENGIGKEITEN: go-sqlite3
// HINWEISE: Der Schlüssel ist der Hash aus generate.Source; Einträge ohne
//           Datei werden beim Lookup verworfen

// Package buildcache verwaltet kompilierte Kernel-Bibliotheken über
// Prozessgrenzen hinweg.
package buildcache

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Entry beschreibt eine gecachte Bibliothek
type Entry struct {
	Hash      string    `json:"hash"`
	Model     string    `json:"model"`
	Target    string    `json:"target"`
	Compiler  string    `json:"compiler,omitempty"`
	File      string    `json:"file"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
	UsedAt    time.Time `json:"used_at"`
	Hits      int       `json:"hits"`
}

// Cache ist ein Build-Cache in einem Verzeichnis. Die Datenbank wird beim
// ersten Zugriff geöffnet.
type Cache struct {
	Dir string

	// dbMu schützt nur die Initialisierung
	dbMu sync.Mutex
	db   *database
}

// Open gibt einen Cache für dir zurück
func Open(dir string) *Cache {
	return &Cache{Dir: dir}
}

func (c *Cache) ensureDB() error {
	c.dbMu.Lock()
	defer c.dbMu.Unlock()

	if c.db != nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Join(c.Dir, "lib"), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	db, err := newDatabase(filepath.Join(c.Dir, "index.sqlite"))
	if err != nil {
		return err
	}
	c.db = db
	return nil
}

// Path gibt den Zielpfad einer Bibliothek mit Hash hash und Endung ext zurück
func (c *Cache) Path(hash, ext string) string {
	return filepath.Join(c.Dir, "lib", hash+ext)
}

// Lookup sucht eine Bibliothek. Fehlt die Datei, wird der Eintrag entfernt
// und ok ist false.
func (c *Cache) Lookup(hash string) (e Entry, ok bool, err error) {
	if err := c.ensureDB(); err != nil {
		return Entry{}, false, err
	}

	row := c.db.conn.QueryRow(`
		SELECT hash, model, target, compiler, file, size, created_at, used_at, hits
		FROM libraries WHERE hash = ?`, hash)
	err = row.Scan(&e.Hash, &e.Model, &e.Target, &e.Compiler, &e.File, &e.Size, &e.CreatedAt, &e.UsedAt, &e.Hits)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	} else if err != nil {
		return Entry{}, false, fmt.Errorf("lookup %s: %w", hash, err)
	}

	if _, err := os.Stat(e.File); err != nil {
		slog.Debug("dropping stale cache entry", "hash", hash, "file", e.File, "error", err)
		_, err := c.db.conn.Exec("DELETE FROM libraries WHERE hash = ?", hash)
		return Entry{}, false, err
	}

	_, err = c.db.conn.Exec("UPDATE libraries SET used_at = CURRENT_TIMESTAMP, hits = hits + 1 WHERE hash = ?", hash)
	if err != nil {
		return Entry{}, false, fmt.Errorf("touch %s: %w", hash, err)
	}
	e.Hits++
	return e, true, nil
}

// Store nimmt eine fertig gebaute Bibliothek auf. e.File muss existieren.
func (c *Cache) Store(e Entry) error {
	if err := c.ensureDB(); err != nil {
		return err
	}

	fi, err := os.Stat(e.File)
	if err != nil {
		return fmt.Errorf("store %s: %w", e.Hash, err)
	}

	_, err = c.db.conn.Exec(`
		INSERT OR REPLACE INTO libraries (hash, model, target, compiler, file, size)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.Hash, e.Model, e.Target, e.Compiler, e.File, fi.Size())
	if err != nil {
		return fmt.Errorf("store %s: %w", e.Hash, err)
	}
	return nil
}

// List gibt alle Einträge zurück, zuletzt benutzte zuerst
func (c *Cache) List() ([]Entry, error) {
	if err := c.ensureDB(); err != nil {
		return nil, err
	}

	rows, err := c.db.conn.Query(`
		SELECT hash, model, target, compiler, file, size, created_at, used_at, hits
		FROM libraries ORDER BY used_at DESC, model`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Hash, &e.Model, &e.Target, &e.Compiler, &e.File, &e.Size, &e.CreatedAt, &e.UsedAt, &e.Hits); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune entfernt Einträge, die seit before nicht benutzt wurden, samt
// Dateien und gibt die Anzahl zurück
func (c *Cache) Prune(before time.Time) (int, error) {
	entries, err := c.List()
	if err != nil {
		return 0, err
	}

	var n int
	for _, e := range entries {
		if !e.UsedAt.Before(before) {
			continue
		}
		if err := os.Remove(e.File); err != nil && !errors.Is(err, os.ErrNotExist) {
			return n, fmt.Errorf("remove %s: %w", e.File, err)
		}
		if _, err := c.db.conn.Exec("DELETE FROM libraries WHERE hash = ?", e.Hash); err != nil {
			return n, err
		}
		n++
	}

	if n > 0 {
		slog.Info("pruned build cache", "dir", c.Dir, "removed", n)
	}
	return n, nil
}

// Close schließt die Datenbank; der Cache kann danach erneut benutzt werden
func (c *Cache) Close() error {
	c.dbMu.Lock()
	defer c.dbMu.Unlock()

	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}
