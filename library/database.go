package library

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// Keys of the durable client state.
const (
	KeyUser            = "user"
	KeyIsAuthenticated = "isAuthenticated"
)

// Database is the local key-value store that keeps the dashboard session
// across runs. Library data itself always comes from the API.
type Database struct {
	db *sqlx.DB

	putStmt *sqlx.Stmt
	getStmt *sqlx.Stmt
}

// NewDatabase opens (or creates) the SQLite database at dbPath, applies schema
// migrations, and prepares common statements.
func NewDatabase(dbPath string) (*Database, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create db dir")
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", dbPath)
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	database := &Database{db: db}
	if err := database.prepareStatements(); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// Close releases prepared statements and closes the DB.
func (d *Database) Close() error {
	if d.putStmt != nil {
		d.putStmt.Close()
	}
	if d.getStmt != nil {
		d.getStmt.Close()
	}
	return d.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sqlx.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return errors.Wrap(err, "create meta table")
	}

	var current int
	_ = db.Get(&current, `SELECT value FROM meta WHERE key='schema_version';`)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`CREATE TABLE IF NOT EXISTS client_state (
            key TEXT PRIMARY KEY,
            value TEXT NOT NULL,
            updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`); err != nil {
		return errors.Wrap(err, "create client_state table")
	}
	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return errors.Wrap(err, "record schema version")
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (d *Database) prepareStatements() error {
	var err error
	if d.putStmt, err = d.db.Preparex(`INSERT INTO client_state(key,value) VALUES(?,?)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=CURRENT_TIMESTAMP`); err != nil {
		return err
	}
	if d.getStmt, err = d.db.Preparex(`SELECT value FROM client_state WHERE key=?`); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Key-value helpers
// ---------------------------------------------------------------------------

// Put stores value under key, replacing any previous value.
func (d *Database) Put(key, value string) error {
	_, err := d.putStmt.Exec(key, value)
	return errors.Wrapf(err, "put %q", key)
}

// Get returns the value under key. ok is false when the key is absent.
func (d *Database) Get(key string) (value string, ok bool, err error) {
	err = d.getStmt.Get(&value, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "get %q", key)
	}
	return value, true, nil
}

// Delete removes the given keys in one transaction.
func (d *Database) Delete(keys ...string) error {
	tx, err := d.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, k := range keys {
		if _, err := tx.Exec(`DELETE FROM client_state WHERE key=?`, k); err != nil {
			return errors.Wrapf(err, "delete %q", k)
		}
	}
	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Session persistence
// ---------------------------------------------------------------------------

// SaveSession records user as the authenticated admin.
func (d *Database) SaveSession(user Admin) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return errors.Wrap(err, "encode user")
	}

	tx, err := d.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, kv := range [][2]string{{KeyUser, string(raw)}, {KeyIsAuthenticated, "true"}} {
		if _, err := tx.Stmtx(d.putStmt).Exec(kv[0], kv[1]); err != nil {
			return errors.Wrap(err, "save session")
		}
	}
	return tx.Commit()
}

// LoadSession returns the stored admin. ok is false when nobody is
// logged in.
func (d *Database) LoadSession() (user Admin, ok bool, err error) {
	flag, found, err := d.Get(KeyIsAuthenticated)
	if err != nil || !found || flag != "true" {
		return Admin{}, false, err
	}
	raw, found, err := d.Get(KeyUser)
	if err != nil || !found {
		return Admin{}, false, err
	}
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return Admin{}, false, errors.Wrap(err, "decode user")
	}
	return user, true, nil
}

// ClearSession forgets the stored admin.
func (d *Database) ClearSession() error {
	return d.Delete(KeyUser, KeyIsAuthenticated)
}
