package persist

import (
	"bufio"
	"database/sql"
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"gitlab.com/dirk.krummacker/contact-book/internal/store"
)

// driverName is the name under which modernc.org/sqlite registers itself.
const driverName = "sqlite"

//go:embed schema.sql
var schema string

func init() {
	sqlx.BindDriver(driverName, sqlx.QUESTION)
}

// SQLite is a Backend that keeps the contact book in a local SQLite database file.
type SQLite struct {
	db *sqlx.DB

	// selectAll is a prepared statement for reading all contacts in insertion order.
	selectAll *sqlx.Stmt
}

// OpenSQLite opens or creates the SQLite database at path.
//
// Usage example:
//
//	backend, err := persist.OpenSQLite("contacts.db")
//	if err != nil {
//		return err
//	}
//	defer backend.Close()
func OpenSQLite(path string) (*SQLite, error) {
	sqlDB, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", ErrIO, path, err)
	}
	backend, err := NewSQLite(sqlDB)
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return backend, nil
}

// NewSQLite initializes the sqlx database wrapper with the specified sql database, creates the
// schema if needed and prepares all statements. The database argument can be a real database or a
// mock database within unit tests.
func NewSQLite(sqlDB *sql.DB) (*SQLite, error) {
	db := sqlx.NewDb(sqlDB, driverName)
	if err := applySchema(db, strings.NewReader(schema)); err != nil {
		return nil, fmt.Errorf("%w: creating schema: %w", ErrIO, err)
	}
	selectAll, err := db.Preparex(`
		SELECT name, phone, email, address, contact_group, created_at, updated_at
		FROM contacts
		ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: preparing statements: %w", ErrIO, err)
	}
	return &SQLite{db: db, selectAll: selectAll}, nil
}

// applySchema executes the SQL statements read from r one after another. A statement ends on the
// line that contains a semicolon.
func applySchema(db *sqlx.DB, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanLines)
	builder := strings.Builder{}
	for scanner.Scan() {
		line := scanner.Text()
		builder.WriteString(line)
		builder.WriteString(" ")
		if strings.Contains(line, ";") {
			if _, err := db.Exec(builder.String()); err != nil {
				return err
			}
			builder = strings.Builder{}
		}
	}
	return scanner.Err()
}

// Load reads all contacts from the database. A database that cannot be queried yields an error
// wrapping ErrIO; rows that break the rules of the book yield ErrCorruptFile. In both cases an
// empty book is returned.
func (s *SQLite) Load() (*store.Book, error) {
	var records []record
	if err := s.selectAll.Select(&records); err != nil {
		return store.New(), fmt.Errorf("%w: reading contacts: %w", ErrIO, err)
	}
	return restore(records)
}

// Save replaces the content of the contacts table with the contacts of book within one
// transaction.
func (s *SQLite) Save(book *store.Book) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("%w: starting transaction: %w", ErrIO, err)
	}
	if _, err := tx.Exec(`DELETE FROM contacts`); err != nil {
		tx.Rollback()
		return fmt.Errorf("%w: clearing contacts: %w", ErrIO, err)
	}
	for _, c := range book.Contacts() {
		_, err := tx.NamedExec(`
			INSERT INTO contacts (name, phone, email, address, contact_group, created_at, updated_at)
			VALUES (:name, :phone, :email, :address, :contact_group, :created_at, :updated_at)
		`, toRecord(c))
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("%w: writing contact %q: %w", ErrIO, c.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing contacts: %w", ErrIO, err)
	}
	return nil
}

// Close releases the prepared statements and the database.
func (s *SQLite) Close() error {
	s.selectAll.Close()
	return s.db.Close()
}
