package persist

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/dirk.krummacker/contact-book/internal/model"
	"gitlab.com/dirk.krummacker/contact-book/internal/store"
)

// columns are the columns returned by the select statement.
var columns = []string{"name", "phone", "email", "address", "contact_group", "created_at", "updated_at"}

// createMockObjects builds a mock database handle and a mock object for defining our expected SQL
// calls.
func createMockObjects(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	return db, mock
}

// expectSetup instructs the mock object to expect that the schema is created and the statements
// are prepared.
func expectSetup(mock sqlmock.Sqlmock) {
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS contacts").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS contacts_by_group").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectPrepare("SELECT (.+) FROM contacts")
}

// initializeBackend sets up the SQLite backend with the mock database.
func initializeBackend(t *testing.T, db *sql.DB) *SQLite {
	backend, err := NewSQLite(db)
	require.NoError(t, err)
	return backend
}

// TestSQLiteLoad selects all contacts and expects them in the book in the order of the rows.
func TestSQLiteLoad(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	// Define expectations on SQL statements
	expectSetup(mock)
	rows := mock.NewRows(columns).
		AddRow("Carla", "1234567890", "carla@example.com", nil, "Work", "2024-03-02T10:30:00Z", "2024-03-02T10:31:00Z").
		AddRow("Aaron", "0987654321", nil, "1 Main St", "Friends", "2024-03-01T08:00:00Z", "2024-03-01T08:00:00Z")
	mock.ExpectQuery("SELECT (.+) FROM contacts").
		WillReturnRows(rows)

	// Run test and compare results
	book, err := initializeBackend(t, db).Load()
	require.NoError(t, err)
	contacts := book.Contacts()
	require.Len(t, contacts, 2)
	assert.Equal(t, "Carla", contacts[0].Name)
	assert.Equal(t, "carla@example.com", model.StringValue(contacts[0].Email))
	assert.Nil(t, contacts[0].Address)
	assert.Equal(t, "Aaron", contacts[1].Name)
	assert.Nil(t, contacts[1].Email)
	assert.Equal(t, "1 Main St", model.StringValue(contacts[1].Address))
	assert.Equal(t, "2024-03-01T08:00:00Z", contacts[1].CreatedAt.Format("2006-01-02T15:04:05Z07:00"))
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestSQLiteLoadInvalidRow expects that a row with an invalid phone number makes the data corrupt.
func TestSQLiteLoadInvalidRow(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	// Define expectations on SQL statements
	expectSetup(mock)
	rows := mock.NewRows(columns).
		AddRow("Carla", "123", nil, nil, "Work", "2024-03-02T10:30:00Z", "2024-03-02T10:31:00Z")
	mock.ExpectQuery("SELECT (.+) FROM contacts").
		WillReturnRows(rows)

	// Run test and compare results
	book, err := initializeBackend(t, db).Load()
	assert.ErrorIs(t, err, ErrCorruptFile)
	assert.Equal(t, 0, book.Len())
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestSQLiteLoadQueryError expects an i/o error if the select statement fails.
func TestSQLiteLoadQueryError(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	// Define expectations on SQL statements
	expectSetup(mock)
	mock.ExpectQuery("SELECT (.+) FROM contacts").
		WillReturnError(errors.New("database is locked"))

	// Run test and compare results
	book, err := initializeBackend(t, db).Load()
	assert.ErrorIs(t, err, ErrIO)
	assert.Equal(t, 0, book.Len())
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestSQLiteSave expects that the table is cleared and every contact is inserted within one
// transaction.
func TestSQLiteSave(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	book := store.New(store.WithClock(fixedClock()))
	_, err := book.Add(model.Contact{Name: "Erika", Phone: "+49 0815 4711 00", Email: model.StringPtr("erika@example.com")})
	require.NoError(t, err)
	erika, _ := book.Get("Erika")
	created := toRecord(erika).CreatedAt

	// Define expectations on SQL statements
	expectSetup(mock)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM contacts").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO contacts").
		WithArgs("Erika", "490815471100", "erika@example.com", nil, "Other", created, created).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	// Run test and compare results
	require.NoError(t, initializeBackend(t, db).Save(book))
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestSQLiteSaveError expects that a failed insert rolls the transaction back and reports an i/o
// error.
func TestSQLiteSaveError(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	book := createBook(t)

	// Define expectations on SQL statements
	expectSetup(mock)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM contacts").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO contacts").
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	// Run test and compare results
	err := initializeBackend(t, db).Save(book)
	assert.ErrorIs(t, err, ErrIO)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestSQLiteSchemaError expects that a failing schema statement is reported as an i/o error.
func TestSQLiteSchemaError(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	// Define expectations on SQL statements
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS contacts").
		WillReturnError(errors.New("file is not a database"))

	// Run test and compare results
	_, err := NewSQLite(db)
	assert.ErrorIs(t, err, ErrIO)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestSQLiteRoundTrip saves a book into a real database file, reopens it and expects identical
// contacts.
func TestSQLiteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.db")
	original := createBook(t)

	backend, err := OpenSQLite(path)
	require.NoError(t, err)
	empty, err := backend.Load()
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
	require.NoError(t, backend.Save(original))
	require.NoError(t, backend.Close())

	backend, err = OpenSQLite(path)
	require.NoError(t, err)
	defer backend.Close()
	loaded, err := backend.Load()
	require.NoError(t, err)
	if diff := cmp.Diff(original.Contacts(), loaded.Contacts()); diff != "" {
		t.Errorf("loaded contacts differ (-saved +loaded):\n%s", diff)
	}

	// A second save replaces the previous content.
	require.NoError(t, original.Delete("Adam Krummacker"))
	require.NoError(t, backend.Save(original))
	loaded, err = backend.Load()
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Len())
}
