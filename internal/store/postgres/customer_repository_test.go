package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crmd/crmd/internal/customer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestRepository(t *testing.T) (*CustomerRepository, *DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db := NewFromSQL(sqlDB)
	return NewCustomerRepository(db, fixedClock(testNow)), db, mock
}

func customerRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "email", "phone", "status", "created_at", "updated_at"})
}

const selectColumns = "id, name, email, phone, status, created_at, updated_at"

// TestPurpose: Validates that create inserts with the generated id and clock timestamps.
// Scope: Unit Test
// Expected: The INSERT ... RETURNING id, status result is copied into the customer.
// Test Case ID: STO-01
func TestCustomerRepository_Create(t *testing.T) {
	repo, _, mock := newTestRepository(t)

	mock.ExpectQuery(`INSERT INTO customers \(name,email,phone,status,created_at,updated_at\) VALUES \(.+\) RETURNING id, status`).
		WithArgs("Ada", "ada@example.com", "555-0100", customer.StatusLead, testNow, testNow).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow(int64(1), customer.StatusLead))

	c := &customer.Customer{Name: "Ada", Email: "ada@example.com", Phone: "555-0100", Status: customer.StatusLead}
	require.NoError(t, repo.Create(context.Background(), c))

	assert.Equal(t, int64(1), c.ID)
	assert.Equal(t, testNow, c.CreatedAt)
	assert.Equal(t, testNow, c.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerRepository_Create_Error(t *testing.T) {
	repo, _, mock := newTestRepository(t)
	boom := errors.New("connection reset")

	mock.ExpectQuery(`INSERT INTO customers`).WillReturnError(boom)

	err := repo.Create(context.Background(), &customer.Customer{Name: "Ada"})
	assert.ErrorIs(t, err, boom)
}

func TestCustomerRepository_GetByID(t *testing.T) {
	repo, _, mock := newTestRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + selectColumns + " FROM customers WHERE id = $1")).
		WithArgs(int64(5)).
		WillReturnRows(customerRows().AddRow(int64(5), "Ada", "ada@example.com", "1", "Active", testNow, testNow))

	c, err := repo.GetByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, &customer.Customer{
		ID: 5, Name: "Ada", Email: "ada@example.com", Phone: "1", Status: "Active",
		CreatedAt: testNow, UpdatedAt: testNow,
	}, c)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerRepository_GetByID_NotFound(t *testing.T) {
	repo, _, mock := newTestRepository(t)

	mock.ExpectQuery(`SELECT .+ FROM customers WHERE id = \$1`).
		WithArgs(int64(404)).
		WillReturnRows(customerRows())

	_, err := repo.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, customer.ErrCustomerNotFound)
}

// TestPurpose: Validates that listing an empty table yields an empty, non-nil slice.
// Scope: Unit Test
// Expected: len 0 and not nil, so the API renders [].
// Test Case ID: STO-02
func TestCustomerRepository_List_Empty(t *testing.T) {
	repo, _, mock := newTestRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + selectColumns + " FROM customers ORDER BY id")).
		WillReturnRows(customerRows())

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCustomerRepository_List(t *testing.T) {
	repo, _, mock := newTestRepository(t)

	mock.ExpectQuery(`SELECT .+ FROM customers ORDER BY id`).
		WillReturnRows(customerRows().
			AddRow(int64(1), "A", "a@example.com", "1", "Lead", testNow, testNow).
			AddRow(int64(2), "B", "b@example.com", "2", "Active", testNow, testNow))

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, "Active", got[1].Status)
}

func TestCustomerRepository_List_RowError(t *testing.T) {
	repo, _, mock := newTestRepository(t)
	boom := errors.New("stream broken")

	mock.ExpectQuery(`SELECT .+ FROM customers`).
		WillReturnRows(customerRows().
			AddRow(int64(1), "A", "a@example.com", "1", "Lead", testNow, testNow).
			RowError(0, boom))

	_, err := repo.List(context.Background())
	assert.ErrorIs(t, err, boom)
}

// TestPurpose: Validates that a status update is one UPDATE ... RETURNING statement touching only status.
// Scope: Unit Test
// Expected: The returned row reflects the new status; other fields are untouched.
// Test Case ID: STO-03
func TestCustomerRepository_UpdateStatus(t *testing.T) {
	repo, _, mock := newTestRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE customers SET status = $1, updated_at = $2 WHERE id = $3 RETURNING " + selectColumns)).
		WithArgs("Active", testNow, int64(3)).
		WillReturnRows(customerRows().AddRow(int64(3), "Ada", "ada@example.com", "1", "Active", testNow, testNow))

	c, err := repo.UpdateStatus(context.Background(), 3, "Active")
	require.NoError(t, err)
	assert.Equal(t, "Active", c.Status)
	assert.Equal(t, "Ada", c.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerRepository_UpdateStatus_NotFound(t *testing.T) {
	repo, _, mock := newTestRepository(t)

	mock.ExpectQuery(`UPDATE customers`).WillReturnRows(customerRows())

	_, err := repo.UpdateStatus(context.Background(), 99999, "Active")
	assert.ErrorIs(t, err, customer.ErrCustomerNotFound)
}

func TestCustomerRepository_Delete(t *testing.T) {
	repo, _, mock := newTestRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM customers WHERE id = $1 RETURNING " + selectColumns)).
		WithArgs(int64(8)).
		WillReturnRows(customerRows().AddRow(int64(8), "Ada", "ada@example.com", "1", "Lead", testNow, testNow))

	c, err := repo.Delete(context.Background(), 8)
	require.NoError(t, err)
	assert.Equal(t, int64(8), c.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerRepository_Delete_NotFound(t *testing.T) {
	repo, _, mock := newTestRepository(t)

	mock.ExpectQuery(`DELETE FROM customers`).WillReturnRows(customerRows())

	_, err := repo.Delete(context.Background(), 99999)
	assert.ErrorIs(t, err, customer.ErrCustomerNotFound)
}

// TestPurpose: Validates that repository calls run on the session bound to the context.
// Scope: Unit Test
// Expected: Queries succeed through the dedicated connection and the session closes cleanly.
// Test Case ID: STO-04
func TestCustomerRepository_UsesSession(t *testing.T) {
	repo, db, mock := newTestRepository(t)

	mock.ExpectQuery(`SELECT .+ FROM customers ORDER BY id`).WillReturnRows(customerRows())

	ctx, closer, err := db.OpenSession(context.Background())
	require.NoError(t, err)

	conn, err := SessionFrom(ctx)
	require.NoError(t, err)
	assert.NotNil(t, conn)

	_, err = repo.List(ctx)
	require.NoError(t, err)

	require.NoError(t, closer.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionFrom_NoSession(t *testing.T) {
	_, err := SessionFrom(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestDB_EnsureSchema(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS customers`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, NewFromSQL(sqlDB).EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNew_UnsupportedDriver(t *testing.T) {
	_, err := New(context.Background(), Config{Driver: "mysql"})
	assert.Error(t, err)
}

func TestConfig_DSN(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", User: "crm", Password: "secret", Database: "crm", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=crm password=secret dbname=crm sslmode=disable", cfg.DSN())
}
