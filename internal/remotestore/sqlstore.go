package remotestore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"slices"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"

	"github.com/allisson/writequeue/internal/database"
	"github.com/allisson/writequeue/internal/validation"
	"github.com/allisson/writequeue/internal/writequeue/domain"
)

// PostgreSQL SQLSTATE classes and codes that are worth retrying.
var (
	transientPQClasses = []string{"08", "53", "57"}
	transientPQCodes   = []string{"40001", "40P01"}
)

// MySQL server and client error numbers that are worth retrying.
var transientMySQLErrors = []uint16{1040, 1205, 1213, 2006, 2013}

const mysqlDuplicateEntry = 1062

// SQLStore inserts rows directly into a PostgreSQL or MySQL database.
type SQLStore struct {
	db        *sql.DB
	driver    string
	txManager database.TxManager
}

// NewSQLStore creates a new SQLStore for a database opened with driver.
func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{
		db:        db,
		driver:    driver,
		txManager: database.NewTxManager(db),
	}
}

// Insert writes all rows with a single multi-row INSERT in one transaction.
// Every row must have the same columns.
func (s *SQLStore) Insert(ctx context.Context, table string, rows []domain.Row) error {
	query, args, err := s.buildInsert(table, rows)
	if err != nil {
		return domain.NewPermanentError(0, "", err.Error(), domain.ErrInvalidPayload)
	}

	err = s.txManager.WithTx(ctx, func(ctx context.Context) error {
		_, err := database.GetTx(ctx, s.db).ExecContext(ctx, query, args...)
		return err
	})
	if err != nil {
		return classifySQLError(err)
	}
	return nil
}

func (s *SQLStore) buildInsert(table string, rows []domain.Row) (string, []any, error) {
	if !validation.IsIdentifier(table) {
		return "", nil, fmt.Errorf("invalid table name %q", table)
	}
	if len(rows) == 0 {
		return "", nil, errors.New("no rows to insert")
	}

	columns := make([]string, 0, len(rows[0]))
	for column := range rows[0] {
		if !validation.IsIdentifier(column) {
			return "", nil, fmt.Errorf("invalid column name %q", column)
		}
		columns = append(columns, column)
	}
	slices.Sort(columns)

	quoted := make([]string, len(columns))
	for i, column := range columns {
		quoted[i] = s.quote(column)
	}

	args := make([]any, 0, len(rows)*len(columns))
	tuples := make([]string, 0, len(rows))
	for i, row := range rows {
		if len(row) != len(columns) {
			return "", nil, fmt.Errorf("row %d has a different column set", i)
		}
		placeholders := make([]string, len(columns))
		for j, column := range columns {
			value, ok := row[column]
			if !ok {
				return "", nil, fmt.Errorf("row %d is missing column %q", i, column)
			}
			arg, err := columnValue(value)
			if err != nil {
				return "", nil, fmt.Errorf("row %d column %q: %w", i, column, err)
			}
			args = append(args, arg)
			placeholders[j] = s.placeholder(len(args))
		}
		tuples = append(tuples, "("+strings.Join(placeholders, ", ")+")")
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		s.quote(table), strings.Join(quoted, ", "), strings.Join(tuples, ", "))
	return query, args, nil
}

func (s *SQLStore) quote(identifier string) string {
	if s.driver == database.DriverMySQL {
		return "`" + identifier + "`"
	}
	return `"` + identifier + `"`
}

func (s *SQLStore) placeholder(n int) string {
	if s.driver == database.DriverMySQL {
		return "?"
	}
	return "$" + strconv.Itoa(n)
}

// columnValue converts a decoded JSON value to a driver argument. Nested
// objects and arrays are stored as JSON text.
func columnValue(value any) (any, error) {
	switch v := value.(type) {
	case nil, string, bool, float64, int, int64:
		return v, nil
	case json.Number:
		return v.String(), nil
	case map[string]any, []any, domain.Row:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return string(data), nil
	default:
		return v, nil
	}
}

// classifySQLError tags driver errors as transient or permanent. Errors the
// drivers do not type are returned unchanged for the error classifier.
func classifySQLError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return domain.NewTransientError(0, "", "connection lost", err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		code := string(pqErr.Code)
		if slices.Contains(transientPQCodes, code) || slices.Contains(transientPQClasses, code[:min(2, len(code))]) {
			return domain.NewTransientError(0, code, pqErr.Message, err)
		}
		return domain.NewPermanentError(0, code, pqErr.Message, err)
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		if slices.Contains(transientMySQLErrors, myErr.Number) {
			return domain.NewTransientError(0, strconv.Itoa(int(myErr.Number)), myErr.Message, err)
		}
		code := strconv.Itoa(int(myErr.Number))
		if myErr.Number == mysqlDuplicateEntry {
			// Reported under the SQLSTATE unique violation code.
			code = "23505"
		}
		return domain.NewPermanentError(0, code, myErr.Message, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.NewTransientError(0, "", "network error", err)
	}

	return err
}
