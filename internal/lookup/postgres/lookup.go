package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/frahmantamala/claim-management/internal"
	lookupDatamodel "github.com/frahmantamala/claim-management/internal/core/datamodel/lookup"
	"github.com/frahmantamala/claim-management/internal/lookup"
	"github.com/jmoiron/sqlx"
)

type LookupRepository struct {
	db *sqlx.DB
}

func NewLookupRepository(db *sqlx.DB) lookup.RepositoryAPI {
	return &LookupRepository{db: db}
}

var existsQueries = map[lookup.Table]string{
	lookup.TableEmployees:    `SELECT COUNT(1) FROM employees WHERE id = ?`,
	lookup.TableEventTypes:   `SELECT COUNT(1) FROM event_types WHERE id = ? AND is_active = TRUE`,
	lookup.TableCurrencies:   `SELECT COUNT(1) FROM currencies WHERE id = ? AND is_active = TRUE`,
	lookup.TableExpenseTypes: `SELECT COUNT(1) FROM expense_types WHERE id = ? AND is_active = TRUE`,
}

func (r *LookupRepository) Exists(ctx context.Context, table lookup.Table, id int64) (bool, error) {
	query, ok := existsQueries[table]
	if !ok {
		return false, fmt.Errorf("unknown lookup table %q", table)
	}

	ctx, cancel := internal.WithTimeout(ctx, 0)
	defer cancel()

	var count int64
	if err := r.db.GetContext(ctx, &count, r.db.Rebind(query), id); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *LookupRepository) GetEmployee(ctx context.Context, id int64) (*lookupDatamodel.Employee, error) {
	ctx, cancel := internal.WithTimeout(ctx, 0)
	defer cancel()

	var employee lookupDatamodel.Employee
	query := r.db.Rebind(`
		SELECT id, employee_no, full_name, department, is_active, created_at
		FROM employees
		WHERE id = ?`)
	if err := r.db.GetContext(ctx, &employee, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, lookup.ErrEmployeeNotFound
		}
		return nil, err
	}
	return &employee, nil
}

func (r *LookupRepository) ListEventTypes(ctx context.Context) ([]*lookupDatamodel.EventType, error) {
	ctx, cancel := internal.WithTimeout(ctx, 0)
	defer cancel()

	var rows []*lookupDatamodel.EventType
	err := r.db.SelectContext(ctx, &rows, `SELECT id, name, description, is_active FROM event_types ORDER BY name ASC`)
	return rows, err
}

func (r *LookupRepository) ListCurrencies(ctx context.Context) ([]*lookupDatamodel.Currency, error) {
	ctx, cancel := internal.WithTimeout(ctx, 0)
	defer cancel()

	var rows []*lookupDatamodel.Currency
	err := r.db.SelectContext(ctx, &rows, `SELECT id, code, name, symbol, is_active FROM currencies ORDER BY code ASC`)
	return rows, err
}

func (r *LookupRepository) ListExpenseTypes(ctx context.Context) ([]*lookupDatamodel.ExpenseType, error) {
	ctx, cancel := internal.WithTimeout(ctx, 0)
	defer cancel()

	var rows []*lookupDatamodel.ExpenseType
	err := r.db.SelectContext(ctx, &rows, `SELECT id, name, description, is_active FROM expense_types ORDER BY name ASC`)
	return rows, err
}
