package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/passport-office-api/internal/models"
	"github.com/noah-isme/passport-office-api/internal/query"
)

const personColumns = "id, first_name, last_name, middle_name, birth_date, passport_series, passport_number"

const (
	insertPersonQuery = `INSERT INTO persons (first_name, last_name, middle_name, birth_date, passport_series, passport_number)
        VALUES (?, ?, ?, ?, ?, ?) RETURNING id`
	updatePersonQuery = `UPDATE persons SET first_name = ?, last_name = ?, middle_name = ?, birth_date = ?, passport_series = ?, passport_number = ? WHERE id = ?`
	deletePersonQuery = `DELETE FROM persons WHERE id = ?`
)

// PersonRepository stores person records in a relational database.
type PersonRepository struct {
	db      *sqlx.DB
	dialect Dialect
}

// NewPersonRepository constructs a PersonRepository.
func NewPersonRepository(db *sqlx.DB, dialect Dialect) *PersonRepository {
	return &PersonRepository{db: db, dialect: dialect}
}

// List returns the records matching criteria, ordered by mode and cut to the
// requested page. Paging is skipped when the page request is disabled.
func (r *PersonRepository) List(ctx context.Context, criteria models.PersonCriteria, mode models.SortMode, page models.PageRequest) ([]models.Person, error) {
	where, args := whereClause(criteria)
	stmt := fmt.Sprintf("SELECT %s FROM persons%s ORDER BY %s", personColumns, where, r.orderBy(mode))
	if page.Enabled() {
		stmt += fmt.Sprintf(" LIMIT %d OFFSET %d", page.Size, page.Offset())
	}

	people := []models.Person{}
	err := r.withConn(ctx, func(conn *sqlx.Conn) error {
		return conn.SelectContext(ctx, &people, r.db.Rebind(stmt), args...)
	})
	if err != nil {
		return nil, fmt.Errorf("list persons: %w", err)
	}
	return people, nil
}

// Count returns how many records match criteria.
func (r *PersonRepository) Count(ctx context.Context, criteria models.PersonCriteria) (int, error) {
	where, args := whereClause(criteria)
	stmt := "SELECT COUNT(*) FROM persons" + where

	var total int
	err := r.withConn(ctx, func(conn *sqlx.Conn) error {
		return conn.GetContext(ctx, &total, r.db.Rebind(stmt), args...)
	})
	if err != nil {
		return 0, fmt.Errorf("count persons: %w", err)
	}
	return total, nil
}

// FindByID fetches a record by id. A missing record yields sql.ErrNoRows.
func (r *PersonRepository) FindByID(ctx context.Context, id int64) (*models.Person, error) {
	stmt := r.db.Rebind("SELECT " + personColumns + " FROM persons WHERE id = ?")

	var person models.Person
	err := r.withConn(ctx, func(conn *sqlx.Conn) error {
		return conn.GetContext(ctx, &person, stmt, id)
	})
	if err != nil {
		return nil, fmt.Errorf("find person %d: %w", id, err)
	}
	return &person, nil
}

// RemoveAll deletes every record and returns how many were removed.
func (r *PersonRepository) RemoveAll(ctx context.Context) (int64, error) {
	var removed int64
	err := r.withConn(ctx, func(conn *sqlx.Conn) error {
		res, err := conn.ExecContext(ctx, "DELETE FROM persons")
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("remove all persons: %w", err)
	}
	return removed, nil
}

// Save applies the change set in one transaction. Creates run first, then
// updates, then deletes. Updating or deleting a missing id fails the whole
// set with sql.ErrNoRows.
func (r *PersonRepository) Save(ctx context.Context, changes models.PersonChangeSet) (result models.PersonSaveResult, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.PersonSaveResult{}, fmt.Errorf("begin person save: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			result = models.PersonSaveResult{}
		}
	}()

	insertStmt := tx.Rebind(insertPersonQuery)
	for _, in := range changes.Create {
		var id int64
		if err = tx.QueryRowxContext(ctx, insertStmt, in.FirstName, in.LastName, in.MiddleName,
			query.CalendarDate(in.BirthDate), in.PassportSeries, in.PassportNumber).Scan(&id); err != nil {
			return result, fmt.Errorf("insert person: %w", err)
		}
		result.CreatedIDs = append(result.CreatedIDs, id)
	}

	updateStmt := tx.Rebind(updatePersonQuery)
	for _, upd := range changes.Update {
		if err = execOne(ctx, tx, updateStmt, upd.FirstName, upd.LastName, upd.MiddleName,
			query.CalendarDate(upd.BirthDate), upd.PassportSeries, upd.PassportNumber, upd.ID); err != nil {
			return result, fmt.Errorf("update person %d: %w", upd.ID, err)
		}
		result.Updated++
	}

	deleteStmt := tx.Rebind(deletePersonQuery)
	for _, id := range changes.Delete {
		if err = execOne(ctx, tx, deleteStmt, id); err != nil {
			return result, fmt.Errorf("delete person %d: %w", id, err)
		}
		result.Deleted++
	}

	if err = tx.Commit(); err != nil {
		return result, fmt.Errorf("commit person save: %w", err)
	}
	return result, nil
}

// Ping verifies the database is reachable.
func (r *PersonRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// withConn runs fn on a dedicated connection that is returned to the pool
// on every exit path.
func (r *PersonRepository) withConn(ctx context.Context, fn func(conn *sqlx.Conn) error) error {
	conn, err := r.db.Connx(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()
	return fn(conn)
}

func (r *PersonRepository) orderBy(mode models.SortMode) string {
	columns := query.OrderColumns(mode)
	parts := make([]string, 0, len(columns))
	for _, column := range columns {
		parts = append(parts, column+r.dialect.textCollation(column))
	}
	return strings.Join(parts, ", ")
}

func whereClause(criteria models.PersonCriteria) (string, []interface{}) {
	stages := query.ActiveStages(criteria)
	if len(stages) == 0 {
		return "", nil
	}

	conditions := make([]string, 0, len(stages))
	args := make([]interface{}, 0, len(stages)*2)
	for _, stage := range stages {
		switch stage.Kind {
		case query.KindDate:
			conditions = append(conditions, stage.Column+" = ?")
			args = append(args, stage.Date(criteria))
		default:
			text := stage.Text(criteria)
			conditions = append(conditions, fmt.Sprintf("substr(%s, 1, ?) = ?", stage.Column))
			args = append(args, utf8.RuneCountInString(text), text)
		}
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func execOne(ctx context.Context, tx *sqlx.Tx, stmt string, args ...interface{}) error {
	res, err := tx.ExecContext(ctx, stmt, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
