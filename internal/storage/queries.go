package storage

import (
	"context"
	"database/sql"
)

type Entry struct {
	ID             int64
	EntryType      string
	Position       int64
	Amount         string
	Description    string
	Category       string
	RecurrenceType string
	StartDate      string
	Every          int64
	EndDate        sql.NullString
}

type Category struct {
	EntryType string
	Name      string
}

const createEntry = `-- name: CreateEntry :exec
INSERT INTO entries (entry_type, position, amount, description, category, recurrence_type, start_date, every, end_date)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateEntryParams struct {
	EntryType      string
	Position       int64
	Amount         string
	Description    string
	Category       string
	RecurrenceType string
	StartDate      string
	Every          int64
	EndDate        sql.NullString
}

func (q *Queries) CreateEntry(ctx context.Context, arg CreateEntryParams) error {
	_, err := q.db.ExecContext(ctx, createEntry,
		arg.EntryType,
		arg.Position,
		arg.Amount,
		arg.Description,
		arg.Category,
		arg.RecurrenceType,
		arg.StartDate,
		arg.Every,
		arg.EndDate,
	)
	return err
}

const listEntries = `-- name: ListEntries :many
SELECT id, entry_type, position, amount, description, category, recurrence_type, start_date, every, end_date
FROM entries
ORDER BY entry_type DESC, position
`

// ListEntries returns INCOME rows before EXPENSE rows, each in position order.
func (q *Queries) ListEntries(ctx context.Context) ([]Entry, error) {
	rows, err := q.db.QueryContext(ctx, listEntries)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Entry
	for rows.Next() {
		var i Entry
		if err := rows.Scan(
			&i.ID,
			&i.EntryType,
			&i.Position,
			&i.Amount,
			&i.Description,
			&i.Category,
			&i.RecurrenceType,
			&i.StartDate,
			&i.Every,
			&i.EndDate,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteAllEntries = `-- name: DeleteAllEntries :exec
DELETE FROM entries
`

func (q *Queries) DeleteAllEntries(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllEntries)
	return err
}

const countEntries = `-- name: CountEntries :one
SELECT COUNT(*) FROM entries
`

func (q *Queries) CountEntries(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countEntries)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createCategory = `-- name: CreateCategory :exec
INSERT OR IGNORE INTO categories (entry_type, name) VALUES (?, ?)
`

func (q *Queries) CreateCategory(ctx context.Context, entryType, name string) error {
	_, err := q.db.ExecContext(ctx, createCategory, entryType, name)
	return err
}

const listCategories = `-- name: ListCategories :many
SELECT entry_type, name FROM categories ORDER BY entry_type, name
`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		var i Category
		if err := rows.Scan(&i.EntryType, &i.Name); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteAllCategories = `-- name: DeleteAllCategories :exec
DELETE FROM categories
`

func (q *Queries) DeleteAllCategories(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllCategories)
	return err
}

const getSetting = `-- name: GetSetting :one
SELECT value FROM settings WHERE key = ?
`

func (q *Queries) GetSetting(ctx context.Context, key string) (string, error) {
	row := q.db.QueryRowContext(ctx, getSetting, key)
	var value string
	err := row.Scan(&value)
	return value, err
}

const upsertSetting = `-- name: UpsertSetting :exec
INSERT INTO settings (key, value) VALUES (?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value
`

func (q *Queries) UpsertSetting(ctx context.Context, key, value string) error {
	_, err := q.db.ExecContext(ctx, upsertSetting, key, value)
	return err
}
