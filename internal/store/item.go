package store

import (
	"context"
	"database/sql"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

type itemRepo struct {
	s *Store
}

var itemColumns = []string{"id", "title", "description", "link", "created_at", "updated_at"}

func (r *itemRepo) Create(ctx context.Context, item Item) error {
	query, args := sq.Insert("items").
		Columns(itemColumns...).
		Values(item.ID, item.Title, item.Description, item.Link,
			FormatTime(item.CreatedAt), FormatTime(item.UpdatedAt)).
		Query()
	if err := r.s.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("create item: %w", err)
	}
	return nil
}

func (r *itemRepo) Get(ctx context.Context, id string) (*Item, error) {
	query, args := sq.Select(itemColumns...).
		From(entsql.Table("items")).
		Where(entsql.EQ("id", id)).
		Query()
	items, err := queryItems(ctx, r.s.drv, query, args)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

func (r *itemRepo) List(ctx context.Context, opts QueryOpts) ([]Item, error) {
	sel := sq.Select(itemColumns...).
		From(entsql.Table("items")).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id"))
	if !opts.From.IsZero() {
		sel.Where(entsql.GTE("created_at", FormatTime(opts.From)))
	}
	if !opts.To.IsZero() {
		sel.Where(entsql.LTE("created_at", FormatTime(opts.To)))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
	query, args := sel.Query()
	items, err := queryItems(ctx, r.s.drv, query, args)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

func (r *itemRepo) Update(ctx context.Context, item Item) (bool, error) {
	query, args := sq.Update("items").
		Set("title", item.Title).
		Set("description", item.Description).
		Set("link", item.Link).
		Set("updated_at", FormatTime(item.UpdatedAt)).
		Where(entsql.EQ("id", item.ID)).
		Query()
	var res sql.Result
	if err := r.s.drv.Exec(ctx, query, args, &res); err != nil {
		return false, fmt.Errorf("update item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update item: rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *itemRepo) Delete(ctx context.Context, id string) (bool, error) {
	r.s.writeMu.Lock()
	defer r.s.writeMu.Unlock()

	tx, err := r.s.drv.Tx(ctx)
	if err != nil {
		return false, fmt.Errorf("delete item: begin: %w", err)
	}

	for _, table := range []string{"schedule_events", "schedules"} {
		query, args := sq.Delete(table).Where(entsql.EQ("item_id", id)).Query()
		if err := tx.Exec(ctx, query, args, nil); err != nil {
			return false, rollback(tx, fmt.Errorf("delete item: %s: %w", table, err))
		}
	}

	query, args := sq.Delete("items").Where(entsql.EQ("id", id)).Query()
	var res sql.Result
	if err := tx.Exec(ctx, query, args, &res); err != nil {
		return false, rollback(tx, fmt.Errorf("delete item: %w", err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, rollback(tx, fmt.Errorf("delete item: rows affected: %w", err))
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("delete item: commit: %w", err)
	}
	return n > 0, nil
}

func queryItems(ctx context.Context, q dialect.ExecQuerier, query string, args []any) ([]Item, error) {
	var rows entsql.Rows
	if err := q.Query(ctx, query, args, &rows); err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var (
			it                   Item
			createdAt, updatedAt string
		)
		if err := rows.Scan(&it.ID, &it.Title, &it.Description, &it.Link, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		var err error
		if it.CreatedAt, err = ParseTime(createdAt); err != nil {
			return nil, err
		}
		if it.UpdatedAt, err = ParseTime(updatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
