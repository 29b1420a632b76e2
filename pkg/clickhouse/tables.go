package clickhouse

import (
	"context"
	"reflect"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/chdata/pkg/tables"
	"github.com/pseudomuto/chdata/pkg/utils"
)

// ErrTableNotFound is returned when system.columns has no rows for a table.
var ErrTableNotFound = errors.New("table not found")

const columnsQuery = `
	SELECT
		database,
		table,
		name,
		type,
		default_kind,
		default_expression,
		comment,
		is_in_primary_key,
		is_in_sorting_key,
		is_in_partition_key
	FROM system.columns
	WHERE database = ? AND table = ?
	ORDER BY position
`

// TableSchema reads the columns of table from system.columns. The table may be
// qualified ("db.table"); otherwise the default-database property, or the
// server's current database, is used.
//
// Example:
//
//	schema, err := client.TableSchema(ctx, "analytics.page_views")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	for _, col := range schema.Columns {
//		fmt.Printf("%s %s\n", col.Name, col.Type)
//	}
func (c *Client) TableSchema(ctx context.Context, table string) (*tables.Schema, error) {
	if c.isClosed() {
		return nil, ErrClosed
	}

	db, name, err := c.resolveTable(ctx, table)
	if err != nil {
		return nil, err
	}

	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	rows, err := c.conn.Query(ctx, columnsQuery, db, name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query columns of %s.%s", db, name)
	}
	defer func() { _ = rows.Close() }()

	schema := &tables.Schema{Database: db, Table: name}
	for rows.Next() {
		var (
			col                  tables.Column
			rowDB, rowTable      string
			inPK, inSort, inPart uint8
		)

		if err := rows.Scan(
			&rowDB,
			&rowTable,
			&col.Name,
			&col.Type,
			&col.DefaultKind,
			&col.DefaultExpression,
			&col.Comment,
			&inPK,
			&inSort,
			&inPart,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan column row")
		}

		col.InPrimaryKey = inPK == 1
		col.InSortingKey = inSort == 1
		col.InPartitionKey = inPart == 1
		schema.Columns = append(schema.Columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating column rows")
	}

	if len(schema.Columns) == 0 {
		return nil, errors.Wrapf(ErrTableNotFound, "%s.%s", db, name)
	}

	return schema, nil
}

// Register binds each entity to its table and adds it to the client's
// registry. It stops at the first entity that cannot be bound.
//
// Example:
//
//	type PageView struct {
//		URL string    `ch:"url"`
//		TS  time.Time `ch:"ts"`
//	}
//
//	func (PageView) TableName() string { return "analytics.page_views" }
//
//	if err := client.Register(ctx, PageView{}); err != nil {
//		log.Fatal(err)
//	}
func (c *Client) Register(ctx context.Context, entities ...any) error {
	for _, v := range entities {
		entity, err := tables.Describe(v)
		if err != nil {
			return errors.Wrap(err, "failed to describe entity")
		}

		binding, err := c.bind(ctx, entity)
		c.cfg.metrics.TableRegistered(entity.Table, err)
		if err != nil {
			c.cfg.logger.Error().Err(err).Str("table", entity.Table).Stringer("type", entity.Type).Msg("Failed to register table")
			return errors.Wrapf(err, "failed to register %s", entity.Type)
		}

		ev := c.cfg.logger.Info().
			Str("table", binding.Schema.QualifiedName()).
			Stringer("type", entity.Type).
			Int("columns", len(binding.Columns))
		if len(binding.Omitted) > 0 {
			ev = ev.Strs("defaulted", binding.Omitted)
		}
		ev.Msg("Registered table")
	}

	return nil
}

func (c *Client) bind(ctx context.Context, entity *tables.Entity) (*tables.Binding, error) {
	schema, err := c.TableSchema(ctx, entity.Table)
	if err != nil {
		return nil, err
	}

	binding, err := tables.Bind(entity, schema)
	if err != nil {
		return nil, err
	}

	if err := c.registry.Add(binding); err != nil {
		return nil, err
	}

	return binding, nil
}

// Insert writes rows, a slice of a registered entity type (or pointers to
// it), in a single batch and returns the number of rows sent.
func (c *Client) Insert(ctx context.Context, rows any) (int, error) {
	if c.isClosed() {
		return 0, ErrClosed
	}

	t, rv, err := elemType(rows)
	if err != nil {
		return 0, err
	}

	binding, err := c.registry.Lookup(t)
	if err != nil {
		return 0, err
	}

	if rv.Len() == 0 {
		return 0, nil
	}

	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	batch, err := c.conn.PrepareBatch(ctx, binding.InsertQuery())
	if err != nil {
		return 0, errors.Wrapf(err, "failed to prepare insert into %s", binding.Schema.QualifiedName())
	}

	for i := range rv.Len() {
		vals, err := binding.Values(rv.Index(i).Interface())
		if err == nil {
			err = batch.Append(vals...)
		}

		if err != nil {
			_ = batch.Abort()
			return 0, errors.Wrapf(err, "failed to append row %d", i)
		}
	}

	if err := batch.Send(); err != nil {
		return 0, errors.Wrapf(err, "failed to insert into %s", binding.Schema.QualifiedName())
	}

	c.cfg.metrics.Inserted(binding.Schema.QualifiedName(), rv.Len())
	return rv.Len(), nil
}

func (c *Client) resolveTable(ctx context.Context, table string) (string, string, error) {
	table = strings.TrimSpace(table)
	db, name := utils.SplitQualifiedName(table)
	if db == "" {
		db = c.cfg.database
	}

	if name == "" {
		return "", "", errors.Errorf("invalid table name %q", table)
	}

	if db != "" {
		return db, name, nil
	}

	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	if err := c.conn.QueryRow(ctx, "SELECT currentDatabase()").Scan(&db); err != nil {
		return "", "", errors.Wrap(err, "failed to query current database")
	}

	return db, name, nil
}

// entityType is used by callers holding an entity value rather than a slice.
func entityType(v any) reflect.Type {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	return t
}

// Binding returns the registered binding for entity, a value or pointer of a
// registered type.
func (c *Client) Binding(entity any) (*tables.Binding, error) {
	t := entityType(entity)
	if t == nil {
		return nil, errors.New("cannot look up nil entity")
	}

	return c.registry.Lookup(t)
}
