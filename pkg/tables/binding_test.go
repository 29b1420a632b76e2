package tables_test

import (
	"testing"
	"time"

	. "github.com/pseudomuto/chdata/pkg/tables"
	"github.com/stretchr/testify/require"
)

func pageViewSchema() *Schema {
	return &Schema{
		Database: "analytics",
		Table:    "page_views",
		Columns: []Column{
			{Name: "ts", Type: "DateTime64(3, 'UTC')", InSortingKey: true},
			{Name: "url", Type: "LowCardinality(String)"},
			{Name: "referrer", Type: "Nullable(String)"},
			{Name: "Hits", Type: "UInt64", DefaultKind: DefaultKindDefault, DefaultExpression: "0"},
			{Name: "day", Type: "Date", DefaultKind: DefaultKindMaterialized, DefaultExpression: "toDate(ts)"},
			{Name: "country", Type: "Nullable(String)"},
		},
	}
}

func TestBind(t *testing.T) {
	e, err := Describe(PageView{})
	require.NoError(t, err)

	b, err := Bind(e, pageViewSchema())
	require.NoError(t, err)

	require.Equal(t, []string{"ts", "url", "referrer", "Hits"}, b.Columns)
	require.Equal(t, []string{"country"}, b.Omitted)
	require.Equal(t, "INSERT INTO `analytics`.`page_views` (`ts`, `url`, `referrer`, `Hits`)", b.InsertQuery())
}

func TestBind_Mismatch(t *testing.T) {
	e, err := Describe(PageView{})
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Schema)
		err    string
	}{
		{
			name:   "missing column",
			mutate: func(s *Schema) { s.Columns = s.Columns[1:] },
			err:    `column "ts" (field Timestamp) does not exist`,
		},
		{
			name:   "incompatible type",
			mutate: func(s *Schema) { s.Columns[1].Type = "UInt32" },
			err:    `field URL (string) cannot be written to column "url" of type UInt32`,
		},
		{
			name:   "not nullable",
			mutate: func(s *Schema) { s.Columns[2].Type = "String" },
			err:    `column "referrer" of type String`,
		},
		{
			name: "materialized",
			mutate: func(s *Schema) {
				s.Columns[3].DefaultKind = DefaultKindMaterialized
			},
			err: `column "Hits" is MATERIALIZED and cannot be inserted`,
		},
		{
			name:   "unmapped without default",
			mutate: func(s *Schema) { s.Columns[5].Type = "String" },
			err:    `column "country" has no default and is not mapped`,
		},
		{
			name:   "bad type",
			mutate: func(s *Schema) { s.Columns[1].Type = "Array(" },
			err:    `column "url": failed to parse type`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := pageViewSchema()
			tt.mutate(s)

			_, err := Bind(e, s)
			require.ErrorIs(t, err, ErrSchemaMismatch)
			require.ErrorContains(t, err, tt.err)
		})
	}
}

func TestBinding_Values(t *testing.T) {
	e, err := Describe(PageView{})
	require.NoError(t, err)

	b, err := Bind(e, pageViewSchema())
	require.NoError(t, err)

	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	ref := "https://example.com"
	row := PageView{URL: "/", Referrer: &ref, Timestamp: ts, Hits: 3}

	vals, err := b.Values(row)
	require.NoError(t, err)
	require.Equal(t, []any{ts, "/", &ref, uint64(3)}, vals)

	vals, err = b.Values(&row)
	require.NoError(t, err)
	require.Len(t, vals, 4)

	_, err = b.Values(Order{})
	require.ErrorContains(t, err, "does not match entity")

	_, err = b.Values((*PageView)(nil))
	require.ErrorContains(t, err, "nil row")
}

func TestBinding_Values_NilEmbeddedPointer(t *testing.T) {
	e, err := Describe(Shipment{})
	require.NoError(t, err)

	b, err := Bind(e, &Schema{
		Table: "Shipment",
		Columns: []Column{
			{Name: "created_by", Type: "String", DefaultKind: DefaultKindDefault, DefaultExpression: "currentUser()"},
			{Name: "id", Type: "UInt64"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"created_by", "id"}, b.Columns)

	// the column stays in the insert, so the zero value replaces the default
	vals, err := b.Values(Shipment{ID: 7})
	require.NoError(t, err)
	require.Equal(t, []any{"", uint64(7)}, vals)

	vals, err = b.Values(Shipment{Audit: &Audit{CreatedBy: "ops"}, ID: 8})
	require.NoError(t, err)
	require.Equal(t, []any{"ops", uint64(8)}, vals)
}

func TestColumn_HasDefault(t *testing.T) {
	require.True(t, (&Column{Type: "String", DefaultKind: DefaultKindDefault}).HasDefault())
	require.True(t, (&Column{Type: "Nullable(UInt8)"}).HasDefault())
	require.False(t, (&Column{Type: "UInt8"}).HasDefault())
	require.False(t, (&Column{Type: "Array("}).HasDefault())
}
