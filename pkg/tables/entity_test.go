package tables_test

import (
	"reflect"
	"testing"
	"time"

	. "github.com/pseudomuto/chdata/pkg/tables"
	"github.com/stretchr/testify/require"
)

type (
	PageView struct {
		URL       string    `ch:"url"`
		Referrer  *string   `ch:"referrer"`
		Timestamp time.Time `ch:"ts"`
		Internal  string    `ch:"-"`
		Hits      uint64
		private   string
	}

	Audit struct {
		CreatedBy string `ch:"created_by"`
	}

	Order struct {
		Audit
		ID uint64 `ch:"id,omitempty"`
	}

	Shipment struct {
		*Audit
		ID uint64 `ch:"id"`
	}

	ptrNamed struct {
		ID uint64 `ch:"id"`
	}

	dupes struct {
		A string `ch:"x"`
		B string `ch:"x"`
	}

	nothing struct {
		Skip string `ch:"-"`
	}
)

func (PageView) TableName() string  { return "analytics.page_views" }
func (*ptrNamed) TableName() string { return "events" }

func TestDescribe(t *testing.T) {
	e, err := Describe(PageView{})
	require.NoError(t, err)

	require.Equal(t, reflect.TypeOf(PageView{}), e.Type)
	require.Equal(t, "analytics.page_views", e.Table)
	require.Equal(t, "analytics", e.Database())
	require.Equal(t, "page_views", e.Name())

	cols := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		cols[i] = f.Column
	}
	require.Equal(t, []string{"url", "referrer", "ts", "Hits"}, cols)

	f, ok := e.Field("referrer")
	require.True(t, ok)
	require.Equal(t, "Referrer", f.Name)
	require.Equal(t, []int{1}, f.Index)

	_, ok = e.Field("Internal")
	require.False(t, ok)
}

func TestDescribe_Pointer(t *testing.T) {
	e, err := Describe(&PageView{})
	require.NoError(t, err)
	require.Equal(t, reflect.TypeOf(PageView{}), e.Type)
}

func TestDescribe_TableName(t *testing.T) {
	e, err := Describe(ptrNamed{})
	require.NoError(t, err)
	require.Equal(t, "events", e.Table)
	require.Empty(t, e.Database())

	e, err = Describe(Order{})
	require.NoError(t, err)
	require.Equal(t, "Order", e.Table)
}

func TestDescribe_Embedded(t *testing.T) {
	e, err := Describe(Order{})
	require.NoError(t, err)
	require.Len(t, e.Fields, 2)
	require.Equal(t, "created_by", e.Fields[0].Column)
	require.Equal(t, []int{0, 0}, e.Fields[0].Index)
	require.Equal(t, "id", e.Fields[1].Column)
}

func TestDescribe_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   any
		err  string
	}{
		{name: "nil", in: nil, err: "cannot describe nil entity"},
		{name: "not a struct", in: 42, err: "entity must be a struct"},
		{name: "duplicate columns", in: dupes{}, err: `maps column "x" twice`},
		{name: "no columns", in: nothing{}, err: "has no columns"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Describe(tt.in)
			require.ErrorContains(t, err, tt.err)
		})
	}
}
