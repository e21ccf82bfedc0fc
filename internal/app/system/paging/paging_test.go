package paging

import (
	"net/http/httptest"
	"testing"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestTrimPage(t *testing.T) {
	tests := []struct {
		name          string
		rows          int
		before, after string
		wantLen       int
		want          Result
	}{
		{"short first page", 3, "", "", 3, Result{}},
		{"full first page", PageSize + 1, "", "", PageSize, Result{HasNext: true}},
		{"last forward page", 3, "", "c", 3, Result{HasPrev: true}},
		{"middle forward page", PageSize + 1, "", "c", PageSize, Result{HasPrev: true, HasNext: true}},
		{"middle backward page", PageSize + 1, "c", "", PageSize, Result{HasPrev: true, HasNext: true}},
		{"first backward page", 3, "c", "", 3, Result{HasNext: true}},
		{"empty", 0, "", "", 0, Result{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := seq(tt.rows)
			got := TrimPage(&rows, tt.before, tt.after)
			assert.Len(t, rows, tt.wantLen)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTrimPage_BackwardKeepsRowsNearestCursor(t *testing.T) {
	// A backward fetch arrives newest-first; row 0 sits right before the cursor.
	rows := seq(PageSize + 1)
	TrimPage(&rows, "c", "")
	Reverse(rows)
	require.Len(t, rows, PageSize)
	assert.Equal(t, PageSize-1, rows[0])
	assert.Equal(t, 0, rows[len(rows)-1])
}

func TestConfigureKeyset(t *testing.T) {
	id := primitive.NewObjectID()
	cursor := wafflemongo.EncodeCursor("ana lopez", id)

	first := ConfigureKeyset("", "")
	assert.Equal(t, Forward, first.Direction)
	assert.Equal(t, 1, first.SortOrder)
	assert.Nil(t, first.Cursor)
	assert.Nil(t, first.KeysetWindow("full_name_ci"))

	fwd := ConfigureKeyset("", cursor)
	require.NotNil(t, fwd.Cursor)
	assert.Equal(t, "ana lopez", fwd.Cursor.CI)
	assert.Equal(t, id, fwd.Cursor.ID)
	assert.NotNil(t, fwd.KeysetWindow("full_name_ci"))

	back := ConfigureKeyset(cursor, "ignored")
	assert.Equal(t, Backward, back.Direction)
	assert.Equal(t, -1, back.SortOrder)

	garbage := ConfigureKeyset("", "%%%")
	assert.Nil(t, garbage.Cursor, "undecodable cursor falls back to the first page")
}

func TestCursors(t *testing.T) {
	r := httptest.NewRequest("GET", "/?after=abc&before=xyz", nil)
	before, after := Cursors(r)
	assert.Equal(t, "xyz", before)
	assert.Equal(t, "abc", after)
}

func TestBuildCursors(t *testing.T) {
	type row struct {
		key string
		id  primitive.ObjectID
	}
	key := func(r row) string { return r.key }
	oid := func(r row) primitive.ObjectID { return r.id }

	prev, next := BuildCursors([]row{}, key, oid)
	assert.Empty(t, prev)
	assert.Empty(t, next)

	rows := []row{{"ana", primitive.NewObjectID()}, {"ben", primitive.NewObjectID()}}
	prev, next = BuildCursors(rows, key, oid)
	assert.NotEqual(t, prev, next)
	c, ok := wafflemongo.DecodeCursor(next)
	require.True(t, ok)
	assert.Equal(t, "ben", c.CI)
	assert.Equal(t, rows[1].id, c.ID)
}
