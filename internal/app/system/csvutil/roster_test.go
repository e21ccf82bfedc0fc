package csvutil

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoster_HeaderAndRows(t *testing.T) {
	in := "Full Name,Email,Phone\n" +
		"Ana Diaz, ANA@example.org ,555-0100\n" +
		"\n" +
		"Ben Ode,ben@example.org\n"

	res, err := ParseRoster(strings.NewReader(in))
	require.NoError(t, err)
	assert.False(t, res.HasErrors())
	require.Len(t, res.Rows, 2)
	assert.Equal(t, RosterRow{Line: 2, FullName: "Ana Diaz", Email: "ana@example.org", Phone: "555-0100"}, res.Rows[0])
	assert.Equal(t, 4, res.Rows[1].Line)
}

func TestParseRoster_NoHeader(t *testing.T) {
	res, err := ParseRoster(strings.NewReader("Cam Lee,cam@example.org\n"))
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, 1, res.Rows[0].Line)
}

func TestParseRoster_RowErrors(t *testing.T) {
	in := "name,email\n" +
		",missing@example.org\n" +
		"Bad Email,not-an-email\n" +
		"Dee,dee@example.org\n" +
		"Dee Again,DEE@example.org\n"

	res, err := ParseRoster(strings.NewReader(in))
	require.NoError(t, err)
	require.True(t, res.HasErrors())
	require.Len(t, res.Errors, 3)
	assert.Equal(t, 2, res.Errors[0].Line)
	assert.Equal(t, 3, res.Errors[1].Line)
	assert.Equal(t, "duplicate of line 4", res.Errors[2].Reason)
	assert.Len(t, res.Rows, 1)
}

func TestParseRoster_TooManyRows(t *testing.T) {
	var b strings.Builder
	for i := 0; i <= MaxRows; i++ {
		fmt.Fprintf(&b, "Member %d,m%d@example.org\n", i, i)
	}
	_, err := ParseRoster(strings.NewReader(b.String()))
	assert.True(t, errors.Is(err, ErrTooManyRows))
}
