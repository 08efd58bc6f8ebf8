package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDDecodesStringsAndNumbers(t *testing.T) {
	var got struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"abc","b":42,"c":null}`), &got))

	assert.Equal(t, ID("abc"), got.A)
	assert.Equal(t, ID("42"), got.B)
	assert.True(t, got.C.IsZero())
}

func TestIDRejectsObjects(t *testing.T) {
	var id ID
	assert.Error(t, json.Unmarshal([]byte(`{"x":1}`), &id))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-09")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2024, time.March, 9), d)

	empty, err := ParseDate("  ")
	require.NoError(t, err)
	assert.True(t, empty.IsZero())

	_, err = ParseDate("09/03/2024")
	assert.ErrorContains(t, err, "use YYYY-MM-DD")
}

func TestDateJSON(t *testing.T) {
	out, err := json.Marshal(struct {
		Due  Date `json:"due"`
		None Date `json:"none"`
	}{Due: MustDate("2024-12-31")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"due":"2024-12-31","none":null}`, string(out))

	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2024-05-01T13:45:00Z"`), &d))
	assert.Equal(t, "2024-05-01", d.String())
}

func TestDateOrdering(t *testing.T) {
	a := MustDate("2024-01-31")
	b := a.AddDays(1)

	assert.Equal(t, "2024-02-01", b.String())
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 0, a.Compare(MustDate("2024-01-31")))
}

func TestDateScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan("2024-07-04"))
	assert.Equal(t, "2024-07-04", d.String())

	require.NoError(t, d.Scan(time.Date(2024, time.July, 5, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-07-05", d.String())

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	assert.Error(t, d.Scan(42))

	v, err := MustDate("2024-07-04").Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-07-04", v)
}

func TestPriorityAndStatusRanks(t *testing.T) {
	assert.Greater(t, PriorityHigh.Rank(), PriorityMedium.Rank())
	assert.Greater(t, PriorityMedium.Rank(), PriorityLow.Rank())
	assert.False(t, Priority("urgent").Valid())
	assert.Equal(t, "High", PriorityHigh.Label())

	assert.True(t, StatusTodo.Valid())
	assert.False(t, Status("archived").Valid())
	assert.Equal(t, 4, Status("archived").Rank())
}

func TestColorValid(t *testing.T) {
	for _, c := range Colors {
		assert.True(t, c.Valid(), c)
	}
	assert.False(t, Color("teal").Valid())
}
