package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in    string
		want  float64
		valid bool
	}{
		{"", 0, true},
		{"   ", 0, true},
		{"3", 3, true},
		{"2.5", 2.5, true},
		{" 1.5 ", 1.5, true},
		{"-2", -2, true},
		{"3 hours", 3, true},
		{"4.", 4, true},
		{"abc", 0, false},
		{".", 0, false},
		{"-", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			n := ParseNumber(tt.in)
			assert.InDelta(t, tt.want, n.Float(), 1e-9)
			assert.Equal(t, tt.valid, n.Valid())
		})
	}
}

func TestNumber_Int(t *testing.T) {
	assert.Equal(t, 3, ParseNumber("3.9").Int())
	assert.Equal(t, -1, Num(-1.7).Int())
	assert.Equal(t, 0, ParseNumber("x").Int())
}

func TestNumber_Raw(t *testing.T) {
	assert.Equal(t, "2.5", Num(2.5).Raw())
	assert.Equal(t, "two", ParseNumber("two").Raw())
	assert.Equal(t, "0", Number{}.Raw())
}

func TestNumber_JSON(t *testing.T) {
	var b struct {
		Duration Number `json:"duration"`
		Percent  Number `json:"discount_percent"`
		Amount   Number `json:"discount_amount"`
	}
	err := json.Unmarshal([]byte(`{"duration":"2.5","discount_percent":10,"discount_amount":null}`), &b)
	require.NoError(t, err)

	assert.InDelta(t, 2.5, b.Duration.Float(), 1e-9)
	assert.InDelta(t, 10, b.Percent.Float(), 1e-9)
	assert.True(t, b.Amount.IsZero())
	assert.True(t, b.Amount.Valid())

	err = json.Unmarshal([]byte(`{"duration":"soon"}`), &b)
	require.NoError(t, err)
	assert.False(t, b.Duration.Valid())

	out, err := json.Marshal(Num(1.5))
	require.NoError(t, err)
	assert.Equal(t, "1.5", string(out))
}

func TestNumber_Scan(t *testing.T) {
	var n Number

	require.NoError(t, n.Scan(nil))
	assert.True(t, n.IsZero())

	require.NoError(t, n.Scan(int64(4)))
	assert.InDelta(t, 4, n.Float(), 1e-9)

	require.NoError(t, n.Scan([]byte("1.25")))
	assert.InDelta(t, 1.25, n.Float(), 1e-9)

	require.NoError(t, n.Scan("oops"))
	assert.False(t, n.Valid())

	assert.Error(t, n.Scan(true))

	v, err := ParseNumber("oops").Value()
	require.NoError(t, err)
	assert.Equal(t, "oops", v)
}
