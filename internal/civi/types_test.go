package civi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{`5`, 5},
		{`"5"`, 5},
		{`""`, 0},
		{`null`, 0},
	}
	for _, tt := range tests {
		var i Int
		require.NoError(t, json.Unmarshal([]byte(tt.in), &i), tt.in)
		assert.Equal(t, tt.want, i.Int(), tt.in)
	}

	var i Int
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &i))
}

func TestBoolUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{`true`, true},
		{`false`, false},
		{`1`, true},
		{`0`, false},
		{`"1"`, true},
		{`"0"`, false},
		{`null`, false},
	}
	for _, tt := range tests {
		var b Bool
		require.NoError(t, json.Unmarshal([]byte(tt.in), &b), tt.in)
		assert.Equal(t, tt.want, bool(b), tt.in)
	}
}

func TestDateUnmarshal(t *testing.T) {
	for _, in := range []string{`"2015-03-01"`, `"2015-03-01 14:30:00"`, `"20150301143000"`} {
		var d Date
		require.NoError(t, json.Unmarshal([]byte(in), &d), in)
		assert.Equal(t, "2015-03-01", d.Format("2006-01-02"), in)
	}

	var d Date
	require.NoError(t, json.Unmarshal([]byte(`""`), &d))
	assert.True(t, d.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`"March 1st"`), &d))
}

func TestDateMarshal(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2015-03-01 14:30:00"`), &d))
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2015-03-01"`, string(b))

	b, err = json.Marshal(Date{})
	require.NoError(t, err)
	assert.Equal(t, `""`, string(b))
}

func TestDateBeforeIgnoresTime(t *testing.T) {
	var a, b Date
	require.NoError(t, json.Unmarshal([]byte(`"2015-03-01 23:00:00"`), &a))
	require.NoError(t, json.Unmarshal([]byte(`"2015-03-01"`), &b))
	assert.False(t, a.Before(b))
	assert.False(t, b.Before(a))

	var c Date
	require.NoError(t, json.Unmarshal([]byte(`"2015-02-28"`), &c))
	assert.True(t, c.Before(a))
}
