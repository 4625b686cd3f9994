package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payload(raw string) VisitPayload {
	var p VisitPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		panic(err)
	}
	return p
}

func TestParseVisit_Valid(t *testing.T) {
	v, err := ParseVisit(payload(`{"poi":"Mall A","date":"2025-10-18","visitors":120,"cbg":"360610112021","dwell":23.5}`))
	require.NoError(t, err)
	assert.Equal(t, "Mall A", v.POI)
	assert.Equal(t, "2025-10-18", v.Date)
	assert.Equal(t, int64(120), v.Visitors)
	assert.Equal(t, "360610112021", *v.CBG)
	assert.InDelta(t, 23.5, *v.Dwell, 0.001)
}

func TestParseVisit_BadDates(t *testing.T) {
	for _, date := range []string{"01/01/2025", "2025-13-01", "2025-02-30", "2025-1-1", "yesterday"} {
		_, err := ParseVisit(payload(`{"poi":"X","date":"` + date + `","visitors":5}`))
		assert.Error(t, err, "date %q", date)
	}
}

func TestParseVisit_MissingDate(t *testing.T) {
	_, err := ParseVisit(payload(`{"poi":"X","visitors":5}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "date")
}

func TestParseVisit_Visitors(t *testing.T) {
	// Missing visitors is a validation error, not a silent zero.
	_, err := ParseVisit(payload(`{"poi":"X","date":"2025-01-01"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "visitors")

	_, err = ParseVisit(payload(`{"poi":"X","date":"2025-01-01","visitors":null}`))
	assert.Error(t, err)

	_, err = ParseVisit(payload(`{"poi":"X","date":"2025-01-01","visitors":-1}`))
	assert.Error(t, err)

	_, err = ParseVisit(payload(`{"poi":"X","date":"2025-01-01","visitors":"abc"}`))
	assert.Error(t, err)

	// Quoted integers are coerced.
	v, err := ParseVisit(payload(`{"poi":"X","date":"2025-01-01","visitors":" 42 "}`))
	require.NoError(t, err)
	assert.Equal(t, int64(42), v.Visitors)
}

func TestParseVisit_POIDefaultsToUnknown(t *testing.T) {
	v, err := ParseVisit(payload(`{"date":"2025-01-01","visitors":5}`))
	require.NoError(t, err)
	assert.Equal(t, "Unknown", v.POI)

	v, err = ParseVisit(payload(`{"poi":"","date":"2025-01-01","visitors":5}`))
	require.NoError(t, err)
	assert.Equal(t, "Unknown", v.POI)
}
