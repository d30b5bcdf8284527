package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRawRecord_KeepsNumbers(t *testing.T) {
	rec, err := ParseRawRecord(RawRecord{Value: []byte(`{"gbifID":4011234567,"decimalLatitude":45.1,"species":"Huso huso","year":null}`)})
	require.NoError(t, err)

	assert.Equal(t, json.Number("4011234567"), rec["gbifID"])
	assert.Equal(t, json.Number("45.1"), rec["decimalLatitude"])
	assert.Equal(t, "Huso huso", rec["species"])
	assert.Nil(t, rec["year"])
}

func TestParseRawRecord_Invalid(t *testing.T) {
	for _, body := range []string{`not json`, `null`, `[1,2]`} {
		_, err := ParseRawRecord(RawRecord{Value: []byte(body), Offset: 42})
		require.Error(t, err, body)
		assert.Contains(t, err.Error(), "offset 42")
	}
}

func TestNewOutputRecord(t *testing.T) {
	at := time.Date(2024, time.May, 1, 10, 30, 0, 0, time.FixedZone("CEST", 2*3600))
	out, err := NewOutputRecord(Record{"species": "Huso huso", "decimalLatitude": 45.1}, "occ-0123456789abcdef", at)
	require.NoError(t, err)

	assert.Equal(t, []byte("occ-0123456789abcdef"), out.Key)
	assert.Equal(t, "occ-0123456789abcdef", out.Headers["record_id"])
	assert.Equal(t, "2024-05-01T08:30:00Z", out.Headers["processed_at"])
	assert.JSONEq(t, `{"species":"Huso huso","decimalLatitude":45.1}`, string(out.Value))
}
