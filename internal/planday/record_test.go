package planday

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeList_Malformed(t *testing.T) {
	_, err := DecodeList([]byte(`{"count":3}`))
	assert.True(t, errors.Is(err, ErrMalformedEnvelope))

	records, err := DecodeList([]byte(`null`))
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = DecodeList([]byte(`[{`))
	assert.Error(t, err)
}

func TestRecord_String(t *testing.T) {
	r := Record{"employeeId": 12345.0, "name": "  ", "alt": "Anna", "flag": true}
	assert.Equal(t, "12345", r.String("employeeId"))
	assert.Equal(t, "Anna", r.String("name", "alt"))
	assert.Equal(t, "true", r.String("flag"))
	assert.Equal(t, "", r.String("missing"))
}

func TestRecord_Number(t *testing.T) {
	r := Record{"turnover": "1250.50", "amount": 10.0, "bad": "n/a"}
	v, ok := r.Number("bad", "turnover")
	assert.True(t, ok)
	assert.Equal(t, 1250.5, v)

	v, ok = r.Number("amount")
	assert.True(t, ok)
	assert.Equal(t, 10.0, v)

	_, ok = r.Number("bad", "missing")
	assert.False(t, ok)
}

func TestIsBadRequest(t *testing.T) {
	assert.True(t, IsBadRequest(&UpstreamError{Status: 400}))
	assert.True(t, IsBadRequest(fmt.Errorf("page 1: %w", &UpstreamError{Status: 400})))
	assert.True(t, IsBadRequest(errors.New("Planday API 400: bad format")))
	assert.False(t, IsBadRequest(errors.New("Planday API 4000")))
	assert.False(t, IsBadRequest(&UpstreamError{Status: 404}))
	assert.False(t, IsBadRequest(&AuthError{Status: 400}))
	assert.False(t, IsBadRequest(nil))
}
