package shared

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_JSON(t *testing.T) {
	var payload struct {
		Date     Date  `json:"date"`
		Optional *Date `json:"optional"`
		Empty    Date  `json:"empty"`
	}
	err := json.Unmarshal([]byte(`{"date":"2024-03-09","optional":"2024-03-10T15:04:05+09:00","empty":""}`), &payload)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), payload.Date.Time)
	require.NotNil(t, payload.Optional)
	assert.Equal(t, "2024-03-10", payload.Optional.String())
	assert.True(t, payload.Empty.IsZero())
	assert.Nil(t, payload.Empty.Ptr())

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-03-09","optional":"2024-03-10","empty":null}`, string(out))
}

func TestParseDate_Invalid(t *testing.T) {
	_, err := ParseDate("09.03.2024")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
}
