package httpapi

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/mes/internal/apperr"
)

func TestDateTime_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{`"2024-06-01T08:30:00Z"`, time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC), false},
		{`"2024-06-01T10:30:00+02:00"`, time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC), false},
		{`"2024-06-01T08:30:00"`, time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC), false},
		{`"2024-06-01T08:30"`, time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC), false},
		{`"2024-06-01 08:30:00"`, time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC), false},
		{`null`, time.Time{}, false},
		{`"June 1st"`, time.Time{}, true},
		{`42`, time.Time{}, true},
	}
	for _, tt := range tests {
		var d DateTime
		err := json.Unmarshal([]byte(tt.in), &d)
		if tt.wantErr {
			assert.Error(t, err, "input %s", tt.in)
			continue
		}
		require.NoError(t, err, "input %s", tt.in)
		assert.True(t, tt.want.Equal(d.Time), "input %s: got %v", tt.in, d.Time)
	}
}

func TestParseDateBound(t *testing.T) {
	start, err := parseDateBound("2024-06-01", false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), start)

	end, err := parseDateBound("2024-06-01", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 23, 59, 59, 999999999, time.UTC), end)

	exact, err := parseDateBound("2024-06-01T12:00:00Z", true)
	require.NoError(t, err)
	assert.Equal(t, 12, exact.Hour())

	_, err = parseDateBound("tomorrow", false)
	assert.Error(t, err)
}

func TestBindError(t *testing.T) {
	var req progressRequest
	err := json.Unmarshal([]byte(`{"progress":"half"}`), &req)
	require.Error(t, err)

	appErr, ok := apperr.As(bindError(err))
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, appErr.Kind)
	assert.Contains(t, appErr.Fields, "progress")

	var wo createWorkOrderRequest
	err = json.Unmarshal([]byte(`{"dueDate":"soon"}`), &wo)
	require.Error(t, err)
	appErr, _ = apperr.As(bindError(err))
	assert.Contains(t, appErr.Message, "Invalid date-time")
}

func TestUpdateWorkOrderRequest_Optional(t *testing.T) {
	var req updateWorkOrderRequest
	require.NoError(t, json.Unmarshal([]byte(`{"assignedToId":null,"priority":"urgent"}`), &req))

	port := req.toPort()
	assert.True(t, port.AssignedToID.IsNull(), "explicit null unassigns")
	assert.False(t, port.Quantity.IsSet())
	priority, ok := port.Priority.Get()
	require.True(t, ok)
	assert.EqualValues(t, "URGENT", priority)
}
