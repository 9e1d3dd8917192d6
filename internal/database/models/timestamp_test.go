package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp_Scan(t *testing.T) {
	want := time.Date(2024, 3, 9, 17, 4, 5, 0, time.UTC)

	tests := []struct {
		name  string
		value any
		want  time.Time
	}{
		{"sqlite current_timestamp", "2024-03-09 17:04:05", want},
		{"millisecond text", []byte("2024-03-09 17:04:05.250"), want.Add(250 * time.Millisecond)},
		{"rfc3339", "2024-03-09T17:04:05Z", want},
		{"native", want.In(time.FixedZone("X", 3600)), want},
		{"null", nil, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, ts.Scan(tt.value))
			assert.True(t, tt.want.Equal(ts.Time), "got %v, want %v", ts.Time, tt.want)
		})
	}
}

func TestTimestamp_ScanRejectsGarbage(t *testing.T) {
	var ts Timestamp
	assert.Error(t, ts.Scan("yesterday"))
	assert.Error(t, ts.Scan(42))
}

func TestTimestamp_ValueSortsAsText(t *testing.T) {
	earlier := NewTimestamp(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	later := NewTimestamp(time.Date(2024, 1, 1, 10, 0, 0, 1_000_000, time.UTC))

	a, err := earlier.Value()
	require.NoError(t, err)
	b, err := later.Value()
	require.NoError(t, err)

	assert.Equal(t, "2024-01-01 09:00:00.000", a)
	assert.Less(t, a.(string), b.(string))
	// Строки с CURRENT_TIMESTAMP сортируются раньше новых
	assert.Less(t, "2023-12-31 23:59:59", a.(string))
}
