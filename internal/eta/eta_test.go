package eta

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"train-tracker/internal/rail"
)

func TestEstimate(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	terminal := rail.Station{Name: "Jakarta Gambir", ScheduledTime: "18:00"}

	tests := []struct {
		name string
		date string
		now  time.Time
		want string
	}{
		{"minutes and seconds", "2025-03-01", time.Date(2025, 3, 1, 17, 58, 30, 0, jakarta), "18:00 (1m 30d)"},
		{"seconds only", "2025-03-01", time.Date(2025, 3, 1, 17, 59, 15, 0, jakarta), "18:00 (45 detik)"},
		{"hours", "2025-03-01", time.Date(2025, 3, 1, 15, 30, 20, 0, jakarta), "18:00 (2j 29m 40d)"},
		{"days", "2025-03-03", time.Date(2025, 3, 1, 15, 0, 0, 0, jakarta), "18:00 (2 hari 3 jam)"},
		{"exactly due", "2025-03-01", time.Date(2025, 3, 1, 18, 0, 0, 0, jakarta), "18:00 - Sudah tiba 🚉"},
		{"past", "2025-02-27", time.Date(2025, 3, 1, 9, 0, 0, 0, jakarta), "18:00 - Sudah tiba 🚉"},
		{"RFC3339 date", "2025-03-01T00:00:00Z", time.Date(2025, 3, 1, 17, 58, 30, 0, jakarta), "18:00 (1m 30d)"},
		{"unparseable date uses today", "besok", time.Date(2025, 3, 1, 17, 58, 30, 0, jakarta), "18:00 (1m 30d)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Estimate(tt.date, terminal, tt.now))
		})
	}
}

func TestEstimateMalformedTimeIsMidnight(t *testing.T) {
	now := time.Date(2025, 3, 1, 23, 0, 0, 0, time.UTC)
	terminal := rail.Station{Name: "X", ScheduledTime: "soon"}

	assert.Equal(t, time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), Target("2025-03-02", terminal, now))
	assert.Equal(t, "soon (1j 0m 0d)", Estimate("2025-03-02", terminal, now))
	assert.Equal(t, "00:00 - Sudah tiba 🚉", Estimate("2025-03-01", rail.Station{}, now))
}
