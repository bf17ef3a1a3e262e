package validation

import (
	"fmt"
	"time"

	"github.com/ukydev/equipment-maintenance/internal/models"
)

// TemporalLimitsRule bounds how far back a maintenance event may be recorded.
type TemporalLimitsRule struct {
	window time.Duration
}

func (TemporalLimitsRule) Name() string { return "temporal_limits" }

func (r TemporalLimitsRule) Check(sub models.MaintenanceSubmission, _ []models.MaintenanceRecord, now time.Time) Result {
	var res Result
	earliest := now.Add(-r.window)
	if sub.Date.Before(earliest) {
		res.addError(fmt.Sprintf(
			"maintenance older than %d days cannot be registered. Earliest allowed date: %s",
			int(r.window/(24*time.Hour)), earliest.Format(time.DateOnly),
		))
	}
	return res
}
