package validation

import (
	"fmt"
	"time"

	"github.com/ukydev/equipment-maintenance/internal/models"
)

// DuplicateRule allows at most one accepted record per equipment and
// calendar day. Only the first conflicting record in history order is named.
type DuplicateRule struct{}

func (DuplicateRule) Name() string { return "duplicates" }

func (DuplicateRule) Check(sub models.MaintenanceSubmission, history []models.MaintenanceRecord, _ time.Time) Result {
	var res Result
	for _, rec := range history {
		if rec.EquipmentID != sub.EquipmentID || !models.SameCalendarDate(rec.Date, sub.Date) {
			continue
		}
		res.addError(fmt.Sprintf(
			"a %s maintenance already exists for this equipment on %s. Existing maintenance ID: %s",
			rec.Type, models.CalendarDate(sub.Date).Format(time.DateOnly), rec.ID,
		))
		break
	}
	return res
}
