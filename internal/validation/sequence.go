package validation

import (
	"fmt"
	"time"

	"github.com/ukydev/equipment-maintenance/internal/models"
)

// TemporalSequenceRule warns when corrective work follows the most recent
// preventive service of the same equipment too closely. It never rejects.
type TemporalSequenceRule struct {
	vocab      Vocabulary
	windowDays int
}

func (TemporalSequenceRule) Name() string { return "temporal_sequence" }

func (r TemporalSequenceRule) Check(sub models.MaintenanceSubmission, history []models.MaintenanceRecord, _ time.Time) Result {
	var res Result
	if models.NormalizeType(sub.Type) != r.vocab.Corrective {
		return res
	}

	var last *models.MaintenanceRecord
	for i := range history {
		rec := &history[i]
		if rec.EquipmentID != sub.EquipmentID ||
			models.NormalizeType(rec.Type) != r.vocab.Preventive ||
			!rec.Date.Before(sub.Date) {
			continue
		}
		if last == nil || rec.Date.After(last.Date) {
			last = rec
		}
	}
	if last == nil {
		return res
	}

	days := elapsedDays(last.Date, sub.Date)
	if days < r.windowDays {
		res.addWarning(fmt.Sprintf(
			"WARNING: corrective maintenance very soon after preventive maintenance (only %d days). "+
				"Consider reviewing the effectiveness of the preventive maintenance.", days))
	}
	return res
}

// elapsedDays counts whole 24 hour periods from a to b, truncated.
func elapsedDays(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}
