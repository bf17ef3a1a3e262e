package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/ukydev/equipment-maintenance/internal/models"
)

// BasicFieldsRule checks each field of a submission on its own.
type BasicFieldsRule struct {
	vocab  Vocabulary
	limits Limits
}

func (BasicFieldsRule) Name() string { return "basic_fields" }

func (r BasicFieldsRule) Check(sub models.MaintenanceSubmission, _ []models.MaintenanceRecord, now time.Time) Result {
	var res Result

	if sub.EquipmentID == uuid.Nil {
		res.addError("equipment_id is required.")
	}
	if strings.TrimSpace(sub.EquipmentName) == "" {
		res.addError("equipment_name is required.")
	}
	if sub.UserID == uuid.Nil {
		res.addError("user_id is required.")
	}
	if strings.TrimSpace(sub.UserName) == "" {
		res.addError("user_name is required.")
	}

	if sub.Date.IsZero() {
		res.addError("date is required.")
	} else if sub.Date.After(now.Add(r.limits.FutureTolerance)) {
		res.addError("date cannot be in the future.")
	}

	if t := models.NormalizeType(sub.Type); t != r.vocab.Preventive && t != r.vocab.Corrective {
		res.addError(fmt.Sprintf("type must be '%s' or '%s'.", r.vocab.Preventive, r.vocab.Corrective))
	}

	// A blank or short description never also counts as too long.
	length := utf8.RuneCountInString(sub.Description)
	if strings.TrimSpace(sub.Description) == "" || length < r.limits.MinDescription {
		res.addError(fmt.Sprintf("description must be at least %d characters.", r.limits.MinDescription))
	} else if length > r.limits.MaxDescription {
		res.addError(fmt.Sprintf("description is too long (max %d).", r.limits.MaxDescription))
	}

	return res
}
