package validation

import (
	"time"

	"github.com/google/uuid"
	"github.com/ukydev/equipment-maintenance/internal/models"
)

// IdentifierSanityRule rejects identifiers that are obviously placeholders,
// such as 00000000-0000-0000-0000-000000000001.
type IdentifierSanityRule struct{}

func (IdentifierSanityRule) Name() string { return "identifier_sanity" }

func (IdentifierSanityRule) Check(sub models.MaintenanceSubmission, _ []models.MaintenanceRecord, _ time.Time) Result {
	var res Result

	if sub.EquipmentID == uuid.Nil {
		res.addError("equipment_id must not be an empty UUID.")
	}
	if sub.UserID == uuid.Nil {
		res.addError("user_id must not be an empty UUID.")
	}

	if IsPlaceholderID(sub.EquipmentID) {
		res.addError("equipment_id looks like a test UUID. Use real identifiers in production.")
	}
	if IsPlaceholderID(sub.UserID) {
		res.addError("user_id looks like a test UUID. Use real identifiers in production.")
	}
	return res
}

// IsPlaceholderID reports whether at least 14 of the first 15 bytes of id are zero.
func IsPlaceholderID(id uuid.UUID) bool {
	zeros := 0
	for _, b := range id[:15] {
		if b == 0 {
			zeros++
		}
	}
	return zeros >= 14
}
