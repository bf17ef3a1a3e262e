package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/ukydev/equipment-maintenance/internal/models"
)

// ContextualDescriptionRule checks the description against the vocabulary:
// corrective work has to name the problem, and boilerplate is never enough.
// The two checks are independent and both may fail.
type ContextualDescriptionRule struct {
	vocab Vocabulary
}

func (ContextualDescriptionRule) Name() string { return "contextual_description" }

func (r ContextualDescriptionRule) Check(sub models.MaintenanceSubmission, _ []models.MaintenanceRecord, _ time.Time) Result {
	var res Result
	text := strings.ToLower(sub.Description)

	if models.NormalizeType(sub.Type) == r.vocab.Corrective && !containsAny(text, r.vocab.ProblemTerms) {
		res.addError(fmt.Sprintf(
			"corrective maintenance must state the nature of the problem. Include words such as: %s, etc.",
			strings.Join(r.vocab.ProblemTerms, ", "),
		))
	}

	if containsAny(text, r.vocab.GenericPhrases) {
		res.addError("description is too generic. Provide specific details of the tasks performed.")
	}
	return res
}
