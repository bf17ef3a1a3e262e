package models

// Verdict is the outcome of validating a submission. IsValid is true exactly
// when Errors is empty; Warnings never affect it.
type Verdict struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// NewVerdict builds a verdict from collected messages. Nil slices are
// replaced with empty ones so the JSON form always carries both arrays.
func NewVerdict(errs, warnings []string) Verdict {
	if errs == nil {
		errs = []string{}
	}
	if warnings == nil {
		warnings = []string{}
	}
	return Verdict{
		IsValid:  len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
	}
}
