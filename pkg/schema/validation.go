package schema

// ValidationSeverity separates rejecting issues from advisory ones.
type ValidationSeverity string

const (
	SeverityError   ValidationSeverity = "error"
	SeverityWarning ValidationSeverity = "warning"
)

// ValidationIssue is one finding about a request. Path locates it in the
// request document; NodeID is set when the finding concerns a single node.
type ValidationIssue struct {
	Path     string             `json:"path"`
	NodeID   string             `json:"node_id,omitempty"`
	Code     string             `json:"code"`
	Message  string             `json:"message"`
	Severity ValidationSeverity `json:"severity"`
}

// ValidationResult collects the issues raised while checking a request.
// Errors reject the request; warnings travel with the estimation.
type ValidationResult struct {
	Errors   []ValidationIssue `json:"errors,omitempty"`
	Warnings []ValidationIssue `json:"warnings,omitempty"`
}

func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

func (r *ValidationResult) AddError(path, code, message string) {
	r.AddNodeError(path, "", code, message)
}

func (r *ValidationResult) AddWarning(path, code, message string) {
	r.AddNodeWarning(path, "", code, message)
}

// AddNodeError records an error attributed to nodeID.
func (r *ValidationResult) AddNodeError(path, nodeID, code, message string) {
	r.Errors = append(r.Errors, ValidationIssue{
		Path: path, NodeID: nodeID, Code: code, Message: message, Severity: SeverityError,
	})
}

// AddNodeWarning records a warning attributed to nodeID.
func (r *ValidationResult) AddNodeWarning(path, nodeID, code, message string) {
	r.Warnings = append(r.Warnings, ValidationIssue{
		Path: path, NodeID: nodeID, Code: code, Message: message, Severity: SeverityWarning,
	})
}

func (r *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// ToError returns nil for a valid result. A single error keeps its own
// message and node; several are summarized and listed in Details.
func (r *ValidationResult) ToError() error {
	if r.Valid() {
		return nil
	}

	first := r.Errors[0]
	err := NewError(ErrCodeValidation, first.Message)
	if len(r.Errors) == 1 {
		if first.NodeID != "" {
			err = err.WithNode(first.NodeID)
		}
	} else {
		err = NewErrorf(ErrCodeValidation, "request rejected with %d errors; first at %s: %s",
			len(r.Errors), first.Path, first.Message)
	}

	return err.WithDetails(map[string]any{
		"error_count":   len(r.Errors),
		"warning_count": len(r.Warnings),
		"errors":        r.Errors,
		"warnings":      r.Warnings,
	})
}
