package errors

import (
	"go.uber.org/multierr"
)

// FieldError describes one rejected input, usually a line of a multi-line request.
type FieldError struct {
	Index   int    `json:"index"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (f FieldError) Error() string {
	if f.Field == "" {
		return f.Message
	}
	return f.Field + ": " + f.Message
}

// Fields turns an error accumulated with multierr.Append into a single
// validation error whose details list every FieldError it contains.
// Returns nil when errs is nil.
func Fields(message string, errs error) *Error {
	if errs == nil {
		return nil
	}
	details := make([]FieldError, 0)
	for _, err := range multierr.Errors(errs) {
		var fe FieldError
		switch v := err.(type) {
		case FieldError:
			fe = v
		case *FieldError:
			fe = *v
		default:
			fe = FieldError{Index: -1, Message: err.Error()}
		}
		details = append(details, fe)
	}
	return Wrap(CodeValidation, errs, message).WithDetails(details)
}
