package resolve

import "fmt"

// MissingSecretError indicates that a mapping's key was not among the
// fetched secrets.
type MissingSecretError struct {
	ProjectID string
	Key       string
	// Complex is set when the key belongs to a complex mapping.
	Complex bool
}

func (e MissingSecretError) Error() string {
	if e.Complex {
		return fmt.Sprintf("no value found in project %s for complex mapping key %s", e.ProjectID, e.Key)
	}
	return fmt.Sprintf("no value found in project %s for key %s", e.ProjectID, e.Key)
}

// MalformedComplexSecretError indicates that a complex mapping's secret is
// not a flat JSON object of strings.
type MalformedComplexSecretError struct {
	Key string
	Err error
}

func (e MalformedComplexSecretError) Error() string {
	return fmt.Sprintf("complex secret %s is not a flat JSON object: %v", e.Key, e.Err)
}

func (e MalformedComplexSecretError) Unwrap() error {
	return e.Err
}

// MissingSubKeyError indicates that a sub-key was absent from a complex
// secret's JSON object.
type MissingSubKeyError struct {
	ParentKey string
	SubKey    string
}

func (e MissingSubKeyError) Error() string {
	return fmt.Sprintf("no value found in complex secret key %s for subkey %s", e.ParentKey, e.SubKey)
}
