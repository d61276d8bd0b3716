package loader

import "errors"

// Per-plugin failures. None of them leaves Load: the offending plugin is
// logged and skipped.
var (
	ErrMissingManifestField = errors.New("plugin manifest is missing a required field")
	ErrTypeResolutionFailed = errors.New("alerter entry type could not be resolved")
	ErrConstructorMissing   = errors.New("alerter entry type has no usable constructor")
	ErrInstantiationFailed  = errors.New("alerter constructor failed")
	ErrCapabilityMismatch   = errors.New("alerter instance does not implement the alerter capability")
)

// Reason returns a short metrics/log label for a pipeline error.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrMissingManifestField):
		return "missing_manifest_field"
	case errors.Is(err, ErrTypeResolutionFailed):
		return "type_resolution_failed"
	case errors.Is(err, ErrConstructorMissing):
		return "constructor_missing"
	case errors.Is(err, ErrInstantiationFailed):
		return "instantiation_failed"
	case errors.Is(err, ErrCapabilityMismatch):
		return "capability_mismatch"
	default:
		return "other"
	}
}
