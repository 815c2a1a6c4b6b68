package turbulence

import "errors"

// Error kinds surfaced by this package. All are fatal to the requesting call
// and carry the operation and offending identifier in the wrapped message;
// none are retried internally. Non-convergence of the iterative solves is
// reported separately as fvmatrix.ErrNonConvergence.
var (
	// ErrUnknownModelType: registry lookup failed for the requested tag.
	ErrUnknownModelType = errors.New("unknown turbulence model type")

	// ErrUnsupportedOperation: an adjoint or linear-system operation was
	// invoked on a model variant that does not implement it.
	ErrUnsupportedOperation = errors.New("operation not supported by this turbulence model")

	// ErrInvalidArgument: an unrecognized variable name was passed to a
	// coefficient or solve query.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsetParameter: a physically required constant was never resolved.
	// Returning a sentinel value instead would silently corrupt downstream
	// sensitivities, so this is fatal.
	ErrUnsetParameter = errors.New("required parameter not set")

	// ErrDuplicateConnectivity: two models tried to register residual
	// connectivity under the same key, a configuration error.
	ErrDuplicateConnectivity = errors.New("duplicate residual connectivity key")
)
