package errors

// Error codes. Codes are stable strings; API clients and the shell match
// on them.
const (
	// Dataset and attnbin decoding.
	ErrShapeMismatch    = "SHAPE_MISMATCH"    // ids, bounds and layers disagree on a dimension
	ErrNonFiniteValue   = "NON_FINITE_VALUE"  // NaN or Inf in bounds or attention
	ErrMalformedFile    = "MALFORMED_FILE"    // bad length prefix, header JSON or truncated data
	ErrUnsupportedDtype = "UNSUPPORTED_DTYPE" // dtype other than float32 or float16
	ErrHalfOverflow     = "HALF_OVERFLOW"     // value too large for a float16 export

	// Lookups and input validation.
	ErrOutOfRange      = "OUT_OF_RANGE"
	ErrInvalidValue    = "INVALID_VALUE"
	ErrDatasetNotFound = "DATASET_NOT_FOUND"
	ErrViewNotFound    = "VIEW_NOT_FOUND"

	ErrConfigNotFound    = "CONFIG_NOT_FOUND"
	ErrConfigParseFailed = "CONFIG_PARSE_FAILED"
	ErrConfigInvalid     = "CONFIG_INVALID"
	ErrConfigWriteFailed = "CONFIG_WRITE_FAILED"

	// Shell commands.
	ErrCommandNotFound    = "COMMAND_NOT_FOUND"
	ErrCommandMissingArgs = "COMMAND_MISSING_ARGS"
	ErrCommandInvalidArg  = "COMMAND_INVALID_ARG"
	ErrNoDataset          = "COMMAND_NO_DATASET" // command needs a loaded dataset

	ErrIOReadFailed   = "IO_READ_FAILED"
	ErrIOWriteFailed  = "IO_WRITE_FAILED"
	ErrIOFileNotFound = "IO_FILE_NOT_FOUND"
	ErrInternal       = "INTERNAL_ERROR"
)
