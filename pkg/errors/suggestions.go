package errors

// hints lists remediation text per code, most useful first.
var hints = map[string][]string{
	ErrShapeMismatch: {
		"Every layer must be shaped (B, H, N, N) and bounds (B, N)",
		"Check that the entity id list has exactly N entries",
	},
	ErrNonFiniteValue: {"Replace NaN/Inf values before export, e.g. with np.nan_to_num"},
	ErrMalformedFile: {
		"Confirm the file was written by an attnbin_v1 exporter",
		"A truncated download or partial chunk write produces this error; re-export the file",
	},
	ErrHalfOverflow:       {"float16 holds magnitudes up to 65504; export float32 or rescale the layer"},
	ErrUnsupportedDtype:   {"Supported dtypes are float32 (default) and float16"},
	ErrDatasetNotFound:    {"List available datasets with GET /api/datasets or /datasets in the shell"},
	ErrConfigNotFound:     {"Run 'attngraph init' to create a default configuration"},
	ErrConfigParseFailed:  {"Check the YAML syntax; indentation must use spaces"},
	ErrConfigInvalid:      {"Compare your file with the output of 'attngraph init'"},
	ErrCommandNotFound:    {"Type /help to list available commands"},
	ErrCommandMissingArgs: {"Type /help <command> for usage"},
	ErrNoDataset:          {"Load a dataset first with /load <name|path>"},
	ErrIOFileNotFound:     {"Check the path; relative paths resolve from the working directory"},
}

// Hints returns the built-in suggestions for code, or nil.
func Hints(code string) []string {
	return hints[code]
}

// AttachSuggestions appends the built-in suggestions for err.Code.
func AttachSuggestions(err *GraphError) *GraphError {
	if err != nil {
		err.Suggestions = append(err.Suggestions, hints[err.Code]...)
	}
	return err
}
