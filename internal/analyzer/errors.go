package analyzer

// ParseError marks one file whose source could not be parsed. It is
// recoverable: the session skips the file and continues the batch.
type ParseError struct {
	File   string
	Reason string
}

func (e *ParseError) Error() string {
	return "cannot parse " + e.File + ": " + e.Reason
}
