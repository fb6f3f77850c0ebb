package extract

import "fmt"

// UnsupportedError reports a file type text cannot be extracted from.
type UnsupportedError struct {
	FileName string
	MIMEType string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported document type %s (%s)", e.MIMEType, e.FileName)
}

// ExtractionError wraps a parse failure of a supported document.
type ExtractionError struct {
	FileName string
	Message  string
	Cause    error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extraction error: %s: %s: %v", e.FileName, e.Message, e.Cause)
	}
	return fmt.Sprintf("extraction error: %s: %s", e.FileName, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}
