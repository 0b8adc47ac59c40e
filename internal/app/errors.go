package app

import "errors"

// Error kinds. Handlers map these onto HTTP statuses with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
)

// kindError is a sentinel with a client-facing message that also matches its kind.
type kindError struct {
	msg  string
	kind error
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func validation(msg string) error { return &kindError{msg: msg, kind: ErrValidation} }
func notFound(msg string) error   { return &kindError{msg: msg, kind: ErrNotFound} }

var (
	ErrEmailAndPasswordRequired = validation("Email and password are required")
	ErrMessageRequired          = validation("Message is required")
	ErrDocumentIDRequired       = validation("Document ID is required")
	ErrFileRequired             = validation("No file provided")
	ErrUnsupportedFileType      = validation("File type not supported")
	ErrExtractionFailed         = validation("No text could be extracted from the document")
	ErrUnsupportedTool          = validation("Invalid tool type")

	ErrUserNotFound          = notFound("User not found")
	ErrDocumentNotFound      = notFound("Document not found")
	ErrChatNotFound          = notFound("Chat not found")
	ErrStudyMaterialNotFound = notFound("Study material not found")
	ErrDownloadUnavailable   = notFound("Original file not available")
)

var (
	ErrDuplicateEmail     = errors.New("User already exists")
	ErrInvalidCredentials = errors.New("Invalid credentials")
	ErrUnauthorized       = errors.New("Token is invalid")
	ErrFileTooLarge       = errors.New("File too large")
	ErrGenerationFailed   = errors.New("Error getting AI response")
)

// Message returns the client-facing text carried by err, or "" when err is
// not one of the errors above.
func Message(err error) string {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.msg
	}
	for _, sentinel := range []error{ErrDuplicateEmail, ErrInvalidCredentials, ErrUnauthorized, ErrFileTooLarge, ErrGenerationFailed} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return ""
}
