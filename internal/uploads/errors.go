package uploads

import "errors"

var (
	// ErrUnsupportedMediaType indicates the file is not an accepted video type.
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	// ErrFileTooLarge indicates the file exceeds the per-file upload ceiling.
	ErrFileTooLarge = errors.New("file exceeds maximum upload size")

	errQueueClosed = errors.New("upload queue closed")
)
