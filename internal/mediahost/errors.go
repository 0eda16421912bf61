package mediahost

import (
	"errors"
	"fmt"
)

var (
	// ErrSizeExceeded indicates the file is larger than the per-file ceiling.
	// It is reported before any bytes are sent.
	ErrSizeExceeded = errors.New("file exceeds maximum upload size")
	// ErrVerificationDeadline indicates the remote host never confirmed receipt
	// within the polling budget. The caller should upload the file again.
	ErrVerificationDeadline = errors.New("upload not confirmed in time, please upload the file again")
)

// ChunkRejectedError reports a chunk write the remote host refused.
type ChunkRejectedError struct {
	StatusCode int
	Reason     string
}

func (e *ChunkRejectedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("chunk rejected by remote host (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("chunk rejected by remote host (status %d): %s", e.StatusCode, e.Reason)
}

// RemoteError reports a non-success response from the remote host API.
type RemoteError struct {
	Operation  string
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("media host %s: status %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("media host %s: status %d: %s", e.Operation, e.StatusCode, e.Message)
}
