package errors

// CodecError is a specialized error type for record encode/decode failures.
// It embeds baseError to inherit standard error functionality, then adds
// codec-specific fields that help pinpoint which record, at which offset,
// failed to round-trip through the on-disk format.
type CodecError struct {
	*baseError
	offset    int64 // Byte offset in the log where the failing record starts.
	byteCount int   // Number of bytes read or written when the failure occurred.
}

// NewCodecError creates a new codec-specific error.
func NewCodecError(err error, code ErrorCode, msg string) *CodecError {
	return &CodecError{baseError: NewBaseError(err, code, msg)}
}

// WithMessage updates the error message while maintaining the CodecError type.
func (ce *CodecError) WithMessage(msg string) *CodecError {
	ce.baseError.WithMessage(msg)
	return ce
}

// WithDetail adds contextual information while maintaining the CodecError type.
func (ce *CodecError) WithDetail(key string, value any) *CodecError {
	ce.baseError.WithDetail(key, value)
	return ce
}

// WithOffset records where in the log the failing record starts.
func (ce *CodecError) WithOffset(offset int64) *CodecError {
	ce.offset = offset
	return ce
}

// WithByteCount records how many bytes were involved in the failing operation.
func (ce *CodecError) WithByteCount(n int) *CodecError {
	ce.byteCount = n
	return ce
}

// Offset returns the byte offset where the failing record starts.
func (ce *CodecError) Offset() int64 {
	return ce.offset
}

// ByteCount returns the number of bytes read or written when the failure occurred.
func (ce *CodecError) ByteCount() int {
	return ce.byteCount
}
