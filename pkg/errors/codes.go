package errors

// ErrorCode represents a standardized way to categorize different types of errors.
type ErrorCode string

// Base error codes represent the fundamental categories of failures that can
// occur across any software system. These codes provide the foundation layer
// of error classification.
const (
	// ErrorCodeIO represents failures in input/output operations across any
	// system boundary. This includes file system operations like reading or
	// writing the log file, network operations when communicating with remote
	// systems, and device I/O when accessing storage hardware.
	ErrorCodeIO ErrorCode = "IO_ERROR"

	// ErrorCodeInvalidInput represents client-side errors where the provided
	// data doesn't meet the system's requirements or constraints. This maps
	// to HTTP 400-series errors and indicates problems with the request itself
	// rather than system failures.
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// ErrorCodeInternal represents unexpected system failures that don't fit
	// into other categories. These are the equivalent of HTTP 500 errors and
	// indicate bugs, assertion failures, or other programming errors that
	// shouldn't occur during normal operation.
	ErrorCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Storage-specific error codes extend the base error taxonomy to handle the
// unique failure modes that occur in persistent storage systems.
const (
	// ErrorCodeLogCorrupted indicates that the active log file's data has been
	// damaged or is in an inconsistent state beyond a tolerable torn tail.
	ErrorCodeLogCorrupted ErrorCode = "LOG_CORRUPTED"

	// ErrorCodeRecoveryFailed indicates that the storage system's attempt to
	// recover from a previous failure was unsuccessful. This represents a
	// compound failure where both the original problem and the recovery
	// mechanism have failed, creating a more serious operational situation.
	ErrorCodeRecoveryFailed ErrorCode = "STORAGE_RECOVERY_FAILED"

	// ErrorCodePermissionDenied indicates insufficient permissions to access a resource.
	// This is distinct from generic IO errors because it has a specific resolution path:
	// the user needs to adjust file/directory permissions or run with elevated privileges.
	ErrorCodePermissionDenied ErrorCode = "PERMISSION_DENIED"

	// ErrorCodeDiskFull indicates that the storage device has run out of space.
	// This requires specific handling like cleanup operations or alerting administrators.
	ErrorCodeDiskFull ErrorCode = "DISK_FULL"

	// ErrorCodeFilesystemReadonly indicates that the filesystem is mounted read-only.
	// This requires administrative intervention to remount the filesystem with write permissions.
	ErrorCodeFilesystemReadonly ErrorCode = "FILESYSTEM_READONLY"

	// ErrorCodeCompactionFailed indicates the rewrite-and-rename compaction
	// procedure did not reach its commit point (the rename). The active log
	// is left untouched in this case.
	ErrorCodeCompactionFailed ErrorCode = "COMPACTION_FAILED"
)

// Codec-specific error codes cover failures encoding or decoding the
// on-disk record format.
const (
	// ErrorCodeEncodeFailure indicates a Command could not be serialized
	// into its on-disk record representation.
	ErrorCodeEncodeFailure ErrorCode = "ENCODE_FAILURE"

	// ErrorCodeDecodeFailure indicates bytes read from the log could not be
	// parsed back into a Command. A torn tail at end-of-file is handled
	// separately during recovery and is not reported through this code.
	ErrorCodeDecodeFailure ErrorCode = "DECODE_FAILURE"
)

// Index-specific error codes address the specialized needs of index
// operations: missing keys, structural corruption, and the bookkeeping
// failures that can occur while mapping commands back onto log extents.
const (
	// ErrorCodeIndexKeyNotFound indicates a lookup or removal was attempted
	// against a key absent from the index.
	ErrorCodeIndexKeyNotFound ErrorCode = "INDEX_KEY_NOT_FOUND"

	// ErrorCodeIndexCorrupted indicates the in-memory index no longer
	// agrees with the log it was built from.
	ErrorCodeIndexCorrupted ErrorCode = "INDEX_CORRUPTED"
)
