package errors

import "fmt"

type ERR int32

const (
	ERR_UNKNOWN                 ERR = 0
	ERR_INVALID_ARGUMENT        ERR = 1
	ERR_NOT_FOUND               ERR = 3
	ERR_PROCESSING              ERR = 4
	ERR_CONFIGURATION           ERR = 5
	ERR_CONTEXT_CANCELED        ERR = 7
	ERR_ERROR                   ERR = 9
	ERR_DECODE                  ERR = 20
	ERR_EMPTY_INPUT             ERR = 21
	ERR_SEARCH_EXHAUSTED        ERR = 22
	ERR_MISSING_INPUT_FILE      ERR = 23
	ERR_MALFORMED_INPUT_RECORD  ERR = 24
	ERR_COINBASE_INVALID_SCRIPT ERR = 25
	ERR_BLOCK_INVALID           ERR = 30
	ERR_STORAGE_ERROR           ERR = 40
)

var ERR_name = map[int32]string{
	0:  "UNKNOWN",
	1:  "INVALID_ARGUMENT",
	3:  "NOT_FOUND",
	4:  "PROCESSING",
	5:  "CONFIGURATION",
	7:  "CONTEXT_CANCELED",
	9:  "ERROR",
	20: "DECODE",
	21: "EMPTY_INPUT",
	22: "SEARCH_EXHAUSTED",
	23: "MISSING_INPUT_FILE",
	24: "MALFORMED_INPUT_RECORD",
	25: "COINBASE_INVALID_SCRIPT",
	30: "BLOCK_INVALID",
	40: "STORAGE_ERROR",
}

// Enum returns the symbolic name of the code.
func (x ERR) Enum() string {
	if name, ok := ERR_name[int32(x)]; ok {
		return name
	}

	return fmt.Sprintf("ERR(%d)", int32(x))
}

func (x ERR) String() string {
	return x.Enum()
}

var (
	ErrUnknown               = New(ERR_UNKNOWN, "unknown error")
	ErrInvalidArgument       = New(ERR_INVALID_ARGUMENT, "invalid argument")
	ErrNotFound              = New(ERR_NOT_FOUND, "not found")
	ErrProcessing            = New(ERR_PROCESSING, "error processing")
	ErrConfiguration         = New(ERR_CONFIGURATION, "configuration error")
	ErrContextCanceled       = New(ERR_CONTEXT_CANCELED, "context canceled")
	ErrError                 = New(ERR_ERROR, "generic error")
	ErrDecode                = New(ERR_DECODE, "decode error")
	ErrEmptyInput            = New(ERR_EMPTY_INPUT, "empty input")
	ErrSearchExhausted       = New(ERR_SEARCH_EXHAUSTED, "nonce space exhausted")
	ErrMissingInputFile      = New(ERR_MISSING_INPUT_FILE, "missing input file")
	ErrMalformedInputRecord  = New(ERR_MALFORMED_INPUT_RECORD, "malformed input record")
	ErrCoinbaseInvalidScript = New(ERR_COINBASE_INVALID_SCRIPT, "the coinbase signature script is invalid")
	ErrBlockInvalid          = New(ERR_BLOCK_INVALID, "block invalid")
	ErrStorageError          = New(ERR_STORAGE_ERROR, "storage error")
)

// errors initialization functions

func NewInvalidArgumentError(message string, params ...interface{}) error {
	return New(ERR_INVALID_ARGUMENT, message, params...)
}
func NewProcessingError(message string, params ...interface{}) error {
	return New(ERR_PROCESSING, message, params...)
}
func NewConfigurationError(message string, params ...interface{}) error {
	return New(ERR_CONFIGURATION, message, params...)
}
func NewContextCanceledError(message string, params ...interface{}) error {
	return New(ERR_CONTEXT_CANCELED, message, params...)
}
func NewError(message string, params ...interface{}) error {
	return New(ERR_ERROR, message, params...)
}
func NewDecodeError(message string, params ...interface{}) error {
	return New(ERR_DECODE, message, params...)
}
func NewEmptyInputError(message string, params ...interface{}) error {
	return New(ERR_EMPTY_INPUT, message, params...)
}
func NewSearchExhaustedError(message string, params ...interface{}) error {
	return New(ERR_SEARCH_EXHAUSTED, message, params...)
}
func NewMissingInputFileError(message string, params ...interface{}) error {
	return New(ERR_MISSING_INPUT_FILE, message, params...)
}
func NewMalformedInputRecordError(message string, params ...interface{}) error {
	return New(ERR_MALFORMED_INPUT_RECORD, message, params...)
}
func NewCoinbaseInvalidScriptError(message string, params ...interface{}) error {
	return New(ERR_COINBASE_INVALID_SCRIPT, message, params...)
}
func NewBlockInvalidError(message string, params ...interface{}) error {
	return New(ERR_BLOCK_INVALID, message, params...)
}
func NewStorageError(message string, params ...interface{}) error {
	return New(ERR_STORAGE_ERROR, message, params...)
}
