package native

import "fmt"

// ResultCode is the raw DWORD returned by a rasapi32 entry point.
// Zero is success; everything else is a Win32 or RAS error code.
type ResultCode uint32

const (
	Success ResultCode = 0

	// Win32 codes (winerror.h) that rasapi32 reports.
	ErrorFileNotFound       ResultCode = 2
	ErrorAccessDenied       ResultCode = 5
	ErrorInvalidHandle      ResultCode = 6
	ErrorNotEnoughMemory    ResultCode = 8
	ErrorInvalidParameter   ResultCode = 87
	ErrorCallNotImplemented ResultCode = 120
	ErrorInsufficientBuffer ResultCode = 122
	ErrorInvalidName        ResultCode = 123
	ErrorProcNotFound       ResultCode = 127
	ErrorAlreadyExists      ResultCode = 183
	ErrorInvalidFunction    ResultCode = 1

	// RAS codes (raserror.h), RASBASE = 600.
	ErrorPending                  ResultCode = 600
	ErrorInvalidPortHandle        ResultCode = 601
	ErrorPortAlreadyOpen          ResultCode = 602
	ErrorBufferTooSmall           ResultCode = 603
	ErrorWrongInfoSpecified       ResultCode = 604
	ErrorPortNotConnected         ResultCode = 606
	ErrorDeviceDoesNotExist       ResultCode = 608
	ErrorBufferInvalid            ResultCode = 610
	ErrorCannotOpenPhonebook      ResultCode = 621
	ErrorCannotLoadPhonebook      ResultCode = 622
	ErrorCannotFindPhonebookEntry ResultCode = 623
	ErrorCannotWritePhonebook     ResultCode = 624
	ErrorCorruptPhonebook         ResultCode = 625
	ErrorPortDisconnected         ResultCode = 628
	ErrorUserDisconnection        ResultCode = 631
	ErrorInvalidSize              ResultCode = 632
	ErrorPortNotAvailable         ResultCode = 633
	ErrorAuthenticationFailure    ResultCode = 691
	ErrorNoConnection             ResultCode = 668
	ErrorProtocolNotConfigured    ResultCode = 720
	ErrorRemoteDisconnection      ResultCode = 629
	ErrorCannotDeleteEntry        ResultCode = 641
	ErrorNotNAPCapable            ResultCode = 837
)

var codeNames = map[ResultCode]string{
	Success:                       "SUCCESS",
	ErrorInvalidFunction:          "ERROR_INVALID_FUNCTION",
	ErrorFileNotFound:             "ERROR_FILE_NOT_FOUND",
	ErrorAccessDenied:             "ERROR_ACCESS_DENIED",
	ErrorInvalidHandle:            "ERROR_INVALID_HANDLE",
	ErrorNotEnoughMemory:          "ERROR_NOT_ENOUGH_MEMORY",
	ErrorInvalidParameter:         "ERROR_INVALID_PARAMETER",
	ErrorCallNotImplemented:       "ERROR_CALL_NOT_IMPLEMENTED",
	ErrorInsufficientBuffer:       "ERROR_INSUFFICIENT_BUFFER",
	ErrorInvalidName:              "ERROR_INVALID_NAME",
	ErrorProcNotFound:             "ERROR_PROC_NOT_FOUND",
	ErrorAlreadyExists:            "ERROR_ALREADY_EXISTS",
	ErrorPending:                  "PENDING",
	ErrorInvalidPortHandle:        "ERROR_INVALID_PORT_HANDLE",
	ErrorPortAlreadyOpen:          "ERROR_PORT_ALREADY_OPEN",
	ErrorBufferTooSmall:           "ERROR_BUFFER_TOO_SMALL",
	ErrorWrongInfoSpecified:       "ERROR_WRONG_INFO_SPECIFIED",
	ErrorPortNotConnected:         "ERROR_PORT_NOT_CONNECTED",
	ErrorDeviceDoesNotExist:       "ERROR_DEVICE_DOES_NOT_EXIST",
	ErrorBufferInvalid:            "ERROR_BUFFER_INVALID",
	ErrorCannotOpenPhonebook:      "ERROR_CANNOT_OPEN_PHONEBOOK",
	ErrorCannotLoadPhonebook:      "ERROR_CANNOT_LOAD_PHONEBOOK",
	ErrorCannotFindPhonebookEntry: "ERROR_CANNOT_FIND_PHONEBOOK_ENTRY",
	ErrorCannotWritePhonebook:     "ERROR_CANNOT_WRITE_PHONEBOOK",
	ErrorCorruptPhonebook:         "ERROR_CORRUPT_PHONEBOOK",
	ErrorPortDisconnected:         "ERROR_PORT_DISCONNECTED",
	ErrorRemoteDisconnection:      "ERROR_REMOTE_DISCONNECTION",
	ErrorUserDisconnection:        "ERROR_USER_DISCONNECTION",
	ErrorInvalidSize:              "ERROR_INVALID_SIZE",
	ErrorPortNotAvailable:         "ERROR_PORT_NOT_AVAILABLE",
	ErrorCannotDeleteEntry:        "ERROR_CANNOT_DELETE",
	ErrorNoConnection:             "ERROR_NO_CONNECTION",
	ErrorAuthenticationFailure:    "ERROR_AUTHENTICATION_FAILURE",
	ErrorProtocolNotConfigured:    "ERROR_PROTOCOL_NOT_CONFIGURED",
	ErrorNotNAPCapable:            "ERROR_NOT_NAP_CAPABLE",
}

func (c ResultCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code %d", uint32(c))
}

// IsBufferTooSmall reports whether c asks the caller to retry with a larger buffer.
func (c ResultCode) IsBufferTooSmall() bool {
	return c == ErrorBufferTooSmall || c == ErrorInsufficientBuffer
}

// IsUnsupported reports whether c means the entry point is missing on this OS.
func (c ResultCode) IsUnsupported() bool {
	return c == ErrorProcNotFound || c == ErrorCallNotImplemented
}
