package errors

// ErrorCode identifies a failure category. Codes are stable strings so they
// can be returned in API bodies and used as metric labels.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes shared by every layer.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeUnknown            ErrorCode = "COMMON_000"
)

// Aliases kept short for call-site readability.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeUnauthorized = ErrCodeUnauthorized
	CodeForbidden    = ErrCodeForbidden
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeValidation   = ErrCodeValidation
	CodeUnknown      = ErrCodeUnknown
	CodeOK           = ErrorCode("OK")
)

// Appraisal module error codes.
const (
	ErrCodeAppraisalNotFound      ErrorCode = "APR_001"
	ErrCodeAppraisalSubmitted     ErrorCode = "APR_002"
	ErrCodeZoningInvalid          ErrorCode = "APR_003"
	ErrCodeEvaluationWeightBounds ErrorCode = "APR_004"
)

// Comparable (comp) module error codes.
const (
	ErrCodeCompNotFound      ErrorCode = "CMP_001"
	ErrCodeCompLimitExceeded ErrorCode = "CMP_002"
	ErrCodeCompWeightExceeded ErrorCode = "CMP_003"
	ErrCodeCompAlreadyLinked ErrorCode = "CMP_004"
	ErrCodeAdjustmentInvalid ErrorCode = "CMP_005"
)

// Approach / valuation module error codes.
const (
	ErrCodeApproachNotFound     ErrorCode = "VAL_001"
	ErrCodeApproachTypeInvalid  ErrorCode = "VAL_002"
	ErrCodeComparisonBasisInvalid ErrorCode = "VAL_003"
	ErrCodeAttachmentNotFound   ErrorCode = "VAL_004"
)

// Convenience aliases for the most frequently checked domain codes.
const (
	CodeAppraisalNotFound = ErrCodeAppraisalNotFound
	CodeCompNotFound      = ErrCodeCompNotFound
	CodeApproachNotFound  = ErrCodeApproachNotFound
	CodeCompLimitExceeded = ErrCodeCompLimitExceeded
)
