package errs

// Stable error codes. 1xxx auth, 2xxx request, 3xxx records.
const (
	CodeTokenInvalid  = 1001
	CodeTokenExpired  = 1002
	CodeUnauthorized  = 1003
	CodeForbidden     = 1004
	CodeArgs          = 2001
	CodeRecordExists  = 3001
	CodeRecordMissing = 3002
)

var (
	ErrTokenInvalid  = NewCodeError(CodeTokenInvalid, "token invalid")
	ErrTokenExpired  = NewCodeError(CodeTokenExpired, "token expired")
	ErrUnauthorized  = NewCodeError(CodeUnauthorized, "unauthorized")
	ErrForbidden     = NewCodeError(CodeForbidden, "forbidden")
	ErrArgs          = NewCodeError(CodeArgs, "invalid argument")
	ErrRecordExists  = NewCodeError(CodeRecordExists, "record already exists")
	ErrRecordMissing = NewCodeError(CodeRecordMissing, "record not found")
)
