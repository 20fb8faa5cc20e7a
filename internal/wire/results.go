package wire

// Result is the outcome code carried by every response frame.
type Result uint32

const (
	ResultOK                  Result = 0
	ResultBadCommand          Result = 1
	ResultResourceNotFound    Result = 2
	ResultAccessDenied        Result = 5
	ResultNotReady            Result = 21
	ResultTimeout             Result = 258
	ResultInternalServerError Result = 500
)

func (r Result) String() string {
	switch r {
	case ResultOK:
		return "OKEY"
	case ResultBadCommand:
		return "BAD_COMMAND"
	case ResultResourceNotFound:
		return "RESOURCE_NOT_FOUND"
	case ResultAccessDenied:
		return "ACCESS_DENIED"
	case ResultNotReady:
		return "NOT_READY"
	case ResultTimeout:
		return "TIMEOUT"
	case ResultInternalServerError:
		return "INTERNAL_SERVER_ERROR"
	default:
		return "UNKNOWN"
	}
}
