package openapi

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrUnknownEvent is returned when an event name is not one of Events().
	ErrUnknownEvent = errors.New("openapi: unknown event")
	// ErrUnknownRealType is returned for a real-data category outside RealTypes().
	ErrUnknownRealType = errors.New("openapi: unknown real-data type")
	// ErrMissingKey is returned when a keyed event fires without its selector argument.
	ErrMissingKey   = errors.New("openapi: event is missing its selector argument")
	ErrNilHandler   = errors.New("openapi: nil handler")
	ErrNilControl   = errors.New("openapi: nil control")
	ErrUnsupported  = errors.New("openapi: control driver not supported on this platform")
	ErrNotConnected = errors.New("openapi: not connected")
)

// ErrorMessages maps the control's numeric status codes to their vendor descriptions.
var ErrorMessages = map[string]string{
	"0":    "정상처리",
	"-1":   "미접속상태",
	"-100": "로그인시 접속 실패(아이피오류 또는 접속정보 오류)",
	"-101": "서버 접속 실패",
	"-102": "버전처리가 실패하였습니다.",
	"-103": "TrCode가 존재하지 않습니다.",
	"-104": "해외 OpenAPI 미신청",
	"-200": "조회 과부하",
	"-201": "주문 과부하",
	"-202": "조회 입력값(명칭/누락) 오류",
	"-300": "주문 입력값 오류",
	"-301": "계좌비밀번호를 입력하십시오.",
	"-302": "타인계좌는 사용할 수 없습니다.",
	"-303": "경고 - 주문수량 200개 초과",
	"-304": "제한 - 주문수량 400개 초과",
}

// Well-known status codes.
const (
	CodeOK            = 0
	CodeDisconnected  = -1
	CodeQueryOverload = -200
	CodeOrderOverload = -201
)

// ErrorMessage looks up the description of a status code given as a string.
func ErrorMessage(code string) (string, bool) {
	msg, ok := ErrorMessages[code]
	return msg, ok
}

// CodeError is a non-zero status code returned by the control.
type CodeError struct {
	Method Method
	Code   int
}

func (e *CodeError) Error() string {
	msg, ok := ErrorMessage(strconv.Itoa(e.Code))
	if !ok {
		msg = "unknown error code"
	}
	if e.Method == "" {
		return fmt.Sprintf("openapi: code %d: %s", e.Code, msg)
	}
	return fmt.Sprintf("openapi: %s returned %d: %s", e.Method, e.Code, msg)
}

// Message returns the vendor description, or an empty string for unknown codes.
func (e *CodeError) Message() string {
	msg, _ := ErrorMessage(strconv.Itoa(e.Code))
	return msg
}

// CheckCode converts a status code into an error. Zero yields nil.
// The API itself never calls it; callers opt in.
func CheckCode(method Method, code int) error {
	if code == CodeOK {
		return nil
	}
	return &CodeError{Method: method, Code: code}
}

// IsCode reports whether err is a CodeError carrying code.
func IsCode(err error, code int) bool {
	var ce *CodeError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// HandlerError wraps a failure raised by a registered handler.
type HandlerError struct {
	Event EventName
	Key   string
	Index int
	Err   error
}

func (e *HandlerError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("openapi: %s handler #%d: %v", e.Event, e.Index, e.Err)
	}
	return fmt.Sprintf("openapi: %s[%s] handler #%d: %v", e.Event, e.Key, e.Index, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }
