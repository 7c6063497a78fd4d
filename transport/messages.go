package transport

import "net/http"

// StatusNetwork marks failures where no HTTP response was obtained at all.
const StatusNetwork = 0

// Fixed status-code-to-message mapping. Callers display these verbatim and
// never re-derive text from raw status codes.
var messagesByLocale = map[string]map[int]string{
	"ko": {
		StatusNetwork:                  "네트워크에 연결할 수 없습니다. 잠시 후 다시 시도해 주세요.",
		http.StatusBadRequest:          "요청이 올바르지 않습니다. 입력값을 확인해 주세요.",
		http.StatusUnauthorized:        "로그인이 필요합니다. 다시 로그인해 주세요.",
		http.StatusForbidden:           "접근 권한이 없습니다.",
		http.StatusNotFound:            "요청하신 정보를 찾을 수 없습니다.",
		http.StatusConflict:            "이미 존재하는 정보입니다.",
		http.StatusTooManyRequests:     "요청이 너무 많습니다. 잠시 후 다시 시도해 주세요.",
		http.StatusInternalServerError: "서버 오류가 발생했습니다. 잠시 후 다시 시도해 주세요.",
		http.StatusBadGateway:          "서버 연결이 원활하지 않습니다.",
		http.StatusServiceUnavailable:  "서비스를 일시적으로 사용할 수 없습니다.",
	},
	"en": {
		StatusNetwork:                  "Cannot reach the network. Please try again shortly.",
		http.StatusBadRequest:          "The request was invalid. Please check your input.",
		http.StatusUnauthorized:        "Sign-in required. Please log in again.",
		http.StatusForbidden:           "You do not have permission to do that.",
		http.StatusNotFound:            "The requested resource was not found.",
		http.StatusConflict:            "That information already exists.",
		http.StatusTooManyRequests:     "Too many requests. Please try again shortly.",
		http.StatusInternalServerError: "A server error occurred. Please try again shortly.",
		http.StatusBadGateway:          "The server connection is unstable.",
		http.StatusServiceUnavailable:  "The service is temporarily unavailable.",
	},
}

var unknownMessage = map[string]string{
	"ko": "알 수 없는 오류가 발생했습니다.",
	"en": "An unknown error occurred.",
}

// DefaultLocale is used when the requested locale has no catalogue.
const DefaultLocale = "ko"

// MessageFor resolves the human-readable message for a status code in the
// given locale, falling back to the unknown-error message.
func MessageFor(locale string, status int) string {
	catalogue, ok := messagesByLocale[locale]
	if !ok {
		locale = DefaultLocale
		catalogue = messagesByLocale[locale]
	}
	if msg, ok := catalogue[status]; ok {
		return msg
	}
	return unknownMessage[locale]
}
