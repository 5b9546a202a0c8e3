package domain

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// Result is a decoded response envelope, passed through uninterpreted.
// Numbers are kept as json.Number so large IDs survive the round trip.
type Result map[string]any

// ErrCode returns the envelope's errCode and whether it was present and numeric.
func (r Result) ErrCode() (int, bool) {
	return intValue(r["errCode"])
}

// ErrMsg returns the envelope's errMsg, or "".
func (r Result) ErrMsg() string {
	s, _ := r["errMsg"].(string)
	return s
}

// Data returns the envelope's data object, or nil.
func (r Result) Data() map[string]any {
	d, _ := r["data"].(map[string]any)
	return d
}

// OK reports whether the envelope carries errCode 0.
func (r Result) OK() bool {
	code, ok := r.ErrCode()
	return ok && code == 0
}

// TokenData extracts data.token and data.expireTimeSeconds from a token
// issuance response. ok is false unless errCode is 0 and a non-empty token is present.
func (r Result) TokenData() (token string, expireTimeSeconds int64, ok bool) {
	if !r.OK() {
		return "", 0, false
	}
	data := r.Data()
	if data == nil {
		return "", 0, false
	}
	token, _ = data["token"].(string)
	if token == "" {
		return "", 0, false
	}
	if secs, found := intValue(data["expireTimeSeconds"]); found {
		expireTimeSeconds = int64(secs)
	}
	return token, expireTimeSeconds, true
}

func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				return 0, false
			}
			return int(f), true
		}
		return int(i), true
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	}
	return 0, false
}

// ErrorResult builds an error envelope. detail is omitted when empty.
func ErrorResult(code int, msg, detail string) Result {
	r := Result{"errCode": code, "errMsg": msg}
	if detail != "" {
		r["errDlt"] = detail
	}
	return r
}

// SuccessResult builds an errCode 0 envelope around data.
func SuccessResult(data map[string]any) Result {
	return Result{"errCode": 0, "errMsg": "", "data": data}
}

// WriteJSON sends the envelope as JSON with the given HTTP status code.
func (r Result) WriteJSON(w http.ResponseWriter, httpStatusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	json.NewEncoder(w).Encode(r) // Best effort, error from Encode is not typically handled here.
}
