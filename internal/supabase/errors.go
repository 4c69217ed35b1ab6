package supabase

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Error is a failure reported by the remote service.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) String() string {
	return fmt.Sprintf("supabase error %d (%s): %s", e.Status, e.Code, e.Message)
}

// GoTrue and PostgREST disagree on field names; accept all of them.
type errorBody struct {
	Code             interface{} `json:"code"`
	ErrorCode        string      `json:"error_code"`
	Error            string      `json:"error"`
	ErrorDescription string      `json:"error_description"`
	Msg              string      `json:"msg"`
	Message          string      `json:"message"`
}

func parseError(status int, raw []byte) *Error {
	apiErr := &Error{Status: status}

	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		apiErr.Message = strings.TrimSpace(string(raw))
		return apiErr
	}

	for _, candidate := range []string{body.Msg, body.Message, body.ErrorDescription, body.Error} {
		if c := strings.TrimSpace(candidate); c != "" {
			apiErr.Message = c
			break
		}
	}

	switch {
	case body.ErrorCode != "":
		apiErr.Code = body.ErrorCode
	case body.Code != nil:
		apiErr.Code = fmt.Sprint(body.Code)
	case body.Error != "":
		apiErr.Code = body.Error
	}
	return apiErr
}
