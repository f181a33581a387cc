package response

import (
	"encoding/json"
	"net/http"

	"hiretrack/internal/common"
)

type errorBody struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Code    common.Code       `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// Error writes err as the JSON error envelope. Errors without a code become
// opaque 500s so driver messages never reach clients.
func Error(w http.ResponseWriter, err error) {
	appErr, ok := common.As(err)
	if !ok {
		appErr = common.NewError(common.CodeInternal, "internal error", err)
	}
	status := StatusFor(appErr.Code)
	message := appErr.Message
	details := appErr.Details
	if status >= http.StatusInternalServerError {
		message = "internal error"
		details = nil
	}
	JSON(w, status, errorBody{Error: errorPayload{Code: appErr.Code, Message: message, Details: details}})
}

func StatusFor(code common.Code) int {
	switch code {
	case common.CodeValidation:
		return http.StatusBadRequest
	case common.CodeUnauthorized:
		return http.StatusUnauthorized
	case common.CodeForbidden:
		return http.StatusForbidden
	case common.CodeNotFound:
		return http.StatusNotFound
	case common.CodeConflict, common.CodeNotAvailable:
		return http.StatusConflict
	case common.CodeInvalidTransition:
		return http.StatusUnprocessableEntity
	case common.CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
