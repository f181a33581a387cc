package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"hiretrack/internal/common"
)

func TestStatusFor(t *testing.T) {
	cases := map[common.Code]int{
		common.CodeNotFound:          http.StatusNotFound,
		common.CodeNotAvailable:      http.StatusConflict,
		common.CodeConflict:          http.StatusConflict,
		common.CodeInvalidTransition: http.StatusUnprocessableEntity,
		common.CodeValidation:        http.StatusBadRequest,
		common.CodeUnauthorized:      http.StatusUnauthorized,
		common.CodeForbidden:         http.StatusForbidden,
		common.CodeRateLimited:       http.StatusTooManyRequests,
		common.CodeStorageFailure:    http.StatusInternalServerError,
		common.CodeDispatchFailure:   http.StatusInternalServerError,
		common.CodeInternal:          http.StatusInternalServerError,
	}
	for code, want := range cases {
		if got := StatusFor(code); got != want {
			t.Fatalf("StatusFor(%s) = %d, want %d", code, got, want)
		}
	}
}

func TestErrorIncludesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, common.NewDetailedError(common.CodeInvalidTransition, "invalid stage transition", map[string]string{"current": "INTERVIEW", "next": "HIRED"}, nil))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != common.CodeInvalidTransition || body.Error.Details["current"] != "INTERVIEW" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestErrorHidesInternalCauses(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, errors.New("pq: password authentication failed"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Message != "internal error" || body.Error.Code != common.CodeInternal {
		t.Fatalf("unexpected body %+v", body)
	}
}
