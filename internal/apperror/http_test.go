package apperror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{NewValidation("location", "outside the permitted area"), http.StatusBadRequest},
		{&TypeTargetMismatch{DeviceKind: "barrier", TypeID: "t1"}, http.StatusBadRequest},
		{&ContentRequired{TypeCode: "H17.1"}, http.StatusBadRequest},
		{&ContentNotAllowed{TypeCode: "H99"}, http.StatusBadRequest},
		{&ContentAmbiguous{}, http.StatusBadRequest},
		{&TargetChangeUnsafe{NewTarget: "traffic_sign"}, http.StatusBadRequest},
		{&PermissionDenied{Reason: "outside subtree"}, http.StatusForbidden},
		{&NotFound{Kind: "device_type", ID: "x"}, http.StatusNotFound},
		{&Conflict{Kind: "device_type", Key: "A11"}, http.StatusConflict},
		{&IntegrityError{Err: errors.New("boom")}, http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		Write(rec, tc.err)
		if rec.Code != tc.want {
			t.Errorf("Write(%T) status = %d, want %d", tc.err, rec.Code, tc.want)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("Write(%T) content type = %q", tc.err, ct)
		}
	}
}

func TestWriteValidationFields(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, NewValidation("content_s.limit", "not an integer"))

	var body struct {
		Detail string              `json:"detail"`
		Fields map[string][]string `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if len(body.Fields["content_s.limit"]) != 1 {
		t.Errorf("fields = %v", body.Fields)
	}
}

func TestWriteOffending(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, &TargetChangeUnsafe{
		NewTarget: "traffic_sign",
		Offending: []OffendingKind{{Kind: "additional_sign", IDs: []string{"d1", "d2"}}},
	})

	var body struct {
		Offending []OffendingKind `json:"offending"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if len(body.Offending) != 1 || len(body.Offending[0].IDs) != 2 {
		t.Errorf("offending = %+v", body.Offending)
	}
}

func TestWriteDoesNotLeakInternals(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, &IntegrityError{Err: fmt.Errorf("password=%s host=%s", "secret", "db-host")})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "secret") || strings.Contains(body, "db-host") {
		t.Errorf("internal details leaked: %s", body)
	}
}
