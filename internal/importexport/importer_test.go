package importexport

import (
	"testing"

	"github.com/cityinfra/asset-registry/internal/apperror"
	"github.com/stretchr/testify/assert"
)

func TestParseBool(t *testing.T) {
	for input, want := range map[string]bool{
		"true": true, "True": true, "1": true,
		"false": false, "False": false, "0": false, "": false,
	} {
		got, err := parseBool(input)
		assert.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := parseBool("maybe")
	assert.Error(t, err)
}

func TestIsUUID(t *testing.T) {
	assert.True(t, isUUID("0b2e1552-59f6-4b31-9b77-2bbe5e2f7c01"))
	assert.False(t, isUUID("sign-1"))
	assert.False(t, isUUID(""))
}

func TestErrorDispositionPinsColumn(t *testing.T) {
	d := errorDisposition(apperror.NewValidation("content_s.limit", "not an integer"), "")
	assert.Equal(t, StatusError, d.Status)
	assert.Equal(t, "content_s.limit", d.Column)

	explicit := errorDisposition(apperror.NewValidation("x", "bad"), "device_type__code")
	assert.Equal(t, "device_type__code", explicit.Column)

	plain := errorDisposition(&apperror.ContentAmbiguous{}, "")
	assert.Equal(t, "", plain.Column)
	assert.NotEmpty(t, plain.Reason)
}

func TestResultCounters(t *testing.T) {
	r := &Result{}
	r.add(Disposition{Status: StatusCreated})
	r.add(Disposition{Status: StatusCreated})
	r.add(Disposition{Status: StatusUpdated})
	r.add(Disposition{Status: StatusSkipped})
	r.add(Disposition{Status: StatusError, Reason: "boom"})

	assert.Equal(t, 2, r.Created)
	assert.Equal(t, 1, r.Updated)
	assert.Equal(t, 1, r.Skipped)
	assert.Equal(t, 1, r.Errors)
	assert.Len(t, r.Dispositions, 5)
}
