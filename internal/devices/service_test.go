package devices

import (
	"errors"
	"testing"

	"github.com/cityinfra/asset-registry/internal/apperror"
	"github.com/cityinfra/asset-registry/internal/catalogue"
	"github.com/cityinfra/asset-registry/internal/geometry"
)

func contentType(t *testing.T) *catalogue.DeviceType {
	t.Helper()
	target := catalogue.TargetAdditionalSign
	return &catalogue.DeviceType{
		ID:          "type-1",
		Code:        "H17.1",
		TargetModel: &target,
		ContentSchema: map[string]any{
			"type":                 "object",
			"required":             []any{"limit"},
			"additionalProperties": false,
			"properties": map[string]any{
				"limit": map[string]any{"type": "integer"},
				"unit":  map[string]any{"type": "string"},
			},
		},
	}
}

func TestCheckContentValid(t *testing.T) {
	device := &Device{Kind: KindAdditionalSign, ContentS: map[string]any{"limit": 2, "unit": "h"}}
	if err := checkContent(device, contentType(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckContentAmbiguous(t *testing.T) {
	device := &Device{
		Kind:           KindAdditionalSign,
		ContentS:       map[string]any{"limit": 5},
		MissingContent: true,
	}
	err := checkContent(device, contentType(t))
	var ambiguous *apperror.ContentAmbiguous
	if !errors.As(err, &ambiguous) {
		t.Fatalf("want ContentAmbiguous, got %v", err)
	}
}

func TestCheckContentRequired(t *testing.T) {
	device := &Device{Kind: KindAdditionalSign}
	err := checkContent(device, contentType(t))
	var required *apperror.ContentRequired
	if !errors.As(err, &required) {
		t.Fatalf("want ContentRequired, got %v", err)
	}
	if required.TypeCode != "H17.1" {
		t.Errorf("TypeCode = %q", required.TypeCode)
	}
}

func TestCheckContentMissingFlagSatisfies(t *testing.T) {
	device := &Device{Kind: KindAdditionalSign, MissingContent: true}
	if err := checkContent(device, contentType(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckContentNotAllowedWithoutSchema(t *testing.T) {
	target := catalogue.TargetAdditionalSign
	schemaless := &catalogue.DeviceType{ID: "type-2", Code: "H99", TargetModel: &target}

	device := &Device{Kind: KindAdditionalSign, ContentS: map[string]any{"limit": 5}}
	var notAllowed *apperror.ContentNotAllowed
	if err := checkContent(device, schemaless); !errors.As(err, &notAllowed) {
		t.Fatalf("want ContentNotAllowed, got %v", err)
	}

	// The missing-content flag is meaningless without a schema and rejects too.
	flagged := &Device{Kind: KindAdditionalSign, MissingContent: true}
	if err := checkContent(flagged, schemaless); !errors.As(err, &notAllowed) {
		t.Fatalf("want ContentNotAllowed, got %v", err)
	}

	empty := &Device{Kind: KindAdditionalSign}
	if err := checkContent(empty, schemaless); err != nil {
		t.Fatalf("empty content without a schema is fine: %v", err)
	}
}

func TestCheckContentInvalidAgainstSchema(t *testing.T) {
	device := &Device{Kind: KindAdditionalSign, ContentS: map[string]any{"limit": "fast"}}
	err := checkContent(device, contentType(t))
	var verr *apperror.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
}

func TestCheckContentOnNonContentKind(t *testing.T) {
	device := &Device{Kind: KindTrafficSign, ContentS: map[string]any{"limit": 5}}
	if err := checkContent(device, nil); err == nil {
		t.Error("content on a traffic sign must be rejected")
	}

	plain := &Device{Kind: KindTrafficSign}
	if err := checkContent(plain, nil); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCheckLocation(t *testing.T) {
	Configure(3879, geometry.BoundingBox{XMin: 25440000, YMin: 6630000, XMax: 25571000, YMax: 6740000})

	device := &Device{Location: "SRID=3879;POINT Z (25500000 6675000 0)"}
	if err := checkLocation(device); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if device.Location != "SRID=3879;POINT Z (25500000 6675000 0)" {
		t.Errorf("canonical form changed: %s", device.Location)
	}

	edge := &Device{Location: "POINT (25440000 6630000)"}
	if err := checkLocation(edge); err != nil {
		t.Errorf("edge point must be accepted: %v", err)
	}

	outside := &Device{Location: "POINT (25439999 6630000)"}
	if err := checkLocation(outside); err == nil {
		t.Error("point one unit outside must be rejected")
	}

	wrongSRID := &Device{Location: "SRID=4326;POINT (25500000 6675000)"}
	if err := checkLocation(wrongSRID); err == nil {
		t.Error("foreign SRID must be rejected")
	}

	missing := &Device{}
	if err := checkLocation(missing); err == nil {
		t.Error("location is required")
	}
}

func TestValidateDiscriminators(t *testing.T) {
	device := &Device{Kind: KindBarrier, Variant: VariantPlan}
	if err := validateDiscriminators(device); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if device.Lifecycle != LifecycleActive {
		t.Errorf("lifecycle should default to active, got %s", device.Lifecycle)
	}

	bad := &Device{Kind: "drone", Variant: VariantReal}
	if err := validateDiscriminators(bad); err == nil {
		t.Error("unknown kind must be rejected")
	}

	badLifecycle := &Device{Kind: KindBarrier, Variant: VariantReal, Lifecycle: "paused"}
	if err := validateDiscriminators(badLifecycle); err == nil {
		t.Error("unknown lifecycle must be rejected")
	}
}

func TestCheckParentOptionalForAdditionalSigns(t *testing.T) {
	sign := &Device{Kind: KindAdditionalSign, Variant: VariantReal}
	if err := checkParent(nil, sign); err != nil {
		t.Fatalf("a free-standing additional sign is valid: %v", err)
	}
}

func TestCheckParentOnOtherKinds(t *testing.T) {
	parent := "p1"
	barrier := &Device{Kind: KindBarrier, ParentID: &parent}
	if err := checkParent(nil, barrier); err == nil {
		t.Error("only additional signs may carry a parent")
	}
}

func TestCheckParentSelfReference(t *testing.T) {
	id := "d1"
	sign := &Device{ID: id, Kind: KindAdditionalSign, ParentID: &id}
	if err := checkParent(nil, sign); err == nil {
		t.Error("a device cannot be its own parent")
	}
}

func TestCheckOrderDefaultsToOne(t *testing.T) {
	sign := &Device{Kind: KindAdditionalSign}
	if err := checkOrder(sign); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sign.Order != 1 {
		t.Errorf("unset order should default to 1, got %d", sign.Order)
	}

	explicit := &Device{Kind: KindAdditionalSign, Order: 3}
	if err := checkOrder(explicit); err != nil || explicit.Order != 3 {
		t.Errorf("explicit order must stand: %d (%v)", explicit.Order, err)
	}

	negative := &Device{Kind: KindAdditionalSign, Order: -1}
	if err := checkOrder(negative); err == nil {
		t.Error("negative order must be rejected")
	}
}

func TestKindTargets(t *testing.T) {
	if KindAdditionalSign.Target() != catalogue.TargetAdditionalSign {
		t.Error("kind target mapping broken")
	}
	if !KindAdditionalSign.BearsContent() || !KindFurnitureSignpost.BearsContent() {
		t.Error("content-bearing kinds wrong")
	}
	if KindTrafficSign.BearsContent() {
		t.Error("traffic signs do not bear content")
	}
}
