package catalogue

import "testing"

func TestAllowsTarget(t *testing.T) {
	generic := &DeviceType{Code: "X1"}
	if !generic.AllowsTarget(TargetTrafficSign) || !generic.AllowsTarget(TargetBarrier) {
		t.Error("a generic type attaches to any kind")
	}

	target := TargetAdditionalSign
	typed := &DeviceType{Code: "H17.1", TargetModel: &target}
	if !typed.AllowsTarget(TargetAdditionalSign) {
		t.Error("matching target should be allowed")
	}
	if typed.AllowsTarget(TargetTrafficSign) {
		t.Error("mismatching target should be rejected")
	}
}

func TestTrafficSignType(t *testing.T) {
	cases := map[string]string{
		"A11":   "Warning sign",
		"C32":   "Prohibitory or restrictive sign",
		"H17.1": "Additional sign",
		"Z99":   "",
		"":      "",
	}
	for code, want := range cases {
		deviceType := &DeviceType{Code: code}
		if got := deviceType.TrafficSignType(); got != want {
			t.Errorf("TrafficSignType(%q) = %q, want %q", code, got, want)
		}
	}
}

func TestValidateTypeSchemaTargets(t *testing.T) {
	doc := map[string]any{
		"type":       "object",
		"properties": map[string]any{"limit": map[string]any{"type": "integer"}},
	}

	additional := TargetAdditionalSign
	ok := &DeviceType{Code: "H1", TargetModel: &additional, ContentSchema: doc, Validity: ValidityValid}
	if err := validateType(ok); err != nil {
		t.Errorf("schema on additional_sign target should pass: %v", err)
	}

	furniture := TargetFurnitureSignpost
	ok.TargetModel = &furniture
	if err := validateType(ok); err != nil {
		t.Errorf("schema on furniture_signpost target should pass: %v", err)
	}

	traffic := TargetTrafficSign
	bad := &DeviceType{Code: "C1", TargetModel: &traffic, ContentSchema: doc, Validity: ValidityValid}
	if err := validateType(bad); err == nil {
		t.Error("schema on traffic_sign target must be rejected")
	}

	generic := &DeviceType{Code: "G1", ContentSchema: doc, Validity: ValidityValid}
	if err := validateType(generic); err == nil {
		t.Error("schema on a generic type must be rejected")
	}
}

func TestValidateTypeBadSchema(t *testing.T) {
	additional := TargetAdditionalSign
	deviceType := &DeviceType{
		Code:        "H2",
		TargetModel: &additional,
		Validity:    ValidityValid,
		ContentSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"x": map[string]any{"type": "bogus"}},
		},
	}
	if err := validateType(deviceType); err == nil {
		t.Error("invalid schema document must be rejected")
	}
}

func TestTargetChanged(t *testing.T) {
	a, b := TargetTrafficSign, TargetAdditionalSign
	if targetChanged(nil, nil) {
		t.Error("nil to nil is unchanged")
	}
	if !targetChanged(nil, &a) || !targetChanged(&a, nil) {
		t.Error("nil transitions are changes")
	}
	if !targetChanged(&a, &b) {
		t.Error("different targets are a change")
	}
	if targetChanged(&a, &a) {
		t.Error("same target is unchanged")
	}
}
