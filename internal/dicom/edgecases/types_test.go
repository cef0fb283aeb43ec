package edgecases

import (
	"testing"
)

func TestParseTypes_Valid(t *testing.T) {
	types, err := ParseTypes("missing-tags, no-window")
	if err != nil {
		t.Fatalf("ParseTypes failed: %v", err)
	}
	if len(types) != 2 {
		t.Errorf("Expected 2 types, got %d", len(types))
	}
	if types[0] != MissingTags {
		t.Errorf("Expected MissingTags, got %v", types[0])
	}
}

func TestParseTypes_Invalid(t *testing.T) {
	_, err := ParseTypes("special-chars")
	if err == nil {
		t.Error("Expected error for invalid type")
	}
}

func TestParseTypes_Empty(t *testing.T) {
	types, err := ParseTypes("")
	if err != nil || types != nil {
		t.Errorf("ParseTypes(\"\") = %v, %v, want nil, nil", types, err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"valid", Config{Percentage: 50, Types: []EdgeCaseType{MissingTags}}, false},
		{"zero percent", Config{Percentage: 0, Types: []EdgeCaseType{MissingTags}}, false},
		{"negative percent", Config{Percentage: -1, Types: []EdgeCaseType{MissingTags}}, true},
		{"over 100 percent", Config{Percentage: 101, Types: []EdgeCaseType{MissingTags}}, true},
		{"empty types with percent", Config{Percentage: 50, Types: []EdgeCaseType{}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_IsEnabled(t *testing.T) {
	if (&Config{Percentage: 0}).IsEnabled() {
		t.Error("0% should not be enabled")
	}
	if (&Config{Percentage: 50, Types: []EdgeCaseType{}}).IsEnabled() {
		t.Error("Empty types should not be enabled")
	}
	if !(&Config{Percentage: 50, Types: []EdgeCaseType{BlankTags}}).IsEnabled() {
		t.Error("50% with types should be enabled")
	}
}

func TestParseTypes_AllAndDuplicates(t *testing.T) {
	types, err := ParseTypes("all")
	if err != nil || len(types) != len(AllEdgeCaseTypes()) {
		t.Errorf("ParseTypes(\"all\") = %v, %v, want every type", types, err)
	}

	types, err = ParseTypes("no-window,no-window,blank-tags")
	if err != nil {
		t.Fatalf("ParseTypes() error = %v", err)
	}
	if len(types) != 2 || types[0] != NoWindow || types[1] != BlankTags {
		t.Errorf("ParseTypes() = %v, want [no-window blank-tags]", types)
	}
}
