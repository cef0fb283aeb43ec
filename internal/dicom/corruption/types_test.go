package corruption

import (
	"reflect"
	"testing"
)

func TestParseTargets(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []Target
		wantErr bool
	}{
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
		{
			name:  "single target",
			input: "garbage:2",
			want:  []Target{{Type: Garbage, Index: 2}},
		},
		{
			name:  "sorted by index",
			input: " missing-identity:5 , truncated:1 ",
			want:  []Target{{Type: Truncated, Index: 1}, {Type: MissingIdentity, Index: 5}},
		},
		{
			name:    "invalid type",
			input:   "siemens-csa:1",
			wantErr: true,
		},
		{
			name:    "missing index",
			input:   "garbage",
			wantErr: true,
		},
		{
			name:    "zero index",
			input:   "garbage:0",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTargets(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseTargets() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseTargets() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		files   int
		wantErr bool
	}{
		{"valid", Config{Targets: []Target{{Garbage, 2}}}, 3, false},
		{"empty", Config{}, 3, false},
		{"out of range", Config{Targets: []Target{{Garbage, 4}}}, 3, true},
		{"duplicate index", Config{Targets: []Target{{Garbage, 2}, {Truncated, 2}}}, 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate(tt.files)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ForIndex(t *testing.T) {
	c := Config{Targets: []Target{{Type: Truncated, Index: 3}}}
	if !c.IsEnabled() {
		t.Fatal("IsEnabled() = false, want true")
	}
	if got, ok := c.ForIndex(3); !ok || got != Truncated {
		t.Errorf("ForIndex(3) = %v, %v, want truncated, true", got, ok)
	}
	if _, ok := c.ForIndex(1); ok {
		t.Error("ForIndex(1) should report no corruption")
	}
}
