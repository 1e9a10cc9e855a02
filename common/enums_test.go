package common

import "testing"

func TestParseOutputFmt(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expected  OutputFmt
		shouldErr bool
	}{
		{"view", "view", OutputFmtView, false},
		{"uppercase", "DATA", OutputFmtData, false},
		{"model", "model", OutputFmtModel, false},
		{"tree", "tree", OutputFmtTree, false},
		{"invalid", "html", OutputFmt(0), true},
		{"empty", "", OutputFmt(0), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOutputFmt(tt.input)
			if tt.shouldErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("ParseOutputFmt(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestOutputFmt_String(t *testing.T) {
	tests := []struct {
		fmt      OutputFmt
		expected string
		ext      string
	}{
		{OutputFmtView, "view", ".xml"},
		{OutputFmtData, "data", ".xml"},
		{OutputFmtModel, "model", ".model.xml"},
		{OutputFmtTree, "tree", ".txt"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.fmt.String(); got != tt.expected {
				t.Errorf("String() = %q, want %q", got, tt.expected)
			}
			if got := tt.fmt.Ext(); got != tt.ext {
				t.Errorf("Ext() = %q, want %q", got, tt.ext)
			}
			text, err := tt.fmt.MarshalText()
			if err != nil || string(text) != tt.expected {
				t.Errorf("MarshalText() = %q, %v", text, err)
			}
			var back OutputFmt
			if err := back.UnmarshalText(text); err != nil || back != tt.fmt {
				t.Errorf("UnmarshalText(%q) = %v, %v", text, back, err)
			}
		})
	}
	if got := OutputFmt(99).String(); got != "OutputFmt(99)" {
		t.Errorf("String() = %q, want OutputFmt(99)", got)
	}
	if OutputFmt(-1).IsValid() {
		t.Error("OutputFmt(-1) is valid")
	}
}
