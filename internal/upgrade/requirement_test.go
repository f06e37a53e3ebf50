package upgrade

import (
	"testing"

	"github.com/blang/semver/v4"
)

func TestParseRequirement(t *testing.T) {
	tests := []struct {
		in      string
		op      Op
		version string
		wantErr bool
	}{
		{in: "1.2.3", op: OpBare, version: "1.2.3"},
		{in: "0.4", op: OpBare, version: "0.4.0"},
		{in: "1", op: OpBare, version: "1.0.0"},
		{in: "^0.3.1", op: OpCaret, version: "0.3.1"},
		{in: "~1.2", op: OpTilde, version: "1.2.0"},
		{in: "=2.0.0-beta.1", op: OpExact, version: "2.0.0-beta.1"},
		{in: ">=0.1.1", op: OpGreaterEq, version: "0.1.1"},
		{in: ">= 2", op: OpGreaterEq, version: "2.0.0"},
		{in: ">1.0.0", op: OpGreater, version: "1.0.0"},
		{in: "<=3.0", op: OpLessEq, version: "3.0.0"},
		{in: "<4", op: OpLess, version: "4.0.0"},
		{in: " 1.0 ", op: OpBare, version: "1.0.0"},
		{in: "", wantErr: true},
		{in: ">=1.0, <2.0", wantErr: true},
		{in: "*", wantErr: true},
		{in: "1.*", wantErr: true},
		{in: "1.x", wantErr: true},
		{in: "^", wantErr: true},
		{in: "v1.0.0", wantErr: true},
		{in: "1.2-beta", wantErr: true},
		{in: "1.2.3.4", wantErr: true},
		{in: "latest", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			r, err := ParseRequirement(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseRequirement(%q) = %+v, want error", tt.in, r)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRequirement(%q) error = %v", tt.in, err)
			}
			if r.Op != tt.op {
				t.Errorf("Op = %q, want %q", r.Op, tt.op)
			}
			if got := r.Version.String(); got != tt.version {
				t.Errorf("Version = %s, want %s", got, tt.version)
			}
		})
	}
}

func TestRequirementWithVersion(t *testing.T) {
	tests := []struct {
		in   string
		to   string
		want string
	}{
		{"0.4", "0.8.3", "0.8.3"},
		{"^0.3.1", "0.4.0", "^0.4.0"},
		{"~1.2", "1.3.0", "~1.3.0"},
		{">=0.1.1", "1.0.0", ">=1.0.0"},
		{">= 2", "3.1.0", ">= 3.1.0"},
		{"=1.0.0", "1.1.0-alpha", "=1.1.0-alpha"},
		{"1.0", "1.0.1+build.5", "1.0.1"},
	}
	for _, tt := range tests {
		r, err := ParseRequirement(tt.in)
		if err != nil {
			t.Fatalf("ParseRequirement(%q) error = %v", tt.in, err)
		}
		got := r.WithVersion(semver.MustParse(tt.to)).String()
		if got != tt.want {
			t.Errorf("%q with %s = %q, want %q", tt.in, tt.to, got, tt.want)
		}
		if r.String() != tt.in {
			t.Errorf("WithVersion modified the receiver: %q", r.String())
		}
	}
}
