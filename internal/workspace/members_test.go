package workspace

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
)

func snapshot(paths ...string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for _, p := range paths {
		fsys[p] = &fstest.MapFile{Data: []byte("[package]\n")}
	}
	return fsys
}

func TestExpandMembers(t *testing.T) {
	root := snapshot(
		"one/Cargo.toml",
		"two/Cargo.toml",
		"implicit/three/Cargo.toml",
		"implicit/zeta/Cargo.toml",
		"implicit/ignored/Cargo.toml",
		"crates/a/Cargo.toml",
		"crates/b/src/lib.rs",
		"crates/c/Cargo.toml",
	)

	tests := []struct {
		name     string
		patterns []string
		exclude  []string
		want     []string
	}{
		{
			name:     "explicit paths",
			patterns: []string{"two", "one", "./one/"},
			want:     []string{"one", "two"},
		},
		{
			name:     "explicit path without manifest is kept",
			patterns: []string{"explicit/four"},
			want:     []string{"explicit/four"},
		},
		{
			name:     "glob only matches manifest directories",
			patterns: []string{"crates/*"},
			want:     []string{"crates/a", "crates/c"},
		},
		{
			name:     "glob with exclude",
			patterns: []string{"implicit/*", "one"},
			exclude:  []string{"implicit/ignored"},
			want:     []string{"implicit/three", "implicit/zeta", "one"},
		},
		{
			name:     "exclude covers subdirectories",
			patterns: []string{"crates/*", "two"},
			exclude:  []string{"crates"},
			want:     []string{"two"},
		},
		{
			name:     "character class",
			patterns: []string{"crates/[ab]"},
			want:     []string{"crates/a"},
		},
		{
			name:     "no patterns",
			patterns: nil,
			want:     nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandMembers(root, tt.patterns, tt.exclude)
			if err != nil {
				t.Fatalf("ExpandMembers() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ExpandMembers() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExpandMembersDeterministic(t *testing.T) {
	root := snapshot("b/Cargo.toml", "a/Cargo.toml", "c/Cargo.toml")
	first, err := ExpandMembers(root, []string{"*"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	for range 5 {
		again, _ := ExpandMembers(root, []string{"*"}, nil)
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("results differ between calls:\n%s", diff)
		}
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, first); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestExpandMembersInvalidPattern(t *testing.T) {
	for _, p := range []string{"../outside/*", "crates/[a"} {
		_, err := ExpandMembers(snapshot(), []string{p}, nil)
		if !errors.Is(err, ErrInvalidPattern) {
			t.Errorf("ExpandMembers(%q) error = %v, want ErrInvalidPattern", p, err)
		}
	}
}
