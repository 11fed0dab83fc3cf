package security

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	dataDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dataDir, "smccephdata.csv"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	outside := t.TempDir()
	if err := os.Symlink(outside, filepath.Join(dataDir, "escape")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"existing file", filepath.Join(dataDir, "smccephdata.csv"), false},
		{"missing file inside", filepath.Join(dataDir, "nested", "lmcdsdata.csv"), false},
		{"dot-dot escape", filepath.Join(dataDir, "..", "etc", "passwd"), true},
		{"absolute elsewhere", filepath.Join(outside, "x.csv"), true},
		{"symlinked parent", filepath.Join(dataDir, "escape", "x.csv"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathWithinDirectory(tt.path, dataDir)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePathWithinDirectory(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePathWithinDirectory_MissingSafeDir(t *testing.T) {
	if err := ValidatePathWithinDirectory("x.csv", filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("expected error for a safe directory that does not exist")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"ceph-smc-f", "ceph-smc-f"},
		{"ds SMC/1O", "ds_SMC_1O"},
		{"../../etc/passwd", "etc_passwd"},
		{"a  b", "a_b"},
		{"", "unknown"},
		{"///", "unknown"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	long := make([]byte, 300)
	for i := range long {
		long[i] = 'a'
	}
	if got := SanitizeFilename(string(long)); len(got) != 128 {
		t.Errorf("long name length = %d, want 128", len(got))
	}
}
