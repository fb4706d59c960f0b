package export

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		maxLen int
		want   string
	}{
		{"plain", "My Project", 0, "My Project"},
		{"slashes", "a/b\\c", 0, "a_b_c"},
		{"control chars", "a\x00b\x1fc", 0, "abc"},
		{"truncates", "abcdefgh", 4, "abcd"},
		{"trims space", "  hi  ", 0, "hi"},
		{"allowed punctuation", "Trip (2026), part-1_final.v2", 0, "Trip (2026), part-1_final.v2"},
		{"unicode letters", "Ünïcødé", 0, "Ünïcødé"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeName(tt.in, tt.maxLen); got != tt.want {
				t.Errorf("SanitizeName(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestValidateOutputDir(t *testing.T) {
	tmpDir := t.TempDir()

	if err := ValidateOutputDir(tmpDir); err != nil {
		t.Errorf("ValidateOutputDir(%s) error = %v", tmpDir, err)
	}

	if err := ValidateOutputDir(""); err == nil {
		t.Error("empty dir should fail")
	}

	if err := ValidateOutputDir(filepath.Join(tmpDir, "..", "elsewhere")); err == nil {
		t.Error("path traversal should fail")
	}

	if err := ValidateOutputDir(filepath.Join(tmpDir, "missing")); err == nil {
		t.Error("nonexistent dir should fail")
	}

	f := filepath.Join(tmpDir, "file.txt")
	os.WriteFile(f, []byte("x"), 0644)
	if err := ValidateOutputDir(f); err == nil {
		t.Error("regular file should fail")
	}
}
