package staging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"echonexus/internal/staging"
	"echonexus/internal/testsupport"
)

func TestStageWritesCorrelationPrefixedFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	item, err := staging.Stage(cfg, "corr-1", "Q3_Vendor_Invoice.pdf", strings.NewReader("bytes"), staging.Metadata{})
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}
	want := filepath.Join(cfg.Paths.StagingDir, "corr-1_Q3_Vendor_Invoice.pdf")
	if item.SourcePath != want {
		t.Fatalf("unexpected staged path %q, want %q", item.SourcePath, want)
	}
	data, err := os.ReadFile(item.SourcePath)
	if err != nil || string(data) != "bytes" {
		t.Fatalf("unexpected staged contents %q: %v", data, err)
	}
	if item.Metadata.Priority != staging.DefaultPriority {
		t.Fatalf("expected default priority, got %d", item.Metadata.Priority)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"../../etc/passwd", "passwd"},
		{"dir/nested/contract.docx", "contract.docx"},
		{"  spaced.txt  ", "spaced.txt"},
		{"..", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := staging.SanitizeFilename(tc.in); got != tc.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestStageRejectsEmptyFilename(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := staging.Stage(cfg, "corr-2", "..", strings.NewReader("x"), staging.Metadata{}); err == nil {
		t.Fatal("expected error for unusable filename")
	}
}

func TestRelocateMovesToDestination(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	item, err := staging.Stage(cfg, "corr-3", "contract.pdf", strings.NewReader("doc"), staging.Metadata{})
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}

	dest := cfg.DestinationFor("contract")
	final, err := staging.Relocate(item, dest)
	if err != nil {
		t.Fatalf("Relocate failed: %v", err)
	}
	if final != filepath.Join(dest, "contract.pdf") {
		t.Fatalf("unexpected final path %q", final)
	}
	if _, err := os.Stat(item.SourcePath); !os.IsNotExist(err) {
		t.Fatal("staged file should be gone after relocation")
	}
	if item.Outcome == nil || item.Outcome.State != staging.OutcomeCompleted {
		t.Fatalf("unexpected outcome %+v", item.Outcome)
	}
}

func TestQuarantineKeepsCorrelationPrefix(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	item, err := staging.Stage(cfg, "corr-4", "mystery.bin", strings.NewReader("???"), staging.Metadata{})
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}

	dest, err := staging.Quarantine(cfg, item, "module exploded")
	if err != nil {
		t.Fatalf("Quarantine failed: %v", err)
	}
	if dest != filepath.Join(cfg.Paths.QuarantineDir, "corr-4_mystery.bin") {
		t.Fatalf("unexpected quarantine path %q", dest)
	}
	if item.Outcome == nil || item.Outcome.State != staging.OutcomeQuarantined || item.Outcome.Reason != "module exploded" {
		t.Fatalf("unexpected outcome %+v", item.Outcome)
	}
}

func TestMetadataNormalizeClampsPriority(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, 5},
		{-3, 1},
		{7, 7},
		{42, 10},
	}
	for _, tc := range cases {
		m := staging.Metadata{Priority: tc.in}
		m.Normalize()
		if m.Priority != tc.want {
			t.Errorf("Normalize priority %d = %d, want %d", tc.in, m.Priority, tc.want)
		}
	}
}
