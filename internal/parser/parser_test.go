package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestIsIngestible(t *testing.T) {
	cases := map[string]bool{
		"policy.pdf":    true,
		"POLICY.PDF":    true,
		"handbook.docx": true,
		"rates.xlsx":    true,
		"notes.md":      true,
		"readme.txt":    true,
		"image.png":     false,
		"archive.zip":   false,
		"noext":         false,
	}
	for name, want := range cases {
		if got := IsIngestible(name); got != want {
			t.Errorf("IsIngestible(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestExtractPages_UnsupportedFormat(t *testing.T) {
	e := NewExtractor(nil)
	if _, err := e.ExtractPages("diagram.svg"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestExtractTextPages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.txt")
	if err := os.WriteFile(path, []byte("first line\nsecond line\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	pages, err := extractTextPages(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 1 || !strings.Contains(pages[0], "second line") {
		t.Errorf("unexpected pages: %v", pages)
	}
}

func TestExtractTextPages_Blank(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blank.txt")
	if err := os.WriteFile(path, []byte("   \n\t\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	pages, err := extractTextPages(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 0 {
		t.Errorf("expected no pages for blank file, got %v", pages)
	}
}

func TestExtractMarkdownPages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.md")
	src := "# Leave Policy\n\nStaff are entitled to *20 days* of leave.\n\n- carry over allowed\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	pages, err := extractMarkdownPages(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	for _, want := range []string{"Leave Policy", "20 days", "carry over allowed"} {
		if !strings.Contains(pages[0], want) {
			t.Errorf("page text missing %q: %q", want, pages[0])
		}
	}
	if strings.Contains(pages[0], "#") || strings.Contains(pages[0], "*") {
		t.Errorf("markdown syntax leaked into page text: %q", pages[0])
	}
}

func TestConverter_Unavailable(t *testing.T) {
	c := &Converter{}
	if c.Available() {
		t.Error("empty converter should be unavailable")
	}
	if _, err := c.ToPDF("x.docx"); err == nil {
		t.Error("expected error from unavailable converter")
	}
	var nilConv *Converter
	if nilConv.Available() {
		t.Error("nil converter should be unavailable")
	}
}
