package parser

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Converter shells out to a locally installed LibreOffice to turn office
// documents into PDFs. Conversion is best effort: callers fall back to the
// native extractors when it fails.
type Converter struct {
	binary string
	outDir string
}

// NewConverter locates a LibreOffice binary on PATH. A nil-binary Converter
// is valid and simply reports itself unavailable.
func NewConverter(outDir string) *Converter {
	for _, name := range []string{"soffice", "libreoffice"} {
		if path, err := exec.LookPath(name); err == nil {
			return &Converter{binary: path, outDir: outDir}
		}
	}
	return &Converter{outDir: outDir}
}

func (c *Converter) Available() bool {
	return c != nil && c.binary != ""
}

// ToPDF converts the file and returns the generated PDF path.
func (c *Converter) ToPDF(filePath string) (string, error) {
	if !c.Available() {
		return "", fmt.Errorf("LibreOffice failed: no converter binary on PATH")
	}
	outDir := c.outDir
	if outDir == "" {
		outDir = os.TempDir()
	}

	cmd := exec.Command(c.binary, "--headless", "--convert-to", "pdf", "--outdir", outDir, filePath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("LibreOffice failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	base := filepath.Base(filePath)
	pdfPath := filepath.Join(outDir, strings.TrimSuffix(base, filepath.Ext(base))+".pdf")
	if _, err := os.Stat(pdfPath); err != nil {
		return "", fmt.Errorf("LibreOffice failed: no output at %s", pdfPath)
	}
	return pdfPath, nil
}
