// Package output renders scan results: the token display form written to
// .out files, the error report, and JSON views for the HTTP transport.
package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/antibyte/minilang/pkg/configuration"
	"github.com/antibyte/minilang/pkg/lexer"
	"github.com/antibyte/minilang/pkg/logger"
)

// DefaultOutName is used when the source has no file path.
const DefaultOutName = "salida.out"

// FormatTokens returns the display form of every token.
func FormatTokens(tokens []lexer.Token) []string {
	lines := make([]string, len(tokens))
	for i, tok := range tokens {
		lines[i] = tok.String()
	}
	return lines
}

// FormatErrors returns the display form of every error.
func FormatErrors(errs []lexer.LexError) []string {
	lines := make([]string, len(errs))
	for i, e := range errs {
		lines[i] = e.Error()
	}
	return lines
}

// WriteTokens writes one token per line, without a trailing newline.
func WriteTokens(w io.Writer, tokens []lexer.Token) error {
	_, err := io.WriteString(w, strings.Join(FormatTokens(tokens), "\n"))
	return err
}

// ErrorReport returns the human-readable error summary.
func ErrorReport(errs []lexer.LexError) string {
	if len(errs) == 0 {
		return "Analysis completed without lexical errors."
	}
	return fmt.Sprintf("Found %d errors:\n%s", len(errs), strings.Join(FormatErrors(errs), "\n"))
}

// WriteErrors writes the error report to w.
func WriteErrors(w io.Writer, errs []lexer.LexError) error {
	_, err := io.WriteString(w, ErrorReport(errs))
	return err
}

// OutPath returns the sibling path of sourcePath with its extension replaced
// by the configured output extension.
func OutPath(sourcePath string) string {
	if sourcePath == "" {
		return DefaultOutName
	}
	ext := configuration.GetString("Output", "out_extension", ".out")
	return strings.TrimSuffix(sourcePath, filepath.Ext(sourcePath)) + ext
}

// WriteOutFile writes the token display form next to sourcePath and returns
// the path written.
func WriteOutFile(sourcePath string, tokens []lexer.Token) (string, error) {
	path := OutPath(sourcePath)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	if err := WriteTokens(file, tokens); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}

	logger.Info(logger.AreaOutput, "wrote %d tokens to %s", len(tokens), path)
	return path, nil
}
