// Package report renders a run report for people and for tooling.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/artpar/templatecheck/internal/core/domain"
)

// Supported report formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Formats lists the accepted format names.
func Formats() []string {
	return []string{FormatText, FormatJSON, FormatYAML}
}

// Write renders r in format to w.
func Write(w io.Writer, format string, r *domain.RunReport) error {
	switch strings.ToLower(format) {
	case "", FormatText:
		return WriteText(w, r)
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatYAML, "yml":
		return WriteYAML(w, r)
	default:
		return domain.NewConfigError("report.format", fmt.Sprintf("unknown format %q (want one of %s)", format, strings.Join(Formats(), ", ")))
	}
}

// =============================================================================
// Text
// =============================================================================

type theme struct {
	pass   lipgloss.Style
	fail   lipgloss.Style
	title  lipgloss.Style
	detail lipgloss.Style
}

func newTheme(w io.Writer) theme {
	re := lipgloss.NewRenderer(w)
	return theme{
		pass:   re.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		fail:   re.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
		title:  re.NewStyle().Bold(true),
		detail: re.NewStyle().Faint(true),
	}
}

// WriteText writes one line per bundle, then every failure in full.
func WriteText(w io.Writer, r *domain.RunReport) error {
	th := newTheme(w)
	var sb strings.Builder

	for _, res := range r.Results {
		label := th.pass.Render("PASS")
		if !res.Passed {
			label = th.fail.Render("FAIL")
		}
		fmt.Fprintf(&sb, "%s  %s %s\n", label, bundleName(r, res.Bundle), th.detail.Render(fmt.Sprintf("(%s, %s)", res.State, round(res.Duration))))
	}

	failures := r.Failures()
	if len(failures) > 0 {
		fmt.Fprintf(&sb, "\n%s\n", th.title.Render(fmt.Sprintf("Failures (%d):", len(failures))))
		for _, res := range failures {
			fmt.Fprintf(&sb, "\n--- %s\n%s\n", bundleName(r, res.Bundle), res.Message)
		}
	}

	passed := len(r.Results) - len(failures)
	summary := fmt.Sprintf("%d bundle(s), %d passed, %d failed in %s", len(r.Results), passed, len(failures), round(r.Duration()))
	if len(failures) > 0 {
		summary = th.fail.Render(summary)
	} else {
		summary = th.pass.Render(summary)
	}
	fmt.Fprintf(&sb, "\n%s\n", summary)

	_, err := io.WriteString(w, sb.String())
	return err
}

// bundleName shows the bundle relative to the run root when possible.
func bundleName(r *domain.RunReport, b domain.Bundle) string {
	root, err := filepath.Abs(r.Root)
	if err != nil {
		return b.Dir
	}
	if rel, err := filepath.Rel(root, b.Dir); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return b.Dir
}

func round(d time.Duration) time.Duration {
	return d.Round(10 * time.Millisecond)
}

// =============================================================================
// Machine Formats
// =============================================================================

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, r *domain.RunReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode json report: %w", err)
	}
	return nil
}

// WriteYAML writes the report as YAML.
func WriteYAML(w io.Writer, r *domain.RunReport) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode yaml report: %w", err)
	}
	return enc.Close()
}
