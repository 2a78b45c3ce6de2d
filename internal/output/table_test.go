package output

import (
	"strings"
	"testing"
)

func renderLines(t *testing.T, tbl *Table) []string {
	t.Helper()
	return strings.Split(strings.TrimRight(tbl.Render(), "\n"), "\n")
}

func TestVisualLen(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"empty", "", 0},
		{"plain", "lint 2/5", 8},
		{"sgr color", "\x1b[31merror\x1b[0m", 5},
		{"stacked sgr", "\x1b[1m\x1b[33mwarning\x1b[0m", 7},
		{"wide glyph", "✓ ok", 4},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := visualLen(tc.input); got != tc.want {
				t.Errorf("visualLen(%q) = %d, want %d", tc.input, got, tc.want)
			}
		})
	}
}

func TestPad_NeverTruncates(t *testing.T) {
	if got := pad("types", 8); got != "types   " {
		t.Errorf("pad short = %q", got)
	}
	if got := pad("security", 3); got != "security" {
		t.Errorf("pad long = %q", got)
	}
	styled := "\x1b[32mok\x1b[0m"
	if got := pad(styled, 4); visualLen(got) != 4 || !strings.HasPrefix(got, styled) {
		t.Errorf("pad styled = %q", got)
	}
}

func TestTable_Layout(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	tbl := NewTable("Category", "Status", "Detail")
	tbl.AddRow("Lint", "error", "2 errors, 5 warnings")
	tbl.AddRow("Types", "ok", "0 errors")

	lines := renderLines(t, tbl)
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want header, rule and 2 rows:\n%s", len(lines), tbl.Render())
	}
	if !strings.HasPrefix(lines[0], "Category  Status  Detail") {
		t.Errorf("header = %q", lines[0])
	}
	if strings.Trim(lines[1], "─ ") != "" {
		t.Errorf("rule line = %q", lines[1])
	}
	// Columns start at the same offset in every row.
	col := strings.Index(lines[0], "Status")
	if strings.Index(lines[2], "error") != col || strings.Index(lines[3], "ok") != col {
		t.Errorf("status column misaligned:\n%s", tbl.Render())
	}
}

func TestTable_WidestCellSetsColumn(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	tbl := NewTable("Loc", "Code")
	tbl.AddRow("internal/api/handler.go:42", "errcheck")

	lines := renderLines(t, tbl)
	if got, want := strings.Index(lines[0], "Code"), len("internal/api/handler.go:42")+2; got != want {
		t.Errorf("Code column at %d, want %d", got, want)
	}
}

func TestTable_StyledCellsAlign(t *testing.T) {
	tbl := NewTable("Level", "Message")
	tbl.AddRow("\x1b[31merror\x1b[0m", "unused variable")
	tbl.AddRow("hint", "consider renaming")

	lines := renderLines(t, tbl)
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4", len(lines))
	}
	if visualLen(lines[2]) != visualLen(lines[3]) {
		t.Errorf("styled row width %d != plain row width %d", visualLen(lines[2]), visualLen(lines[3]))
	}
}

func TestTable_RowShapeAndOutput(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	tbl := NewTable("ID", "Rule", "Reason")
	tbl.AddRow("1")
	tbl.AddRow("2", "errcheck", "checked upstream", "extra")

	if tbl.Len() != 2 {
		t.Errorf("Len() = %d, want 2", tbl.Len())
	}
	var sb strings.Builder
	if err := tbl.Fprint(&sb); err != nil {
		t.Fatalf("Fprint: %v", err)
	}
	if sb.String() != tbl.String() || tbl.String() != tbl.Render() {
		t.Error("Fprint, String and Render disagree")
	}
	if strings.Contains(sb.String(), "extra") {
		t.Error("values beyond the header count should be dropped")
	}
}

func TestTable_NoHeaders(t *testing.T) {
	if got := NewTable().Render(); got != "" {
		t.Errorf("Render() = %q, want empty", got)
	}
}

func TestSetNoColor(t *testing.T) {
	SetNoColor(true)
	if !IsNoColor() {
		t.Error("IsNoColor() = false after SetNoColor(true)")
	}
	if rendered := StyleError.Render("error"); strings.Contains(rendered, "\x1b[") {
		t.Errorf("StyleError rendered escapes with color off: %q", rendered)
	}
	SetNoColor(false)
	if IsNoColor() {
		t.Error("IsNoColor() = true after SetNoColor(false)")
	}
}
