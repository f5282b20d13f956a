package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderTableIncludesHeadersAndRows(t *testing.T) {
	out := renderTable(
		[]string{"Name", "Set", "Versions"},
		[][]string{
			{"Ancient Oak", "ALP", "3"},
			{"Bolt of Ruin", "BET"},
		},
		[]columnAlignment{alignLeft, alignLeft, alignRight},
	)

	for _, want := range []string{"Name", "Set", "Versions", "Ancient Oak", "Bolt of Ruin", "ALP"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in table output:\n%s", want, out)
		}
	}
	if lines := strings.Split(out, "\n"); len(lines) < 4 {
		t.Fatalf("expected bordered table, got %d lines", len(lines))
	}
}

func TestRenderTableEmptyHeaders(t *testing.T) {
	if out := renderTable(nil, nil, nil); out != "" {
		t.Fatalf("expected empty output, got %q", out)
	}
}

func TestRenderStatusLine(t *testing.T) {
	plain := renderStatusLine("Search index", statusOK, "12000 printings indexed", false)
	if !strings.Contains(plain, "[OK] 12000 printings indexed") {
		t.Fatalf("unexpected status line: %q", plain)
	}
	if strings.Contains(plain, ansiGreen) {
		t.Fatal("plain rendering must not contain color codes")
	}

	colored := renderStatusLine("Search index", statusError, "", true)
	if !strings.Contains(colored, ansiRed) || !strings.Contains(colored, ansiReset) {
		t.Fatalf("expected colored rendering, got %q", colored)
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(&bytes.Buffer{}) {
		t.Fatal("buffers must not be colorized")
	}
}
