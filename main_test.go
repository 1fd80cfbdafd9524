package main

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"coolc": func() int { return run(os.Args[1:], os.Stdout, os.Stderr) },
	}))
}

func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata/script",
	})
}

func TestDispatchFileNames(t *testing.T) {
	tests := []struct {
		output, disptab string
		path, include   string
	}{
		{"hello.s", "disptab.z80", "disptab.z80", "disptab.z80"},
		{"out/prog.s", "disptab.z80", "out/disptab.z80", "disptab.z80"},
		{"out/prog.s", "", "", ""},
		{"prog.s", "gen/tables.z80", "gen/tables.z80", "gen/tables.z80"},
	}
	for _, tt := range tests {
		if got := dispatchPath(tt.output, tt.disptab); got != tt.path {
			t.Errorf("dispatchPath(%q, %q) = %q, want %q", tt.output, tt.disptab, got, tt.path)
		}
		if got := includeName(tt.output, tt.disptab); got != tt.include {
			t.Errorf("includeName(%q, %q) = %q, want %q", tt.output, tt.disptab, got, tt.include)
		}
	}
}

func TestExitStatus(t *testing.T) {
	tests := []struct {
		args []string
		want int
	}{
		{[]string{"-h"}, 0},
		{[]string{"-no-such-flag", "a.cl"}, exitUsage},
		{nil, exitUsage},
		{[]string{"-log-format", "xml", "a.cl"}, 1},
		{[]string{"missing.cl"}, 1},
	}
	for _, tt := range tests {
		var stderr bytes.Buffer
		if got := run(tt.args, io.Discard, &stderr); got != tt.want {
			t.Errorf("run(%q) = %d, want %d; stderr:\n%s", tt.args, got, tt.want, stderr.String())
		}
	}
}

func TestUnknownLogFormat(t *testing.T) {
	var stderr bytes.Buffer
	run([]string{"-log-format", "xml", "a.cl"}, io.Discard, &stderr)
	if !strings.Contains(stderr.String(), `unknown log format "xml"`) {
		t.Errorf("stderr = %q", stderr.String())
	}
}
