package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func writeROM(t *testing.T, bs []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.ch8")
	assert.NoError(t, os.WriteFile(path, bs, 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestDisasm(t *testing.T) {
	path := writeROM(t, []byte{0x00, 0xE0, 0x6A, 0x10, 0x12, 0x04, 0xFF})

	out, err := execute(t, "disasm", path)
	assert.NoError(t, err)

	want := "" +
		"0x0200  00E0  cls\n" +
		"0x0202  6A10  mov va, 16\n" +
		"0x0204  1204  jmp 0x0204\n" +
		"0x0206  FF    db 0xff\n"
	assert.Equal(t, want, out)
}

func TestDisasm_MissingFile(t *testing.T) {
	_, err := execute(t, "disasm", filepath.Join(t.TempDir(), "missing.ch8"))
	assert.Error(t, err)
}

func TestDump(t *testing.T) {
	path := writeROM(t, []byte{0x00, 0xE0})

	out, err := execute(t, "dump", path)
	assert.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	assert.Equal(t, 4096/16, len(lines))
	assert.True(t, strings.HasPrefix(lines[0], "0x0000: f0 90 90 90 f0"))
	assert.True(t, strings.HasPrefix(lines[0x20], "0x0200: 00 e0 00"))
}

func TestDump_ROMTooLarge(t *testing.T) {
	path := writeROM(t, make([]byte, 4096))

	_, err := execute(t, "dump", path)
	assert.Error(t, err)
}

func TestRun_UnknownFrontend(t *testing.T) {
	path := writeROM(t, []byte{0x12, 0x00})

	_, err := execute(t, "run", "--frontend", "tty", path)
	assert.Error(t, err)
}

func TestRun_Defaults(t *testing.T) {
	flags := newRunCommand().Flags()

	assert.Equal(t, "10", flags.Lookup("cycles").DefValue)
	assert.Equal(t, "16.666666ms", flags.Lookup("frame-delay").DefValue)
	assert.Equal(t, "sdl", flags.Lookup("frontend").DefValue)
	assert.Equal(t, "localhost:12600", flags.Lookup("statsview-addr").DefValue)
}
