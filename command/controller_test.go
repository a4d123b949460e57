package command

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/forever-free1/GeneDB/storage/dnastore"
)

func newTestController(t *testing.T) (*Controller, *bytes.Buffer) {
	t.Helper()
	dir, err := os.MkdirTemp("", "genedb-command-test")
	if err != nil {
		t.Fatalf("创建临时目录失败: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	db, err := dnastore.Open(dir)
	if err != nil {
		t.Fatalf("打开数据库失败: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	var out bytes.Buffer
	return NewController(db, &out), &out
}

func TestRunOutcomeLines(t *testing.T) {
	ctrl, out := newTestController(t)

	script := strings.Join([]string{
		"insert AAAA",
		"insert AAAA",
		"insert 1234",
		"search AAAA$",
		"remove AAAA",
		"remove AAAA",
	}, "\n")
	if err := ctrl.Run(strings.NewReader(script)); err != nil {
		t.Fatalf("执行失败: %v", err)
	}

	want := "\nSuccessfully inserted new record \"AAAA\" of 3 bytes (4 characters) starting at position 3\n" +
		"INSERT: Cannot insert duplicate record \"AAAA\".\n" +
		"\nUnable to insert record \"1234\" (sequence does not contain any valid DNA characters)\n" +
		"\nNodes visited: 1\n" +
		"sequence: AAAA\n" +
		"\nDeleted old record \"AAAA\" of 3 bytes (4 characters) from position 3\n" +
		"Record \"AAAA\" not found\n"
	if out.String() != want {
		t.Fatalf("输出不符:\n%q\nvs\n%q", out.String(), want)
	}
}

func TestRunSearchNotFound(t *testing.T) {
	ctrl, out := newTestController(t)

	if err := ctrl.Run(strings.NewReader("search GGG")); err != nil {
		t.Fatalf("执行失败: %v", err)
	}
	if !strings.Contains(out.String(), "sequence \"GGG\" not found\n") {
		t.Fatalf("未找到提示不符: %q", out.String())
	}
}

func TestRunPrintEmitsStorageState(t *testing.T) {
	ctrl, out := newTestController(t)

	script := "insert AAAA\nprint\nprint lengths\nprint stats\n"
	if err := ctrl.Run(strings.NewReader(script)); err != nil {
		t.Fatalf("执行失败: %v", err)
	}
	got := out.String()
	for _, frag := range []string{
		"AAAA\n",
		"AAAA: length 4\n",
		"AAAA A(100.00), C(0.00), G(0.00), T(0.00)\n",
		"Free blocks:\n",
		"BufferPool IDs:\n",
	} {
		if !strings.Contains(got, frag) {
			t.Fatalf("打印输出缺少 %q:\n%s", frag, got)
		}
	}
}

func TestRunReportsDiagnostics(t *testing.T) {
	ctrl, out := newTestController(t)

	script := "foo bar\ninsert\nprint sideways\n"
	if err := ctrl.Run(strings.NewReader(script)); err != nil {
		t.Fatalf("执行失败: %v", err)
	}
	got := out.String()
	for _, frag := range []string{
		"Command \"foo\" not recognized on line 1\n",
		"INSERT, line 2: no DNA sequence specified; expecting String. Command usage: insert <DNAString>.",
		"Print request \"sideways\" not recognized. Call with no request, \"stats\", or \"lengths\".",
	} {
		if !strings.Contains(got, frag) {
			t.Fatalf("诊断输出缺少 %q:\n%s", frag, got)
		}
	}
	// 缺参插入在诊断之后仍然执行，产生无效序列结果行
	if !strings.Contains(got, "Unable to insert record \"\" (sequence does not contain any valid DNA characters)\n") {
		t.Fatalf("缺参插入应报无效序列:\n%s", got)
	}
}

func TestCropDisplay(t *testing.T) {
	long := strings.Repeat("B", 50)
	got := cropDisplay(long)
	want := strings.Repeat("B", 41) + "...\" (51 characters)"
	if got != want {
		t.Fatalf("截断不符: %q vs %q", got, want)
	}
	if cropDisplay("ACGT") != "ACGT\"" {
		t.Fatalf("短序列不应截断: %q", cropDisplay("ACGT"))
	}
}
