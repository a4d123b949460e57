package command

import (
	"testing"

	"github.com/forever-free1/GeneDB/storage"
)

func TestParseRecognizedCommands(t *testing.T) {
	p := NewParser()

	cmd, diag := p.Parse("insert GATTACA")
	if diag != "" || cmd == nil || cmd.Kind != KindInsert || cmd.Arg != "GATTACA" {
		t.Fatalf("插入命令解析不符: %+v %q", cmd, diag)
	}
	cmd, diag = p.Parse("remove GATTACA")
	if diag != "" || cmd == nil || cmd.Kind != KindRemove || cmd.Arg != "GATTACA" {
		t.Fatalf("删除命令解析不符: %+v %q", cmd, diag)
	}
	cmd, diag = p.Parse("search GAT$")
	if diag != "" || cmd == nil || cmd.Kind != KindSearch || cmd.Arg != "GAT$" {
		t.Fatalf("搜索命令解析不符: %+v %q", cmd, diag)
	}
	cmd, diag = p.Parse("print")
	if diag != "" || cmd == nil || cmd.Kind != KindPrint || cmd.Mode != storage.PrintPlain {
		t.Fatalf("打印命令解析不符: %+v %q", cmd, diag)
	}
	cmd, diag = p.Parse("print lengths")
	if diag != "" || cmd == nil || cmd.Mode != storage.PrintLengths {
		t.Fatalf("长度打印命令解析不符: %+v %q", cmd, diag)
	}
	cmd, diag = p.Parse("print stats")
	if diag != "" || cmd == nil || cmd.Mode != storage.PrintStats {
		t.Fatalf("统计打印命令解析不符: %+v %q", cmd, diag)
	}
}

func TestParseSkipsEmptyLines(t *testing.T) {
	p := NewParser()

	if cmd, diag := p.Parse("   "); cmd != nil || diag != "" {
		t.Fatalf("空行应跳过: %+v %q", cmd, diag)
	}
	// 空行不计入序号
	_, diag := p.Parse("foo")
	want := "Command \"foo\" not recognized on line 1\n"
	if diag != want {
		t.Fatalf("诊断不符: %q vs %q", diag, want)
	}
}

func TestParseMissingArgument(t *testing.T) {
	p := NewParser()

	cmd, diag := p.Parse("insert")
	if cmd == nil || cmd.Arg != "" {
		t.Fatalf("缺参插入仍应返回命令: %+v", cmd)
	}
	want := "INSERT, line 1: no DNA sequence specified; expecting String. Command usage: insert <DNAString>."
	if diag != want {
		t.Fatalf("诊断不符: %q", diag)
	}
	if _, diag = p.Parse("search"); diag == "" {
		t.Fatal("缺参搜索应有诊断")
	}
	if _, diag = p.Parse("remove"); diag == "" {
		t.Fatal("缺参删除应有诊断")
	}
}

func TestParseUnknownPrintRequest(t *testing.T) {
	p := NewParser()

	cmd, diag := p.Parse("print sideways")
	if cmd != nil {
		t.Fatalf("未知打印请求不应产生命令: %+v", cmd)
	}
	want := "Print request \"sideways\" not recognized. Call with no request, \"stats\", or \"lengths\"."
	if diag != want {
		t.Fatalf("诊断不符: %q", diag)
	}
}
