package command

import (
	"fmt"
	"strings"

	"github.com/forever-free1/GeneDB/storage"
)

// ==================== 命令解析器 ====================

// Parser 逐行解析命令文件
// 维护已解析的命令序号，只统计非空行，诊断信息中以它作为行号
type Parser struct {
	num int
}

// NewParser 创建一个命令解析器
func NewParser() *Parser {
	return &Parser{}
}

// Parse 解析一行文本
// 空行不计序号直接跳过；缺参命令返回携带空参数的命令和一条诊断；
// 无法识别的命令和打印请求只返回诊断
// 返回：
//   - *Command: 解析出的命令，无命令时为 nil
//   - string: 需要原样输出的诊断信息，为空表示无诊断
func (p *Parser) Parse(line string) (*Command, string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, ""
	}
	p.num++
	switch fields[0] {
	case "insert":
		if len(fields) < 2 {
			return &Command{Kind: KindInsert}, fmt.Sprintf(
				"INSERT, line %d: no DNA sequence specified; expecting String. Command usage: insert <DNAString>.", p.num)
		}
		return &Command{Kind: KindInsert, Arg: fields[1]}, ""
	case "remove":
		if len(fields) < 2 {
			return &Command{Kind: KindRemove}, fmt.Sprintf(
				"REMOVE, line %d: no DNA sequence specified; expecting String. Command usage: remove <DNAString>.", p.num)
		}
		return &Command{Kind: KindRemove, Arg: fields[1]}, ""
	case "search":
		if len(fields) < 2 {
			return &Command{Kind: KindSearch}, fmt.Sprintf(
				"SEARCH, line %d: no DNA sequence specified; expecting String. Command usage: search <sequenceDescriptor>.", p.num)
		}
		return &Command{Kind: KindSearch, Arg: fields[1]}, ""
	case "print":
		if len(fields) < 2 {
			return &Command{Kind: KindPrint, Mode: storage.PrintPlain}, ""
		}
		switch fields[1] {
		case "lengths":
			return &Command{Kind: KindPrint, Mode: storage.PrintLengths}, ""
		case "stats":
			return &Command{Kind: KindPrint, Mode: storage.PrintStats}, ""
		default:
			return nil, fmt.Sprintf(
				"Print request \"%s\" not recognized. Call with no request, \"stats\", or \"lengths\".", fields[1])
		}
	default:
		return nil, fmt.Sprintf("Command \"%s\" not recognized on line %d\n", fields[0], p.num)
	}
}
