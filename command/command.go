package command

import (
	"github.com/forever-free1/GeneDB/storage"
)

// Kind 标识一条命令的类型
type Kind int

const (
	// KindInsert 插入序列
	KindInsert Kind = iota
	// KindRemove 删除序列
	KindRemove
	// KindSearch 搜索序列或前缀
	KindSearch
	// KindPrint 打印树结构
	KindPrint
)

// Command 是命令文件中解析出的一条指令
// Arg 携带序列或序列描述符，Mode 仅打印命令使用
type Command struct {
	Kind Kind
	Arg  string
	Mode storage.PrintMode
}
