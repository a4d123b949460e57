package command

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/forever-free1/GeneDB/storage"
	"github.com/forever-free1/GeneDB/storage/dnastore"
)

// CropLength 是结果行中序列展示文本的截断阈值，截断方式见 cropDisplay
const CropLength = 40

// ==================== 控制器定义 ====================

// Controller 将解析出的命令分派到存储引擎并打印结果行
// 用户层面的失败（重复、无效、未找到）化为结果行；引擎内部错误向上返回
type Controller struct {
	db  *dnastore.DB
	out io.Writer
}

// NewController 创建一个控制器
// 参数：
//   - db: 存储引擎
//   - out: 结果行的输出目标
func NewController(db *dnastore.DB, out io.Writer) *Controller {
	return &Controller{db: db, out: out}
}

// Run 逐行读取命令并执行，直到输入耗尽
// 返回：
//   - error: 读取错误或引擎内部错误
func (c *Controller) Run(r io.Reader) error {
	parser := NewParser()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		cmd, diag := parser.Parse(scanner.Text())
		if diag != "" {
			fmt.Fprintln(c.out, diag)
		}
		if cmd == nil {
			continue
		}
		if err := c.Execute(cmd); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// Execute 执行单条命令
func (c *Controller) Execute(cmd *Command) error {
	switch cmd.Kind {
	case KindInsert:
		return c.insert(cmd.Arg)
	case KindRemove:
		return c.remove(cmd.Arg)
	case KindSearch:
		return c.search(cmd.Arg)
	case KindPrint:
		return c.print(cmd.Mode)
	}
	return nil
}

// ==================== 命令执行 ====================

func (c *Controller) insert(seq string) error {
	res, err := c.db.Insert(seq)
	switch {
	case err == nil:
		fmt.Fprintf(c.out, "\nSuccessfully inserted new record \"%s\" of %d bytes (%d characters) starting at position %d\n",
			res.Sequence, res.Bytes, res.Literal, res.Address)
	case errors.Is(err, storage.ErrDuplicateSequence):
		fmt.Fprintf(c.out, "INSERT: Cannot insert duplicate record \"%s\".\n", seq)
	case errors.Is(err, storage.ErrInvalidSequence):
		fmt.Fprintf(c.out, "\nUnable to insert record \"%s (sequence does not contain any valid DNA characters)\n",
			cropDisplay(seq))
	case errors.Is(err, storage.ErrSequenceTooLong), errors.Is(err, storage.ErrOutOfSpace):
		fmt.Fprintf(c.out, "\nUnable to insert record \"%s (insufficient free space)\n", cropDisplay(seq))
	default:
		return err
	}
	return nil
}

func (c *Controller) remove(seq string) error {
	res, err := c.db.Remove(seq)
	switch {
	case err == nil:
		fmt.Fprintf(c.out, "\nDeleted old record \"%s\" of %d bytes (%d characters) from position %d\n",
			res.Sequence, res.Bytes, res.Literal, res.Address)
	case errors.Is(err, storage.ErrSequenceNotFound), errors.Is(err, storage.ErrInvalidSequence):
		fmt.Fprintf(c.out, "Record \"%s not found\n", cropDisplay(seq))
	default:
		return err
	}
	return nil
}

func (c *Controller) search(descriptor string) error {
	visited, matches, err := c.db.Search(descriptor)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "\nNodes visited: %d\n", visited)
	if len(matches) == 0 {
		fmt.Fprintf(c.out, "sequence \"%s\" not found\n", descriptor)
		return nil
	}
	for _, m := range matches {
		fmt.Fprintf(c.out, "sequence: %s\n", m)
	}
	return nil
}

func (c *Controller) print(mode storage.PrintMode) error {
	rendering, err := c.db.Print(mode)
	if err != nil {
		return err
	}
	ids := c.db.BufferIDs()
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	fmt.Fprintf(c.out, "%s\nFree blocks:\n%s\nBufferPool IDs:\n%s\n",
		rendering, c.db.FreeBlocks(), strings.Join(parts, ", "))
	return nil
}

// ==================== 展示辅助 ====================

// cropDisplay 构造结果行中的序列展示文本，含收尾引号
// 展示文本长度超出 CropLength 时保留前 CropLength+1 个字符，
// 并附注展示文本的长度（序列长度加收尾引号）
func cropDisplay(seq string) string {
	display := seq + "\""
	if len(display) > CropLength {
		display = display[:CropLength+1] + "...\" (" + strconv.Itoa(len(display)) + " characters)"
	}
	return display
}
