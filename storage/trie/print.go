package trie

import (
	"fmt"
	"strings"

	"github.com/forever-free1/GeneDB/storage"
)

// Print 按请求的模式渲染整棵树
// 深度优先遍历，子序固定为 A、C、G、T、$，每层缩进两个空格
// 空节点渲染为 E，内部节点为 I，叶子按模式渲染序列本身、
// 序列加字面长度或序列加碱基频率统计
func (t *Trie) Print(mode storage.PrintMode) (string, error) {
	var sb strings.Builder
	if err := t.printNode(t.root, 0, mode, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (t *Trie) printNode(h storage.Handle, depth int, mode storage.PrintMode, sb *strings.Builder) error {
	node, err := t.load(h)
	if err != nil {
		return err
	}
	indent := strings.Repeat("  ", depth)
	switch node.Tag {
	case TagEmpty:
		sb.WriteString(indent)
		sb.WriteString("E\n")
	case TagInternal:
		sb.WriteString(indent)
		sb.WriteString("I\n")
		for _, c := range node.Children {
			if err := t.printNode(c, depth+1, mode, sb); err != nil {
				return err
			}
		}
	case TagLeaf:
		stored, err := t.leafSequence(node.Ref)
		if err != nil {
			return err
		}
		sb.WriteString(indent)
		switch mode {
		case storage.PrintLengths:
			fmt.Fprintf(sb, "%s: length %d\n", stored, node.Ref.Literal)
		case storage.PrintStats:
			fmt.Fprintf(sb, "%s %s\n", stored, baseStats(stored))
		default:
			sb.WriteString(stored)
			sb.WriteByte('\n')
		}
	}
	return nil
}

// baseStats 渲染四种碱基在序列中的出现频率，百分比保留两位小数
func baseStats(sequence string) string {
	var counts [4]int
	for i := 0; i < len(sequence); i++ {
		counts[baseCode(sequence[i])]++
	}
	total := float64(len(sequence))
	return fmt.Sprintf("A(%.2f), C(%.2f), G(%.2f), T(%.2f)",
		100*float64(counts[0])/total,
		100*float64(counts[1])/total,
		100*float64(counts[2])/total,
		100*float64(counts[3])/total)
}
