package index

import (
	art "github.com/plar/go-adaptive-radix-tree"

	"github.com/forever-free1/GeneDB/storage"
)

// ARTIndex 是基于自适应基数树（Adaptive Radix Tree）的驻留索引实现
// DNA 序列的字母表只有四个字符，ART 的路径压缩对这类键特别友好
type ARTIndex struct {
	tree art.Tree
}

// NewARTIndex 创建一个新的 ART 索引实例
// 返回：
//   - *ARTIndex: ART 索引指针
func NewARTIndex() *ARTIndex {
	return &ARTIndex{
		tree: art.New(),
	}
}

// Put 写入序列到位置的映射
// 参数：
//   - sequence: 序列
//   - ref: 位置引用
func (idx *ARTIndex) Put(sequence string, ref *storage.LeafRef) {
	idx.tree.Insert(art.Key(sequence), ref)
}

// Get 根据序列从 ART 索引获取位置
// 参数：
//   - sequence: 序列
// 返回：
//   - *storage.LeafRef: 位置引用，不存在返回 nil
func (idx *ARTIndex) Get(sequence string) *storage.LeafRef {
	value, found := idx.tree.Search(art.Key(sequence))
	if !found {
		return nil
	}
	return value.(*storage.LeafRef)
}

// Delete 从 ART 索引中删除序列
// 参数：
//   - sequence: 序列
// 返回：
//   - bool: 是否删除成功
func (idx *ARTIndex) Delete(sequence string) bool {
	_, deleted := idx.tree.Delete(art.Key(sequence))
	return deleted
}

// PrefixScan 按字典序收集所有以 prefix 开头的序列
// 参数：
//   - prefix: 前缀，空串匹配全部
// 返回：
//   - []string: 匹配的序列
func (idx *ARTIndex) PrefixScan(prefix string) []string {
	var matches []string
	idx.tree.ForEachPrefix(art.Key(prefix), func(node art.Node) bool {
		if node.Kind() == art.Leaf {
			matches = append(matches, string(node.Key()))
		}
		return true
	})
	return matches
}

// Size 返回 ART 索引中的序列数量
// 返回：
//   - int: 序列数量
func (idx *ARTIndex) Size() int {
	return idx.tree.Size()
}

// Close 关闭 ART 索引
func (idx *ARTIndex) Close() {
	// ART 树没有需要关闭的资源，GC 会自动回收
}

// 确保 ARTIndex 实现了 Index 接口
var _ Index = (*ARTIndex)(nil)
