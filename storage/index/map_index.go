package index

import (
	"sort"
	"strings"

	"github.com/forever-free1/GeneDB/storage"
)

// MapIndex 是基于 Go 内置 map 的驻留索引实现
// 这是一个后备实现，前缀扫描需要线性遍历加排序，只适合小数据量
type MapIndex struct {
	data map[string]*storage.LeafRef
}

// NewMapIndex 创建一个新的 Map 索引实例
// 返回：
//   - *MapIndex: Map 索引指针
func NewMapIndex() *MapIndex {
	return &MapIndex{
		data: make(map[string]*storage.LeafRef),
	}
}

// Put 写入序列到位置的映射
func (idx *MapIndex) Put(sequence string, ref *storage.LeafRef) {
	idx.data[sequence] = ref
}

// Get 根据序列获取位置，不存在返回 nil
func (idx *MapIndex) Get(sequence string) *storage.LeafRef {
	return idx.data[sequence]
}

// Delete 从 Map 索引中删除序列
// 返回：
//   - bool: 是否删除成功
func (idx *MapIndex) Delete(sequence string) bool {
	_, exists := idx.data[sequence]
	if exists {
		delete(idx.data, sequence)
		return true
	}
	return false
}

// PrefixScan 线性扫描后按字典序排序
func (idx *MapIndex) PrefixScan(prefix string) []string {
	var matches []string
	for seq := range idx.data {
		if strings.HasPrefix(seq, prefix) {
			matches = append(matches, seq)
		}
	}
	sort.Strings(matches)
	return matches
}

// Size 返回 Map 索引中的序列数量
func (idx *MapIndex) Size() int {
	return len(idx.data)
}

// Close 关闭 Map 索引
func (idx *MapIndex) Close() {
	// 清空 map，释放内存
	idx.data = nil
}

// 确保 MapIndex 实现了 Index 接口
var _ Index = (*MapIndex)(nil)
