package index

import "github.com/forever-free1/GeneDB/storage"

// Index 是驻留序列索引的抽象接口
// 负责存储序列到池内位置（LeafRef）的映射，并支持前缀扫描
// 它是磁盘上字典树的内存镜像，重启后按树的遍历重建
type Index interface {
	// Put 写入序列到位置的映射
	// 参数：
	//   - sequence: 序列
	//   - ref: 位置引用
	Put(sequence string, ref *storage.LeafRef)

	// Get 根据序列获取位置
	// 参数：
	//   - sequence: 序列
	// 返回：
	//   - *storage.LeafRef: 位置引用，不存在返回 nil
	Get(sequence string) *storage.LeafRef

	// Delete 根据序列删除索引项
	// 参数：
	//   - sequence: 序列
	// 返回：
	//   - bool: 是否删除成功
	Delete(sequence string) bool

	// PrefixScan 按字典序返回所有以 prefix 开头的序列
	// 参数：
	//   - prefix: 前缀，空串匹配全部
	// 返回：
	//   - []string: 匹配的序列
	PrefixScan(prefix string) []string

	// Size 返回索引中的序列数量
	Size() int

	// Close 关闭索引，释放资源
	Close()
}
