package trie

import "github.com/forever-free1/GeneDB/storage"

// 节点标签，即节点镜像的首字节
const (
	TagInternal byte = 0x00 // 内部节点
	TagLeaf     byte = 0x01 // 叶子节点
	TagEmpty    byte = 0xFE // 空节点（享元）
)

// 各类节点镜像的字节长度
const (
	emptyImageSize    = 1
	leafImageSize     = 7
	internalImageSize = 21
)

// branchCount 是内部节点的子槽数量，按 A、C、G、T、$ 固定排列
const branchCount = 5

// branchTerminator 是 $ 分支的下标
const branchTerminator = 4

// MaxSequenceLength 是单条序列的碱基数上限，受叶子 16 位字面长度字段限制
const MaxSequenceLength = 65535

// Node 是带标签的节点变体
// Empty 不携带数据，Leaf 使用 Ref，Internal 使用 Children
type Node struct {
	Tag      byte
	Ref      storage.LeafRef              // 叶子：负载句柄与字面长度
	Children [branchCount]storage.Handle // 内部：五个子句柄
}

// branchIndex 返回字符对应的子槽下标，未知字符返回 -1
func branchIndex(c byte) int {
	if c == Terminator {
		return branchTerminator
	}
	return baseCode(c)
}
