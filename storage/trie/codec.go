package trie

import (
	"encoding/binary"
	"fmt"

	"github.com/forever-free1/GeneDB/storage"
)

// ==================== 节点编解码 ====================

// encodeEmpty 返回空节点镜像
func encodeEmpty() []byte {
	return []byte{TagEmpty}
}

// encodeLeaf 返回叶子节点镜像：标签、16 位字面长度、32 位负载句柄
func encodeLeaf(ref storage.LeafRef) []byte {
	image := make([]byte, leafImageSize)
	image[0] = TagLeaf
	binary.BigEndian.PutUint16(image[1:3], uint16(ref.Literal))
	binary.BigEndian.PutUint32(image[3:7], uint32(ref.Handle))
	return image
}

// encodeInternal 返回内部节点镜像：标签后跟五个独立的大端 32 位子句柄
func encodeInternal(children [branchCount]storage.Handle) []byte {
	image := make([]byte, internalImageSize)
	image[0] = TagInternal
	for i, h := range children {
		binary.BigEndian.PutUint32(image[1+4*i:5+4*i], uint32(h))
	}
	return image
}

// encodeNode 按标签分派编码
func encodeNode(n *Node) []byte {
	switch n.Tag {
	case TagEmpty:
		return encodeEmpty()
	case TagLeaf:
		return encodeLeaf(n.Ref)
	default:
		return encodeInternal(n.Children)
	}
}

// decodeNode 按首字节标签解码节点镜像
// 返回：
//   - *Node: 解码出的节点
//   - error: 未知标签或镜像长度不符
func decodeNode(image []byte) (*Node, error) {
	if len(image) == 0 {
		return nil, ErrTruncatedNode
	}
	switch image[0] {
	case TagEmpty:
		if len(image) != emptyImageSize {
			return nil, fmt.Errorf("%w: 空节点 %d 字节", ErrTruncatedNode, len(image))
		}
		return &Node{Tag: TagEmpty}, nil
	case TagLeaf:
		if len(image) != leafImageSize {
			return nil, fmt.Errorf("%w: 叶子节点 %d 字节", ErrTruncatedNode, len(image))
		}
		return &Node{
			Tag: TagLeaf,
			Ref: storage.LeafRef{
				Literal: int(binary.BigEndian.Uint16(image[1:3])),
				Handle:  storage.Handle(int32(binary.BigEndian.Uint32(image[3:7]))),
			},
		}, nil
	case TagInternal:
		if len(image) != internalImageSize {
			return nil, fmt.Errorf("%w: 内部节点 %d 字节", ErrTruncatedNode, len(image))
		}
		n := &Node{Tag: TagInternal}
		for i := 0; i < branchCount; i++ {
			n.Children[i] = storage.Handle(int32(binary.BigEndian.Uint32(image[1+4*i : 5+4*i])))
		}
		return n, nil
	default:
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnknownTag, image[0])
	}
}
