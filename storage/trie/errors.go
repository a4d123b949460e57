package trie

import "errors"

// ErrUnknownTag 表示节点镜像的首字节不是任何已知的节点标签
var ErrUnknownTag = errors.New("unknown node tag")

// ErrTruncatedNode 表示节点镜像长度与其标签要求的长度不符
var ErrTruncatedNode = errors.New("truncated node image")
