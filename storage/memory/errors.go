package memory

import "errors"

// ErrRecordTooLarge 表示负载超出 16 位长度前缀所能表达的上限
var ErrRecordTooLarge = errors.New("record payload exceeds 65535 bytes")

// ErrEmptyRecord 表示拒绝存储空负载
var ErrEmptyRecord = errors.New("empty record payload")

// ErrBadHandle 表示句柄为哨兵值或越界
var ErrBadHandle = errors.New("invalid record handle")

// ErrCorruptFreeList 表示空闲链表违反有序、不重叠、完全合并的约束
var ErrCorruptFreeList = errors.New("free list invariant violated")
