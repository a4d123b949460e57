package trie

import (
	"fmt"
	"strings"

	"github.com/forever-free1/GeneDB/storage"
	"github.com/forever-free1/GeneDB/storage/memory"
)

// ==================== 字典树定义 ====================

// Trie 是一棵持久化的五叉基数树，按 A、C、G、T、$ 五个分支索引 DNA 序列
// 每个节点都是内存池中的一条记录，节点之间只通过句柄引用
// 节点镜像一旦变化就写入新记录并释放旧记录，根句柄随之更新
type Trie struct {
	mem       *memory.Manager
	root      storage.Handle // 根节点句柄
	flyweight storage.Handle // 全树共享的空节点句柄
	size      int            // 驻留序列条数
}

// New 创建一棵空树
// 构造时写入唯一的空节点记录，根指向它；此后所有空子槽都复用这一句柄
func New(mem *memory.Manager) (*Trie, error) {
	fly, err := mem.Insert(encodeEmpty())
	if err != nil {
		return nil, fmt.Errorf("写入空节点享元失败: %w", err)
	}
	return &Trie{mem: mem, root: fly, flyweight: fly}, nil
}

// Restore 从持久化的根句柄、享元句柄和条数重建一棵树
func Restore(mem *memory.Manager, root, flyweight storage.Handle, size int) *Trie {
	return &Trie{mem: mem, root: root, flyweight: flyweight, size: size}
}

// Root 返回当前根句柄
func (t *Trie) Root() storage.Handle {
	return t.root
}

// Flyweight 返回空节点享元的句柄
func (t *Trie) Flyweight() storage.Handle {
	return t.flyweight
}

// Size 返回驻留序列条数
func (t *Trie) Size() int {
	return t.size
}

// ==================== 节点存取 ====================

// load 取出句柄对应的节点镜像并解码
func (t *Trie) load(h storage.Handle) (*Node, error) {
	image, err := t.mem.Get(h)
	if err != nil {
		return nil, fmt.Errorf("读取节点 %d 失败: %w", h, err)
	}
	return decodeNode(image)
}

// leafSequence 还原叶子指向的完整序列（不含终结符）
func (t *Trie) leafSequence(ref storage.LeafRef) (string, error) {
	payload, err := t.mem.Get(ref.Handle)
	if err != nil {
		return "", fmt.Errorf("读取负载 %d 失败: %w", ref.Handle, err)
	}
	return DecodeSequence(payload, ref.Literal), nil
}

// emptyChildren 返回五个槽全部指向享元的子句柄数组
func (t *Trie) emptyChildren() [branchCount]storage.Handle {
	var children [branchCount]storage.Handle
	for i := range children {
		children[i] = t.flyweight
	}
	return children
}

// ==================== 插入 ====================

// Insert 插入一条序列，重复序列被拒绝
// 参数：
//   - sequence: 序列，非碱基字符被过滤
//
// 返回：
//   - *storage.InsertResult: 存储字节数、字面长度、起始地址
//   - error: storage.ErrInvalidSequence、storage.ErrDuplicateSequence 或 I/O 错误
func (t *Trie) Insert(sequence string) (*storage.InsertResult, error) {
	seq, err := Normalize(sequence)
	if err != nil {
		return nil, err
	}
	found, err := t.fetch(seq)
	if err != nil {
		return nil, err
	}
	if found {
		return nil, storage.ErrDuplicateSequence
	}
	return t.InsertUnique(seq)
}

// InsertUnique 插入一条已知不存在的序列，跳过重复检查
// 调用方需自行保证序列不在树中
func (t *Trie) InsertUnique(sequence string) (*storage.InsertResult, error) {
	seq, err := Normalize(sequence)
	if err != nil {
		return nil, err
	}
	if len(seq) > MaxSequenceLength {
		return nil, storage.ErrSequenceTooLong
	}
	payload, err := EncodeSequence(seq)
	if err != nil {
		return nil, err
	}
	h, err := t.mem.Insert(payload)
	if err != nil {
		return nil, err
	}
	ref := storage.LeafRef{Handle: h, Literal: len(seq)}
	newRoot, err := t.insertAt(t.root, seq+string(Terminator), 0, ref)
	if err != nil {
		return nil, err
	}
	t.root = newRoot
	t.size++
	return &storage.InsertResult{
		Sequence: seq,
		Bytes:    memory.LengthPrefixSize + len(payload),
		Literal:  len(seq),
		Address:  h,
	}, nil
}

// insertAt 把叶子引用 ref 挂到以 h 为根的子树中
// 子树镜像有变化时写入新记录并释放旧记录，返回新句柄；无变化时原样返回 h
func (t *Trie) insertAt(h storage.Handle, key string, depth int, ref storage.LeafRef) (storage.Handle, error) {
	node, err := t.load(h)
	if err != nil {
		return storage.NilHandle, err
	}
	switch node.Tag {
	case TagEmpty:
		// 空槽落位，享元本身不被释放
		return t.mem.Insert(encodeLeaf(ref))
	case TagLeaf:
		return t.splitLeaf(h, node.Ref, key, depth, ref)
	default:
		i := branchIndex(key[depth])
		child := node.Children[i]
		newChild, err := t.insertAt(child, key, depth+1, ref)
		if err != nil {
			return storage.NilHandle, err
		}
		if newChild == child {
			return h, nil
		}
		node.Children[i] = newChild
		return t.rewriteInternal(h, node.Children)
	}
}

// splitLeaf 处理叶子碰撞：沿两条键的共同前缀逐层下推，
// 在分叉处建一个挂着两个叶子的内部节点，再自底向上补齐单链内部节点
// 原叶子镜像原样复用，新写入的只有新叶子和路径上的内部节点
func (t *Trie) splitLeaf(leafHandle storage.Handle, existing storage.LeafRef, key string, depth int, ref storage.LeafRef) (storage.Handle, error) {
	stored, err := t.leafSequence(existing)
	if err != nil {
		return storage.NilHandle, err
	}
	exKey := stored + string(Terminator)
	// 两条 $ 终结的键互不为前缀，必在越界前分叉
	d := depth
	for exKey[d] == key[d] {
		d++
	}
	newLeaf, err := t.mem.Insert(encodeLeaf(ref))
	if err != nil {
		return storage.NilHandle, err
	}
	children := t.emptyChildren()
	children[branchIndex(exKey[d])] = leafHandle
	children[branchIndex(key[d])] = newLeaf
	h, err := t.mem.Insert(encodeInternal(children))
	if err != nil {
		return storage.NilHandle, err
	}
	for level := d - 1; level >= depth; level-- {
		chain := t.emptyChildren()
		chain[branchIndex(key[level])] = h
		h, err = t.mem.Insert(encodeInternal(chain))
		if err != nil {
			return storage.NilHandle, err
		}
	}
	return h, nil
}

// rewriteInternal 写入新的内部节点镜像并释放旧镜像
func (t *Trie) rewriteInternal(old storage.Handle, children [branchCount]storage.Handle) (storage.Handle, error) {
	h, err := t.mem.Insert(encodeInternal(children))
	if err != nil {
		return storage.NilHandle, err
	}
	if _, err := t.mem.Remove(old); err != nil {
		return storage.NilHandle, err
	}
	return h, nil
}

// ==================== 删除 ====================

// Remove 删除一条精确匹配的序列
// 返回：
//   - *storage.RemoveResult: 释放的字节数、字面长度、原起始地址
//   - error: storage.ErrSequenceNotFound、storage.ErrInvalidSequence 或 I/O 错误
func (t *Trie) Remove(sequence string) (*storage.RemoveResult, error) {
	seq, err := Normalize(sequence)
	if err != nil {
		return nil, err
	}
	newRoot, res, err := t.removeAt(t.root, seq+string(Terminator), 0, seq)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, storage.ErrSequenceNotFound
	}
	t.root = newRoot
	t.size--
	return res, nil
}

// removeAt 从以 h 为根的子树中摘除 seq 对应的叶子
// 未命中时 res 为 nil 且子树原样保留
func (t *Trie) removeAt(h storage.Handle, key string, depth int, seq string) (storage.Handle, *storage.RemoveResult, error) {
	node, err := t.load(h)
	if err != nil {
		return storage.NilHandle, nil, err
	}
	switch node.Tag {
	case TagEmpty:
		return h, nil, nil
	case TagLeaf:
		stored, err := t.leafSequence(node.Ref)
		if err != nil {
			return storage.NilHandle, nil, err
		}
		if stored != seq {
			return h, nil, nil
		}
		freed, err := t.mem.Remove(node.Ref.Handle)
		if err != nil {
			return storage.NilHandle, nil, err
		}
		if _, err := t.mem.Remove(h); err != nil {
			return storage.NilHandle, nil, err
		}
		res := &storage.RemoveResult{
			Sequence: seq,
			Bytes:    freed,
			Literal:  node.Ref.Literal,
			Address:  node.Ref.Handle,
		}
		return t.flyweight, res, nil
	default:
		i := branchIndex(key[depth])
		newChild, res, err := t.removeAt(node.Children[i], key, depth+1, seq)
		if err != nil || res == nil {
			return h, res, err
		}
		node.Children[i] = newChild
		// 只剩一个叶子、其余全是享元时，内部节点坍缩为该叶子
		leaf := storage.NilHandle
		leaves, internals := 0, 0
		for _, c := range node.Children {
			if c == t.flyweight {
				continue
			}
			cn, err := t.load(c)
			if err != nil {
				return storage.NilHandle, nil, err
			}
			if cn.Tag == TagLeaf {
				leaves++
				leaf = c
			} else {
				internals++
			}
		}
		if leaves == 1 && internals == 0 {
			if _, err := t.mem.Remove(h); err != nil {
				return storage.NilHandle, nil, err
			}
			return leaf, res, nil
		}
		nh, err := t.rewriteInternal(h, node.Children)
		if err != nil {
			return storage.NilHandle, nil, err
		}
		return nh, res, nil
	}
}

// ==================== 查询 ====================

// Fetch 判断精确序列是否存在，不改动任何节点
func (t *Trie) Fetch(sequence string) (bool, error) {
	seq, err := Normalize(sequence)
	if err != nil {
		return false, err
	}
	return t.fetch(seq)
}

func (t *Trie) fetch(seq string) (bool, error) {
	key := seq + string(Terminator)
	h := t.root
	depth := 0
	for {
		node, err := t.load(h)
		if err != nil {
			return false, err
		}
		switch node.Tag {
		case TagEmpty:
			return false, nil
		case TagLeaf:
			stored, err := t.leafSequence(node.Ref)
			if err != nil {
				return false, err
			}
			return stored == seq, nil
		default:
			if depth >= len(key) {
				return false, nil
			}
			h = node.Children[branchIndex(key[depth])]
			depth++
		}
	}
}

// Search 搜索序列
// 以 $ 结尾为精确匹配；否则为前缀搜索，查询在内部节点耗尽时收集整棵子树
// 返回：
//   - int: 访问的节点数，每次节点解码计一次
//   - []string: 所有匹配的序列
//   - error: 遍历错误
func (t *Trie) Search(sequence string) (int, []string, error) {
	query := strings.TrimSuffix(sequence, string(Terminator))
	visited := 0
	var matches []string
	h := t.root
	depth := 0
	for {
		node, err := t.load(h)
		if err != nil {
			return visited, nil, err
		}
		visited++
		switch node.Tag {
		case TagEmpty:
			return visited, matches, nil
		case TagLeaf:
			stored, err := t.leafSequence(node.Ref)
			if err != nil {
				return visited, nil, err
			}
			// 前缀模式下查询未耗尽就到达叶子时，也只接受完全相等；
			// 前缀展开只发生在内部节点耗尽后的 collect 路径
			if stored == query {
				matches = append(matches, stored)
			}
			return visited, matches, nil
		default:
			if depth >= len(sequence) {
				if err := t.collect(node, &visited, &matches); err != nil {
					return visited, nil, err
				}
				return visited, matches, nil
			}
			i := branchIndex(sequence[depth])
			if i < 0 {
				return visited, matches, nil
			}
			h = node.Children[i]
			depth++
		}
	}
}

// collect 深度优先收集子树内的全部序列，按 A、C、G、T、$ 的固定顺序
func (t *Trie) collect(n *Node, visited *int, matches *[]string) error {
	for _, c := range n.Children {
		child, err := t.load(c)
		if err != nil {
			return err
		}
		*visited++
		switch child.Tag {
		case TagLeaf:
			stored, err := t.leafSequence(child.Ref)
			if err != nil {
				return err
			}
			*matches = append(*matches, stored)
		case TagInternal:
			if err := t.collect(child, visited, matches); err != nil {
				return err
			}
		}
	}
	return nil
}

// Walk 按固定子序遍历全部叶子，用于重建驻留索引
func (t *Trie) Walk(fn func(sequence string, ref storage.LeafRef) error) error {
	return t.walk(t.root, fn)
}

func (t *Trie) walk(h storage.Handle, fn func(string, storage.LeafRef) error) error {
	node, err := t.load(h)
	if err != nil {
		return err
	}
	switch node.Tag {
	case TagLeaf:
		stored, err := t.leafSequence(node.Ref)
		if err != nil {
			return err
		}
		return fn(stored, node.Ref)
	case TagInternal:
		for _, c := range node.Children {
			if err := t.walk(c, fn); err != nil {
				return err
			}
		}
	}
	return nil
}
