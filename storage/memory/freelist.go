package memory

import (
	"container/list"
	"strings"
)

// ==================== 空闲链表定义 ====================

// FreeList 维护内存池中全部空闲区间
// 区间按地址升序排列，任意两个区间不重叠也不相邻（相邻即合并）
// 分配采用环形首次适应：从游标位置出发绕链表一圈，取第一个足够大的区间
type FreeList struct {
	extents *list.List    // *Extent 链表，地址升序
	cursor  *list.Element // 环形查找的出发点，链表为空时为 nil
	free    int           // 空闲字节总数
}

// NewFreeList 创建一个覆盖 [0, size) 的空闲链表
// size 为 0 时链表为空
func NewFreeList(size int) *FreeList {
	f := &FreeList{extents: list.New()}
	if size > 0 {
		e := f.extents.PushBack(&Extent{Addr: 0, Size: size})
		f.cursor = e
		f.free = size
	}
	return f
}

// RestoreFreeList 从一组已持久化的区间和游标下标重建空闲链表
// 区间必须已按地址升序且完全合并；cursor 越界时退化为队首
func RestoreFreeList(extents []Extent, cursor int) *FreeList {
	f := &FreeList{extents: list.New()}
	for i := range extents {
		ext := extents[i]
		e := f.extents.PushBack(&ext)
		f.free += ext.Size
		if i == cursor {
			f.cursor = e
		}
	}
	if f.cursor == nil {
		f.cursor = f.extents.Front()
	}
	return f
}

// FreeBytes 返回空闲字节总数
func (f *FreeList) FreeBytes() int {
	return f.free
}

// Len 返回空闲区间个数
func (f *FreeList) Len() int {
	return f.extents.Len()
}

// ==================== 分配与释放 ====================

// Acquire 按环形首次适应策略分配 size 个字节
// 从游标出发绕链表一圈，命中的区间恰好等大时整个摘除，
// 否则在原区间头部切下所需长度
// 返回：
//   - int: 分配到的起始地址
//   - bool: 是否分配成功
func (f *FreeList) Acquire(size int) (int, bool) {
	if size <= 0 || f.extents.Len() == 0 {
		return 0, false
	}
	e := f.cursor
	if e == nil {
		e = f.extents.Front()
	}
	for i := 0; i < f.extents.Len(); i++ {
		ext := e.Value.(*Extent)
		if ext.Size >= size {
			addr := ext.Addr
			if ext.Size == size {
				f.cursor = f.nextCircular(e)
				f.extents.Remove(e)
				if f.extents.Len() == 0 {
					f.cursor = nil
				}
			} else {
				ext.Addr += size
				ext.Size -= size
				f.cursor = e
			}
			f.free -= size
			return addr, true
		}
		e = f.nextCircular(e)
	}
	return 0, false
}

// Release 归还 [addr, addr+size) 区间并与相邻区间合并
// 按与前驱、后继是否相接分四种情况处理，游标始终指向存活的元素
func (f *FreeList) Release(addr, size int) {
	if size <= 0 {
		return
	}
	f.free += size

	// 定位第一个地址大于 addr 的区间
	var next *list.Element
	for e := f.extents.Front(); e != nil; e = e.Next() {
		if e.Value.(*Extent).Addr > addr {
			next = e
			break
		}
	}
	var prev *list.Element
	if next != nil {
		prev = next.Prev()
	} else {
		prev = f.extents.Back()
	}

	joinsPrev := prev != nil && prev.Value.(*Extent).End() == addr
	joinsNext := next != nil && addr+size == next.Value.(*Extent).Addr

	switch {
	case joinsPrev && joinsNext:
		// 填补空洞：前驱吞并归还区间和后继，后继出链
		p := prev.Value.(*Extent)
		p.Size += size + next.Value.(*Extent).Size
		if f.cursor == next {
			f.cursor = prev
		}
		f.extents.Remove(next)
	case joinsPrev:
		prev.Value.(*Extent).Size += size
	case joinsNext:
		n := next.Value.(*Extent)
		n.Addr = addr
		n.Size += size
	default:
		var e *list.Element
		if next != nil {
			e = f.extents.InsertBefore(&Extent{Addr: addr, Size: size}, next)
		} else {
			e = f.extents.PushBack(&Extent{Addr: addr, Size: size})
		}
		if f.cursor == nil {
			f.cursor = e
		}
	}
}

// nextCircular 返回 e 的环形后继
func (f *FreeList) nextCircular(e *list.Element) *list.Element {
	if n := e.Next(); n != nil {
		return n
	}
	return f.extents.Front()
}

// ==================== 校验与渲染 ====================

// Verify 校验空闲链表约束：地址升序、互不重叠、完全合并、计数一致
func (f *FreeList) Verify() error {
	total := 0
	prevEnd := -1
	for e := f.extents.Front(); e != nil; e = e.Next() {
		ext := e.Value.(*Extent)
		if ext.Size <= 0 {
			return ErrCorruptFreeList
		}
		if prevEnd >= 0 && ext.Addr <= prevEnd {
			// 相邻（==）说明漏了合并，重叠（<）说明重复释放
			return ErrCorruptFreeList
		}
		prevEnd = ext.End()
		total += ext.Size
	}
	if total != f.free {
		return ErrCorruptFreeList
	}
	return nil
}

// Snapshot 导出全部区间及游标下标，供持久化使用
// 链表为空或游标失效时下标为 -1
func (f *FreeList) Snapshot() ([]Extent, int) {
	extents := make([]Extent, 0, f.extents.Len())
	cursor := -1
	i := 0
	for e := f.extents.Front(); e != nil; e = e.Next() {
		if e == f.cursor {
			cursor = i
		}
		extents = append(extents, *e.Value.(*Extent))
		i++
	}
	return extents, cursor
}

// String 按地址升序渲染全部区间，游标所在区间以 * 开头
// 链表为空时返回空串
func (f *FreeList) String() string {
	var sb strings.Builder
	for e := f.extents.Front(); e != nil; e = e.Next() {
		if sb.Len() > 0 {
			sb.WriteString(", ")
		}
		if e == f.cursor {
			sb.WriteByte('*')
		}
		sb.WriteString(e.Value.(*Extent).String())
	}
	return sb.String()
}
