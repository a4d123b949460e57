package memory

import "testing"

func TestAcquireSplitsFromFront(t *testing.T) {
	f := NewFreeList(100)

	addr, ok := f.Acquire(10)
	if !ok || addr != 0 {
		t.Fatalf("首次分配应从 0 开始: addr=%d ok=%v", addr, ok)
	}
	if f.FreeBytes() != 90 {
		t.Fatalf("空闲字节应为 90: %d", f.FreeBytes())
	}
	if got := f.String(); got != "*10:90" {
		t.Fatalf("区间渲染不符: %q", got)
	}
}

func TestAcquireExactFitRemovesExtent(t *testing.T) {
	f := NewFreeList(10)

	addr, ok := f.Acquire(10)
	if !ok || addr != 0 {
		t.Fatalf("等大分配失败: addr=%d ok=%v", addr, ok)
	}
	if f.Len() != 0 || f.FreeBytes() != 0 {
		t.Fatalf("等大分配后链表应为空: len=%d free=%d", f.Len(), f.FreeBytes())
	}
	if _, ok := f.Acquire(1); ok {
		t.Fatal("空链表不应分配成功")
	}
}

func TestAcquireTooLargeFails(t *testing.T) {
	f := NewFreeList(10)
	if _, ok := f.Acquire(11); !ok {
		return
	}
	t.Fatal("超出容量的请求应失败")
}

func TestAcquireCircularFirstFit(t *testing.T) {
	f := NewFreeList(100)

	// 制造三个空闲区间：[0,10) [30,40) [60,100)，游标停在首个区间
	if _, ok := f.Acquire(100); !ok {
		t.Fatal("清空失败")
	}
	f.Release(0, 10)
	f.Release(30, 10)
	f.Release(60, 40)

	// 链表清空后的首次归还让游标指向 0:10，从这里出发
	addr, ok := f.Acquire(10)
	if !ok || addr != 0 {
		t.Fatalf("应取第一个区间: addr=%d ok=%v", addr, ok)
	}
	// 等大摘除后游标指向 30:10，下一次小请求从那里开始
	addr, ok = f.Acquire(5)
	if !ok || addr != 30 {
		t.Fatalf("环形查找应从游标出发: addr=%d ok=%v", addr, ok)
	}
	// 35:5 放不下 20 字节，应绕到 60:40
	addr, ok = f.Acquire(20)
	if !ok || addr != 60 {
		t.Fatalf("应跳过过小区间: addr=%d ok=%v", addr, ok)
	}
	// 80:20 已是游标，6 字节从这里切；绕回才能用 35:5
	addr, ok = f.Acquire(6)
	if !ok || addr != 80 {
		t.Fatalf("切分后游标应停留原区间: addr=%d ok=%v", addr, ok)
	}
	addr, ok = f.Acquire(5)
	if !ok || addr != 86 {
		t.Fatalf("游标区间仍足够时优先使用: addr=%d ok=%v", addr, ok)
	}
}

func TestReleaseCoalescesBothSides(t *testing.T) {
	f := NewFreeList(30)
	if _, ok := f.Acquire(30); !ok {
		t.Fatal("清空失败")
	}
	f.Release(0, 10)
	f.Release(20, 10)
	if f.Len() != 2 {
		t.Fatalf("应有两个区间: %d", f.Len())
	}
	// 填补中间空洞，三段合一
	f.Release(10, 10)
	if f.Len() != 1 || f.FreeBytes() != 30 {
		t.Fatalf("合并失败: len=%d free=%d", f.Len(), f.FreeBytes())
	}
	if err := f.Verify(); err != nil {
		t.Fatalf("校验失败: %v", err)
	}
}

func TestReleaseCoalescesPrevOnly(t *testing.T) {
	f := NewFreeList(30)
	if _, ok := f.Acquire(30); !ok {
		t.Fatal("清空失败")
	}
	f.Release(0, 10)
	f.Release(10, 5)
	if f.Len() != 1 {
		t.Fatalf("应与前驱合并: %d 个区间", f.Len())
	}
	extents, _ := f.Snapshot()
	if extents[0].Addr != 0 || extents[0].Size != 15 {
		t.Fatalf("合并结果不符: %v", extents[0])
	}
}

func TestReleaseCoalescesNextOnly(t *testing.T) {
	f := NewFreeList(30)
	if _, ok := f.Acquire(30); !ok {
		t.Fatal("清空失败")
	}
	f.Release(20, 10)
	f.Release(15, 5)
	if f.Len() != 1 {
		t.Fatalf("应与后继合并: %d 个区间", f.Len())
	}
	extents, _ := f.Snapshot()
	if extents[0].Addr != 15 || extents[0].Size != 15 {
		t.Fatalf("合并结果不符: %v", extents[0])
	}
}

func TestReleaseIsolatedKeepsOrder(t *testing.T) {
	f := NewFreeList(50)
	if _, ok := f.Acquire(50); !ok {
		t.Fatal("清空失败")
	}
	f.Release(40, 5)
	f.Release(0, 5)
	f.Release(20, 5)
	extents, _ := f.Snapshot()
	if len(extents) != 3 {
		t.Fatalf("应有三个区间: %v", extents)
	}
	for i, want := range []Extent{{0, 5}, {20, 5}, {40, 5}} {
		if extents[i] != want {
			t.Fatalf("区间 %d 不符: 期望 %v 实际 %v", i, want, extents[i])
		}
	}
	if err := f.Verify(); err != nil {
		t.Fatalf("校验失败: %v", err)
	}
}

func TestCursorSurvivesMerge(t *testing.T) {
	f := NewFreeList(30)
	if _, ok := f.Acquire(30); !ok {
		t.Fatal("清空失败")
	}
	f.Release(0, 10)
	f.Release(20, 10)
	// 让游标指向后一个区间
	if addr, ok := f.Acquire(10); !ok || addr != 0 {
		t.Fatalf("预备分配失败: addr=%d", addr)
	}
	// 三段合一会摘除游标所在元素，游标应转移到存活的前驱
	f.Release(0, 10)
	f.Release(10, 10)
	if f.Len() != 1 {
		t.Fatalf("合并失败: %d", f.Len())
	}
	if addr, ok := f.Acquire(30); !ok || addr != 0 {
		t.Fatalf("合并后分配失败: addr=%d ok=%v", addr, ok)
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	f := NewFreeList(100)
	if _, ok := f.Acquire(100); !ok {
		t.Fatal("清空失败")
	}
	f.Release(10, 20)
	f.Release(50, 30)
	if addr, ok := f.Acquire(5); !ok || addr != 10 {
		t.Fatalf("预备分配失败: addr=%d", addr)
	}

	extents, cursor := f.Snapshot()
	g := RestoreFreeList(extents, cursor)
	if g.FreeBytes() != f.FreeBytes() {
		t.Fatalf("空闲字节不符: %d vs %d", g.FreeBytes(), f.FreeBytes())
	}
	if g.String() != f.String() {
		t.Fatalf("渲染不符: %q vs %q", g.String(), f.String())
	}
	if err := g.Verify(); err != nil {
		t.Fatalf("重建后校验失败: %v", err)
	}
}

func TestStringEmptyAndMarker(t *testing.T) {
	f := NewFreeList(0)
	if got := f.String(); got != "" {
		t.Fatalf("空链表应渲染为空串: %q", got)
	}
	f = NewFreeList(42)
	if got := f.String(); got != "*0:42" {
		t.Fatalf("初始渲染不符: %q", got)
	}
}
