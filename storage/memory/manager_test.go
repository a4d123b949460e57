package memory

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/forever-free1/GeneDB/storage/buffer"
)

func newTestManager(t *testing.T, poolSize int) *Manager {
	t.Helper()
	dir, err := os.MkdirTemp("", "genedb-memory-test")
	if err != nil {
		t.Fatalf("创建临时目录失败: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	file, err := os.OpenFile(filepath.Join(dir, "pool.dat"), os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		t.Fatalf("打开后备文件失败: %v", err)
	}
	bp, err := buffer.NewPool(file, 4, 64)
	if err != nil {
		t.Fatalf("创建缓冲池失败: %v", err)
	}
	t.Cleanup(func() { _ = bp.Close() })
	return NewManager(NewPool(bp, poolSize, nil), nil)
}

func TestInsertGetRoundTrip(t *testing.T) {
	m := newTestManager(t, 100)

	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	h, err := m.Insert(payload)
	if err != nil {
		t.Fatalf("插入失败: %v", err)
	}
	if h.Addr() != 0 {
		t.Fatalf("首条记录应位于 0: %d", h.Addr())
	}
	got, err := m.Get(h)
	if err != nil {
		t.Fatalf("读取失败: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("负载不一致: %x", got)
	}
	// 句柄地址加上前缀即下一条记录的起点
	h2, err := m.Insert([]byte{1})
	if err != nil {
		t.Fatalf("第二次插入失败: %v", err)
	}
	if h2.Addr() != LengthPrefixSize+len(payload) {
		t.Fatalf("第二条记录地址不符: %d", h2.Addr())
	}
}

func TestRemoveFreesSpace(t *testing.T) {
	m := newTestManager(t, 100)

	h, err := m.Insert([]byte("ACGT"))
	if err != nil {
		t.Fatalf("插入失败: %v", err)
	}
	freed, err := m.Remove(h)
	if err != nil {
		t.Fatalf("删除失败: %v", err)
	}
	if freed != 6 {
		t.Fatalf("释放字节数应含前缀: %d", freed)
	}
	if m.FreeBytes() != 100 {
		t.Fatalf("删除后空闲字节应复原: %d", m.FreeBytes())
	}
	if m.FreeBlocks() != "*0:100" {
		t.Fatalf("空闲区间应完全合并: %q", m.FreeBlocks())
	}
	// 已擦除的句柄读到空负载，不可再次删除
	got, err := m.Get(h)
	if err != nil {
		t.Fatalf("读取已释放句柄失败: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("已释放句柄应读到空负载: %q", got)
	}
	if _, err := m.Remove(h); err != ErrBadHandle {
		t.Fatalf("重复删除应失败: %v", err)
	}
}

func TestInsertGrowsPool(t *testing.T) {
	m := newTestManager(t, 10)

	// 需要 2+20 字节，池只有 10 字节，应增长一次后成功
	h, err := m.Insert(bytes.Repeat([]byte{0x42}, 20))
	if err != nil {
		t.Fatalf("插入失败: %v", err)
	}
	if h.Addr() != 0 {
		t.Fatalf("增长后应从头分配: %d", h.Addr())
	}
	if m.Size() != 10+GrowthStep {
		t.Fatalf("池应增长一个步长: %d", m.Size())
	}
	if err := m.Verify(); err != nil {
		t.Fatalf("增长后校验失败: %v", err)
	}
}

func TestInsertGrowsRepeatedly(t *testing.T) {
	m := newTestManager(t, 0)

	h, err := m.Insert(bytes.Repeat([]byte{0x1}, 250))
	if err != nil {
		t.Fatalf("插入失败: %v", err)
	}
	if h.Addr() != 0 {
		t.Fatalf("多次增长后应从头分配: %d", h.Addr())
	}
	// 252 字节需要三个步长
	if m.Size() != 3*GrowthStep {
		t.Fatalf("池大小不符: %d", m.Size())
	}
	if m.FreeBytes() != 3*GrowthStep-252 {
		t.Fatalf("空闲字节不符: %d", m.FreeBytes())
	}
}

func TestRemoveKeepsPayloadBytes(t *testing.T) {
	m := newTestManager(t, 100)

	h, err := m.Insert([]byte("GATTACA"))
	if err != nil {
		t.Fatalf("插入失败: %v", err)
	}
	if _, err := m.Remove(h); err != nil {
		t.Fatalf("删除失败: %v", err)
	}
	// 擦除只清零长度前缀，负载字节原样留存
	length, err := m.pool.RecordLength(h.Addr())
	if err != nil {
		t.Fatalf("读取前缀失败: %v", err)
	}
	if length != 0 {
		t.Fatalf("前缀应清零: %d", length)
	}
	raw, err := m.pool.buf.Read(h.Addr()+LengthPrefixSize, 7)
	if err != nil {
		t.Fatalf("读取负载区失败: %v", err)
	}
	if !bytes.Equal(raw, []byte("GATTACA")) {
		t.Fatalf("负载字节不应被清除: %q", raw)
	}
}

func TestInsertRejectsBadPayload(t *testing.T) {
	m := newTestManager(t, 10)

	if _, err := m.Insert(nil); err != ErrEmptyRecord {
		t.Fatalf("空负载应拒绝: %v", err)
	}
	if _, err := m.Insert(make([]byte, MaxRecordSize+1)); err != ErrRecordTooLarge {
		t.Fatalf("超长负载应拒绝: %v", err)
	}
}

func TestFreeBlocksRendering(t *testing.T) {
	m := newTestManager(t, 50)

	h1, err := m.Insert([]byte("AAAA"))
	if err != nil {
		t.Fatalf("插入失败: %v", err)
	}
	if _, err := m.Insert([]byte("CCCC")); err != nil {
		t.Fatalf("插入失败: %v", err)
	}
	if _, err := m.Remove(h1); err != nil {
		t.Fatalf("删除失败: %v", err)
	}
	// 头部空洞与尾部剩余空间各成一段，游标留在尾段
	if got := m.FreeBlocks(); got != "0:6, *12:38" {
		t.Fatalf("空闲区间渲染不符: %q", got)
	}
}

func TestSnapshotRestoreManager(t *testing.T) {
	m := newTestManager(t, 50)

	h1, err := m.Insert([]byte("AAAA"))
	if err != nil {
		t.Fatalf("插入失败: %v", err)
	}
	h2, err := m.Insert([]byte("CCCC"))
	if err != nil {
		t.Fatalf("插入失败: %v", err)
	}
	if _, err := m.Remove(h1); err != nil {
		t.Fatalf("删除失败: %v", err)
	}

	extents, cursor := m.Snapshot()
	r := RestoreManager(m.pool, extents, cursor, nil)
	if r.FreeBlocks() != m.FreeBlocks() {
		t.Fatalf("重建后渲染不符: %q vs %q", r.FreeBlocks(), m.FreeBlocks())
	}
	got, err := r.Get(h2)
	if err != nil {
		t.Fatalf("重建后读取失败: %v", err)
	}
	if !bytes.Equal(got, []byte("CCCC")) {
		t.Fatalf("重建后负载不符: %q", got)
	}
}
