package memory

import (
	"github.com/forever-free1/GeneDB/storage"
)

// GrowthStep 是池空间不足时每次增长的字节数
const GrowthStep = 100

// ==================== 内存管理器定义 ====================

// Manager 将记录池与空闲链表绑定为一个分配器
// 插入在空间不足时按固定步长增长池并把新增区间归还空闲链表后重试
type Manager struct {
	pool    *Pool
	free    *FreeList
	metrics *storage.Metrics
}

// NewManager 创建一个管理给定记录池的内存管理器
// 空闲链表初始覆盖整个池
func NewManager(pool *Pool, metrics *storage.Metrics) *Manager {
	m := &Manager{
		pool:    pool,
		free:    NewFreeList(pool.Size()),
		metrics: metrics,
	}
	m.updateFreeGauge()
	return m
}

// RestoreManager 从持久化的空闲区间和游标重建管理器
func RestoreManager(pool *Pool, extents []Extent, cursor int, metrics *storage.Metrics) *Manager {
	m := &Manager{
		pool:    pool,
		free:    RestoreFreeList(extents, cursor),
		metrics: metrics,
	}
	m.updateFreeGauge()
	return m
}

// ==================== 分配操作 ====================

// Insert 将负载存入池中并返回其句柄
// 空间不足时按 GrowthStep 增长池、归还新增区间后重试，直到分配成功
// 参数：
//   - payload: 负载字节
//
// 返回：
//   - storage.Handle: 记录起始地址
//   - error: 负载非法或写入错误
func (m *Manager) Insert(payload []byte) (storage.Handle, error) {
	if len(payload) == 0 {
		return storage.NilHandle, ErrEmptyRecord
	}
	if len(payload) > MaxRecordSize {
		return storage.NilHandle, ErrRecordTooLarge
	}
	need := LengthPrefixSize + len(payload)
	addr, ok := m.free.Acquire(need)
	for !ok {
		old := m.pool.Grow(GrowthStep)
		m.free.Release(old, GrowthStep)
		addr, ok = m.free.Acquire(need)
	}
	if err := m.pool.WriteRecord(addr, payload); err != nil {
		m.free.Release(addr, need)
		m.updateFreeGauge()
		return storage.NilHandle, err
	}
	m.updateFreeGauge()
	return storage.Handle(addr), nil
}

// Get 读取句柄指向记录的负载
func (m *Manager) Get(h storage.Handle) ([]byte, error) {
	if h.IsNil() {
		return nil, ErrBadHandle
	}
	return m.pool.ReadRecord(h.Addr())
}

// Remove 释放句柄指向的记录并归还其空间
// 返回：
//   - int: 释放的总字节数（含长度前缀）
//   - error: 句柄非法或 I/O 错误
func (m *Manager) Remove(h storage.Handle) (int, error) {
	if h.IsNil() {
		return 0, ErrBadHandle
	}
	length, err := m.pool.RecordLength(h.Addr())
	if err != nil {
		return 0, err
	}
	if length == 0 {
		return 0, ErrBadHandle
	}
	if err := m.pool.EraseLength(h.Addr()); err != nil {
		return 0, err
	}
	freed := LengthPrefixSize + length
	m.free.Release(h.Addr(), freed)
	m.updateFreeGauge()
	return freed, nil
}

// ==================== 状态查询 ====================

// Size 返回池的逻辑大小
func (m *Manager) Size() int {
	return m.pool.Size()
}

// FreeBytes 返回空闲字节总数
func (m *Manager) FreeBytes() int {
	return m.free.FreeBytes()
}

// FreeBlocks 按地址升序渲染空闲区间，游标区间以 * 标记
func (m *Manager) FreeBlocks() string {
	return m.free.String()
}

// Verify 校验空闲链表约束
func (m *Manager) Verify() error {
	return m.free.Verify()
}

// Snapshot 导出空闲区间与游标下标，供持久化使用
func (m *Manager) Snapshot() ([]Extent, int) {
	return m.free.Snapshot()
}

// Flush 将脏缓冲区写回磁盘
func (m *Manager) Flush() error {
	return m.pool.Flush()
}

// Close 刷盘后关闭后备文件
func (m *Manager) Close() error {
	return m.pool.Close()
}

// BufferIDs 按最近使用在前的顺序返回驻留块号
func (m *Manager) BufferIDs() []int {
	return m.pool.BufferIDs()
}

// Counters 返回缓冲池的命中、未命中、磁盘读、磁盘写计数
func (m *Manager) Counters() (hits, misses, reads, writes uint64) {
	return m.pool.Counters()
}

func (m *Manager) updateFreeGauge() {
	if m.metrics != nil {
		m.metrics.FreeBytes.Set(float64(m.free.FreeBytes()))
	}
}
