package memory

import (
	"encoding/binary"

	"github.com/forever-free1/GeneDB/storage"
	"github.com/forever-free1/GeneDB/storage/buffer"
)

// LengthPrefixSize 是每条记录长度前缀的字节数
const LengthPrefixSize = 2

// MaxRecordSize 是单条记录负载的字节数上限
const MaxRecordSize = 65535

// ==================== 记录池定义 ====================

// Pool 在缓冲池之上提供带长度前缀的记录读写
// 每条记录为 2 字节大端长度前缀加负载，擦除只清零前缀，负载字节原样留存
// 池的逻辑大小独立于后备文件的物理大小，增长只是扩大逻辑边界
type Pool struct {
	buf     *buffer.Pool
	size    int // 逻辑大小（字节）
	metrics *storage.Metrics
}

// NewPool 在缓冲池之上创建一个逻辑大小为 size 的记录池
func NewPool(buf *buffer.Pool, size int, metrics *storage.Metrics) *Pool {
	p := &Pool{buf: buf, size: size, metrics: metrics}
	if metrics != nil {
		metrics.PoolSize.Set(float64(size))
	}
	return p
}

// Size 返回池的逻辑大小
func (p *Pool) Size() int {
	return p.size
}

// Grow 将池的逻辑大小增加 by 个字节
// 返回：
//   - int: 增长前的大小，即新增区间的起始地址
func (p *Pool) Grow(by int) int {
	old := p.size
	p.size += by
	if p.metrics != nil {
		p.metrics.PoolSize.Set(float64(p.size))
	}
	return old
}

// ==================== 记录读写 ====================

// WriteRecord 在 addr 处写入一条带长度前缀的记录
// 参数：
//   - addr: 记录起始地址
//   - payload: 负载字节
//
// 返回：
//   - error: 负载为空、超长或 I/O 错误
func (p *Pool) WriteRecord(addr int, payload []byte) error {
	if len(payload) == 0 {
		return ErrEmptyRecord
	}
	if len(payload) > MaxRecordSize {
		return ErrRecordTooLarge
	}
	record := make([]byte, LengthPrefixSize+len(payload))
	binary.BigEndian.PutUint16(record, uint16(len(payload)))
	copy(record[LengthPrefixSize:], payload)
	return p.buf.Write(record, addr)
}

// ReadRecord 读取 addr 处记录的负载，已擦除的记录返回空负载
// 返回：
//   - []byte: 负载字节
//   - error: 句柄越界或 I/O 错误
func (p *Pool) ReadRecord(addr int) ([]byte, error) {
	if addr < 0 || addr+LengthPrefixSize > p.size {
		return nil, ErrBadHandle
	}
	prefix, err := p.buf.Read(addr, LengthPrefixSize)
	if err != nil {
		return nil, err
	}
	length := int(binary.BigEndian.Uint16(prefix))
	if length == 0 {
		return []byte{}, nil
	}
	return p.buf.Read(addr+LengthPrefixSize, length)
}

// RecordLength 读取 addr 处记录的负载长度，已擦除的记录长度为 0
func (p *Pool) RecordLength(addr int) (int, error) {
	if addr < 0 || addr+LengthPrefixSize > p.size {
		return 0, ErrBadHandle
	}
	prefix, err := p.buf.Read(addr, LengthPrefixSize)
	if err != nil {
		return 0, err
	}
	return int(binary.BigEndian.Uint16(prefix)), nil
}

// EraseLength 将 addr 处记录的长度前缀清零，负载字节不动
func (p *Pool) EraseLength(addr int) error {
	return p.buf.Write([]byte{0, 0}, addr)
}

// Flush 将底层缓冲池的脏缓冲区写回磁盘
func (p *Pool) Flush() error {
	return p.buf.Flush()
}

// Close 关闭底层缓冲池
func (p *Pool) Close() error {
	return p.buf.Close()
}

// BufferIDs 按最近使用在前的顺序返回驻留块号
func (p *Pool) BufferIDs() []int {
	return p.buf.BlockIDs()
}

// Counters 返回底层缓冲池的命中、未命中、磁盘读、磁盘写计数
func (p *Pool) Counters() (hits, misses, reads, writes uint64) {
	return p.buf.Counters()
}
