package buffer

import (
	"container/list"
	"fmt"
	"io"
	"os"

	"github.com/forever-free1/GeneDB/storage"
)

// ==================== 缓冲池定义 ====================

// Pool 管理一组固定数量的块缓冲区，按最近使用顺序排列
// 对后备文件的所有读写都经过这里，使用 LRU 策略做替换，
// 脏缓冲区在被淘汰或 Flush 时写回
type Pool struct {
	file      *os.File   // 后备文件句柄
	buffers   *list.List // 缓冲区链表，队首为最近使用
	count     int        // 当前驻留的缓冲区数量
	capacity  int        // 最大缓冲区数量
	blockSize int        // 块大小（字节），构造后固定

	hits       uint64 // 缓存命中计数
	misses     uint64 // 缓存未命中计数
	diskReads  uint64 // 磁盘读计数
	diskWrites uint64 // 磁盘写计数

	metrics *storage.Metrics // 可选的 Prometheus 指标
	closed  bool
}

// Option 定义 Pool 的配置函数
type Option func(*Pool)

// WithMetrics 挂接 Prometheus 指标集合
func WithMetrics(m *storage.Metrics) Option {
	return func(p *Pool) {
		p.metrics = m
	}
}

// NewPool 创建一个缓冲池
// 参数：
//   - file: 以读写模式打开的后备文件
//   - numBuffers: 缓冲区数量上限
//   - blockSize: 块大小（字节）
//
// 返回：
//   - *Pool: 缓冲池指针
//   - error: 参数非法时的错误
func NewPool(file *os.File, numBuffers, blockSize int, opts ...Option) (*Pool, error) {
	if numBuffers < 1 {
		return nil, fmt.Errorf("缓冲区数量必须为正: %d", numBuffers)
	}
	if blockSize < 1 {
		return nil, fmt.Errorf("块大小必须为正: %d", blockSize)
	}
	p := &Pool{
		file:      file,
		buffers:   list.New(),
		capacity:  numBuffers,
		blockSize: blockSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// BlockSize 返回块大小
func (p *Pool) BlockSize() int {
	return p.blockSize
}

// ==================== 读写操作 ====================

// Read 从逻辑偏移量 offset 处读取 length 个字节
// 参数：
//   - offset: 起始字节偏移量
//   - length: 要读取的字节数
//
// 返回：
//   - []byte: 读取的数据
//   - error: I/O 错误
func (p *Pool) Read(offset, length int) ([]byte, error) {
	if p.closed {
		return nil, ErrPoolClosed
	}
	if offset < 0 {
		return nil, ErrNegativeOffset
	}
	out := make([]byte, 0, length)
	for length > 0 {
		blockNum := offset / p.blockSize
		buf, err := p.touch(blockNum)
		if err != nil {
			return nil, err
		}
		start := offset - blockNum*p.blockSize
		n := p.blockSize - start
		if n > length {
			n = length
		}
		out = append(out, buf.Data[start:start+n]...)
		offset += n
		length -= n
	}
	return out, nil
}

// Write 将 data 写入逻辑偏移量 offset 处，对应缓冲区被标记为脏
// 参数：
//   - data: 要写入的数据
//   - offset: 起始字节偏移量
//
// 返回：
//   - error: I/O 错误
func (p *Pool) Write(data []byte, offset int) error {
	if p.closed {
		return ErrPoolClosed
	}
	if offset < 0 {
		return ErrNegativeOffset
	}
	for len(data) > 0 {
		blockNum := offset / p.blockSize
		buf, err := p.touch(blockNum)
		if err != nil {
			return err
		}
		start := offset - blockNum*p.blockSize
		n := copy(buf.Data[start:], data)
		buf.Dirty = true
		data = data[n:]
		offset += n
	}
	return nil
}

// ==================== 替换策略 ====================

// touch 按块号取出缓冲区并将其移动到链表队首
// 命中时直接前移，未命中时读入新块，必要时淘汰队尾缓冲区
func (p *Pool) touch(blockNum int) (*Buffer, error) {
	// 命中：前移并计数
	for e := p.buffers.Front(); e != nil; e = e.Next() {
		buf := e.Value.(*Buffer)
		if buf.BlockNum == blockNum {
			p.buffers.MoveToFront(e)
			p.hits++
			if p.metrics != nil {
				p.metrics.CacheHits.Inc()
			}
			return buf, nil
		}
	}
	// 未命中
	p.misses++
	if p.metrics != nil {
		p.metrics.CacheMisses.Inc()
	}
	var buf *Buffer
	if p.count < p.capacity {
		buf = newBuffer(p.blockSize)
		p.count++
	} else {
		// 淘汰最久未使用的缓冲区，脏则先写回；字节数组原地复用
		tail := p.buffers.Back()
		buf = tail.Value.(*Buffer)
		if buf.Dirty {
			if err := p.writeBlock(buf); err != nil {
				return nil, err
			}
		}
		p.buffers.Remove(tail)
	}
	if err := p.readBlock(blockNum, buf); err != nil {
		return nil, err
	}
	p.buffers.PushFront(buf)
	return buf, nil
}

// readBlock 将块 blockNum 从磁盘读入 buf，文件末尾之后的部分补零
func (p *Pool) readBlock(blockNum int, buf *Buffer) error {
	n, err := p.file.ReadAt(buf.Data, int64(blockNum)*int64(p.blockSize))
	if err != nil && err != io.EOF {
		return fmt.Errorf("%w: 块 %d: %v", ErrReadFailed, blockNum, err)
	}
	for i := n; i < len(buf.Data); i++ {
		buf.Data[i] = 0
	}
	buf.BlockNum = blockNum
	buf.Dirty = false
	p.diskReads++
	if p.metrics != nil {
		p.metrics.DiskReads.Inc()
	}
	return nil
}

// writeBlock 将 buf 写回其块对应的文件偏移量并清除脏标记
func (p *Pool) writeBlock(buf *Buffer) error {
	if _, err := p.file.WriteAt(buf.Data, int64(buf.BlockNum)*int64(p.blockSize)); err != nil {
		return fmt.Errorf("%w: 块 %d: %v", ErrWriteFailed, buf.BlockNum, err)
	}
	buf.Dirty = false
	p.diskWrites++
	if p.metrics != nil {
		p.metrics.DiskWrites.Inc()
	}
	return nil
}

// ==================== 刷盘与关闭 ====================

// Flush 将所有脏缓冲区写回后备文件
// 返回：
//   - error: 写回错误
func (p *Pool) Flush() error {
	if p.closed {
		return ErrPoolClosed
	}
	for e := p.buffers.Front(); e != nil; e = e.Next() {
		buf := e.Value.(*Buffer)
		if buf.Dirty {
			if err := p.writeBlock(buf); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close 刷盘后关闭后备文件
// 返回：
//   - error: 关闭错误
func (p *Pool) Close() error {
	if p.closed {
		return nil
	}
	if err := p.Flush(); err != nil {
		return err
	}
	p.closed = true
	if err := p.file.Close(); err != nil {
		return fmt.Errorf("关闭后备文件失败: %w", err)
	}
	return nil
}

// ==================== 统计信息 ====================

// Counters 返回四个单调递增的计数器：命中、未命中、磁盘读、磁盘写
func (p *Pool) Counters() (hits, misses, reads, writes uint64) {
	return p.hits, p.misses, p.diskReads, p.diskWrites
}

// BlockIDs 按最近使用在前的顺序返回驻留块号
func (p *Pool) BlockIDs() []int {
	ids := make([]int, 0, p.count)
	for e := p.buffers.Front(); e != nil; e = e.Next() {
		ids = append(ids, e.Value.(*Buffer).BlockNum)
	}
	return ids
}
