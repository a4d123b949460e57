package dnastore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/forever-free1/GeneDB/storage"
	"github.com/forever-free1/GeneDB/storage/buffer"
	"github.com/forever-free1/GeneDB/storage/index"
	"github.com/forever-free1/GeneDB/storage/manifest"
	"github.com/forever-free1/GeneDB/storage/memory"
	"github.com/forever-free1/GeneDB/storage/trie"
)

// DataFileName 是后备文件在数据目录下的文件名
const DataFileName = "genedb.dat"

// ErrDatabaseClosed 表示数据库已关闭
var ErrDatabaseClosed = errors.New("database is closed")

// ErrBlockSizeMismatch 表示配置的块大小与清单记录的不一致
var ErrBlockSizeMismatch = errors.New("block size does not match manifest")

// ==================== 数据库定义 ====================

// DB 是 DNA 序列存储引擎的核心结构体
// 磁盘上的字典树是唯一权威状态；布隆过滤器在查重前排除一定不存在的序列，
// ART 驻留索引镜像全部活跃叶子，为 HTTP 层提供免下降的前缀扫描
// 所有公开操作持同一把互斥锁，缓冲池的 LRU 连读操作也会改动
type DB struct {
	dir     string
	mem     *memory.Manager
	trie    *trie.Trie
	index   index.Index
	bloom   *index.BloomFilter
	metrics *storage.Metrics
	options *Options
	mu      sync.Mutex
	closed  bool
}

// Options 定义 DB 的配置选项
type Options struct {
	// NumBuffers 缓冲池的缓冲区数量上限
	NumBuffers int

	// BlockSize 后备文件的块大小（字节），重新打开时必须与清单一致
	BlockSize int

	// InitialPoolSize 新建数据库时内存池的初始大小（字节）
	InitialPoolSize int

	// IndexType 驻留索引类型：ART 或内置 Map
	IndexType IndexType

	// BloomCapacity 布隆过滤器的预期序列数量
	BloomCapacity uint

	// BloomFilterFP 布隆过滤器的期望误判率
	BloomFilterFP float64

	// Registerer 指标注册器，为 nil 时指标只创建不注册
	Registerer prometheus.Registerer
}

// IndexType 定义驻留索引类型
type IndexType int

const (
	// IndexTypeART 使用自适应基数树作为驻留索引（默认）
	IndexTypeART IndexType = iota
	// IndexTypeMap 使用内置 Map 作为驻留索引
	IndexTypeMap
)

// Option 定义 Options 的配置函数
type Option func(*Options)

// WithNumBuffers 设置缓冲区数量
func WithNumBuffers(n int) Option {
	return func(o *Options) {
		o.NumBuffers = n
	}
}

// WithBlockSize 设置块大小
func WithBlockSize(size int) Option {
	return func(o *Options) {
		o.BlockSize = size
	}
}

// WithInitialPoolSize 设置内存池初始大小
func WithInitialPoolSize(size int) Option {
	return func(o *Options) {
		o.InitialPoolSize = size
	}
}

// WithIndexType 设置驻留索引类型
func WithIndexType(indexType IndexType) Option {
	return func(o *Options) {
		o.IndexType = indexType
	}
}

// WithBloomFilter 设置布隆过滤器的容量与期望误判率
func WithBloomFilter(capacity uint, fp float64) Option {
	return func(o *Options) {
		o.BloomCapacity = capacity
		o.BloomFilterFP = fp
	}
}

// WithRegisterer 设置 Prometheus 指标注册器
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *Options) {
		o.Registerer = reg
	}
}

// ==================== 打开与引导 ====================

// Open 打开或创建一个数据库
// 数据目录下存在清单时恢复上次干净关闭的状态并重建驻留索引，
// 否则以空树起步
// 参数：
//   - dir: 数据目录
//   - opts: 配置选项
//
// 返回：
//   - *DB: 数据库指针
//   - error: 打开错误
func Open(dir string, opts ...Option) (*DB, error) {
	options := &Options{
		NumBuffers:      4,
		BlockSize:       64,
		InitialPoolSize: 256,
		IndexType:       IndexTypeART,
		BloomCapacity:   1000000,
		BloomFilterFP:   0.01,
	}
	for _, opt := range opts {
		opt(options)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("创建数据目录失败: %w", err)
	}
	file, err := os.OpenFile(filepath.Join(dir, DataFileName), os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("打开后备文件失败: %w", err)
	}

	metrics := storage.NewMetrics(options.Registerer)
	bp, err := buffer.NewPool(file, options.NumBuffers, options.BlockSize, buffer.WithMetrics(metrics))
	if err != nil {
		_ = file.Close()
		return nil, err
	}

	var idx index.Index
	switch options.IndexType {
	case IndexTypeMap:
		idx = index.NewMapIndex()
	default:
		idx = index.NewARTIndex()
	}

	db := &DB{
		dir:     dir,
		index:   idx,
		bloom:   index.NewBloomFilter(options.BloomCapacity, options.BloomFilterFP),
		metrics: metrics,
		options: options,
	}

	if err := db.bootstrap(bp); err != nil {
		_ = bp.Close()
		return nil, fmt.Errorf("启动引导失败: %w", err)
	}
	return db, nil
}

// bootstrap 启动引导逻辑
// 存在清单时恢复池、空闲链表和树根，并遍历树重建布隆过滤器和驻留索引；
// 不存在时新建空树。引导完成后删除清单，它只代表上一次干净关闭的状态
func (db *DB) bootstrap(bp *buffer.Pool) error {
	m, err := manifest.Load(db.dir)
	switch {
	case err == nil:
		if m.BlockSize != db.options.BlockSize {
			return fmt.Errorf("%w: 清单 %d 配置 %d", ErrBlockSizeMismatch, m.BlockSize, db.options.BlockSize)
		}
		pool := memory.NewPool(bp, m.PoolSize, db.metrics)
		extents := make([]memory.Extent, len(m.Extents))
		for i, e := range m.Extents {
			extents[i] = memory.Extent{Addr: e.Addr, Size: e.Size}
		}
		db.mem = memory.RestoreManager(pool, extents, m.Cursor, db.metrics)
		db.trie = trie.Restore(db.mem, storage.Handle(m.Root), storage.Handle(m.Flyweight), m.TrieSize)
		if err := db.rebuildResident(); err != nil {
			return err
		}
	case os.IsNotExist(err):
		pool := memory.NewPool(bp, db.options.InitialPoolSize, db.metrics)
		db.mem = memory.NewManager(pool, db.metrics)
		tr, err := trie.New(db.mem)
		if err != nil {
			return err
		}
		db.trie = tr
	default:
		return err
	}
	return manifest.Remove(db.dir)
}

// rebuildResident 遍历磁盘树，重建布隆过滤器和驻留索引
func (db *DB) rebuildResident() error {
	db.bloom.Reset()
	return db.trie.Walk(func(seq string, ref storage.LeafRef) error {
		db.bloom.Add(seq)
		r := ref
		db.index.Put(seq, &r)
		return nil
	})
}

// ==================== 引擎操作 ====================

// Insert 插入一条 DNA 序列
// 布隆过滤器判定一定不存在时跳过查重下降，直接插入；
// 可能存在时以驻留索引为准判重
func (db *DB) Insert(sequence string) (*storage.InsertResult, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return nil, ErrDatabaseClosed
	}
	seq, err := trie.Normalize(sequence)
	if err != nil {
		return nil, err
	}
	if db.bloom.Test(seq) && db.index.Get(seq) != nil {
		return nil, storage.ErrDuplicateSequence
	}
	res, err := db.trie.InsertUnique(seq)
	if err != nil {
		return nil, err
	}
	db.bloom.Add(seq)
	db.index.Put(seq, &storage.LeafRef{Handle: res.Address, Literal: res.Literal})
	return res, nil
}

// Remove 删除一条精确匹配的 DNA 序列
func (db *DB) Remove(sequence string) (*storage.RemoveResult, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return nil, ErrDatabaseClosed
	}
	res, err := db.trie.Remove(sequence)
	if err != nil {
		return nil, err
	}
	db.index.Delete(res.Sequence)
	return res, nil
}

// Search 在磁盘树上搜索序列并统计访问的节点数
// 以 $ 结尾为精确匹配，否则为前缀搜索
func (db *DB) Search(sequence string) (int, []string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return 0, nil, ErrDatabaseClosed
	}
	return db.trie.Search(sequence)
}

// SearchResident 通过驻留索引做前缀扫描，不触达磁盘树
// HTTP 层的快速路径；结果与磁盘树一致但没有节点访问计数
func (db *DB) SearchResident(prefix string) ([]string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return nil, ErrDatabaseClosed
	}
	return db.index.PrefixScan(prefix), nil
}

// Fetch 判断精确序列是否存在
func (db *DB) Fetch(sequence string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return false, ErrDatabaseClosed
	}
	seq, err := trie.Normalize(sequence)
	if err != nil {
		return false, err
	}
	if !db.bloom.Test(seq) {
		return false, nil
	}
	return db.trie.Fetch(seq)
}

// Print 按请求的模式渲染树结构
func (db *DB) Print(mode storage.PrintMode) (string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return "", ErrDatabaseClosed
	}
	return db.trie.Print(mode)
}

// Flush 将所有脏缓冲区写回磁盘
func (db *DB) Flush() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return ErrDatabaseClosed
	}
	return db.mem.Flush()
}

// Close 刷盘、写清单并关闭后备文件
// 返回：
//   - error: 刷盘、清单或关闭错误
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return nil
	}
	extents, cursor := db.mem.Snapshot()
	records := make([]manifest.ExtentRecord, len(extents))
	for i, e := range extents {
		records[i] = manifest.ExtentRecord{Addr: e.Addr, Size: e.Size}
	}
	m := &manifest.Manifest{
		PoolSize:  db.mem.Size(),
		BlockSize: db.options.BlockSize,
		Root:      int32(db.trie.Root()),
		Flyweight: int32(db.trie.Flyweight()),
		TrieSize:  db.trie.Size(),
		Extents:   records,
		Cursor:    cursor,
	}
	if err := db.mem.Close(); err != nil {
		return err
	}
	if err := manifest.Save(db.dir, m); err != nil {
		return err
	}
	db.closed = true
	db.index.Close()
	return nil
}

// ==================== 状态查询 ====================

// FreeBlocks 按地址升序渲染空闲区间，游标区间以 * 标记
func (db *DB) FreeBlocks() string {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.mem.FreeBlocks()
}

// BufferIDs 按最近使用在前的顺序返回驻留块号
func (db *DB) BufferIDs() []int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.mem.BufferIDs()
}

// Counters 返回缓冲池的命中、未命中、磁盘读、磁盘写计数
func (db *DB) Counters() (hits, misses, reads, writes uint64) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.mem.Counters()
}

// Size 返回驻留序列条数
func (db *DB) Size() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.trie.Size()
}

// 确保 DB 实现了 Engine 接口
var _ storage.Engine = (*DB)(nil)
