package index

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// BloomFilter 是布隆过滤器的并发安全包装类
// 用于在插入查重和精确搜索之前快速排除一定不存在的序列，
// 免去对磁盘树的下降；删除不从过滤器移除，误判只会多走一次查询
type BloomFilter struct {
	filter *bloom.BloomFilter
	mu     sync.RWMutex
}

// NewBloomFilter 创建一个新的布隆过滤器
// 参数：
//   - n: 预期存储的序列数量
//   - fp: 期望的误判率
//
// 返回：
//   - *BloomFilter: 布隆过滤器指针
func NewBloomFilter(n uint, fp float64) *BloomFilter {
	// 使用 NewWithEstimates 自动计算最优的 m 和 k
	return &BloomFilter{
		filter: bloom.NewWithEstimates(n, fp),
	}
}

// Add 添加一条序列到布隆过滤器
// 参数：
//   - sequence: 要添加的序列
func (bf *BloomFilter) Add(sequence string) {
	bf.mu.Lock()
	defer bf.mu.Unlock()
	bf.filter.AddString(sequence)
}

// Test 测试一条序列是否可能存在
// 参数：
//   - sequence: 要测试的序列
//
// 返回：
//   - bool: true 表示可能存在，false 表示一定不存在
func (bf *BloomFilter) Test(sequence string) bool {
	bf.mu.RLock()
	defer bf.mu.RUnlock()
	return bf.filter.TestString(sequence)
}

// Reset 重置布隆过滤器，保持原有的位数和哈希函数数量
// 重建驻留索引前调用
func (bf *BloomFilter) Reset() {
	bf.mu.Lock()
	defer bf.mu.Unlock()
	m := bf.filter.Cap()
	k := bf.filter.K()
	bf.filter = bloom.New(m, k)
}
