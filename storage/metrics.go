package storage

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 汇集引擎的 Prometheus 指标
// 缓冲池负责更新四个计数器，内存管理器负责更新两个仪表
type Metrics struct {
	CacheHits  prometheus.Counter // 缓存命中次数
	CacheMisses prometheus.Counter // 缓存未命中次数
	DiskReads  prometheus.Counter // 磁盘读次数
	DiskWrites prometheus.Counter // 磁盘写次数
	PoolSize   prometheus.Gauge   // 内存池当前大小（字节）
	FreeBytes  prometheus.Gauge   // 空闲区间字节总数
}

// NewMetrics 创建并注册一组引擎指标
// 参数：
//   - reg: 指标注册器，为 nil 时仅创建不注册
//
// 返回：
//   - *Metrics: 指标集合
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "genedb_cache_hits_total",
			Help: "Number of buffer cache hits.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "genedb_cache_misses_total",
			Help: "Number of buffer cache misses.",
		}),
		DiskReads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "genedb_disk_reads_total",
			Help: "Number of block reads from the backing file.",
		}),
		DiskWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "genedb_disk_writes_total",
			Help: "Number of block writes to the backing file.",
		}),
		PoolSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "genedb_pool_size_bytes",
			Help: "Current logical size of the memory pool.",
		}),
		FreeBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "genedb_free_bytes",
			Help: "Total bytes held by the free-block list.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.CacheHits, m.CacheMisses, m.DiskReads, m.DiskWrites, m.PoolSize, m.FreeBytes)
	}
	return m
}
