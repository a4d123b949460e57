package memory

import "fmt"

// Extent 表示内存池中一段连续的空闲区间，左闭右开
type Extent struct {
	Addr int // 起始字节地址
	Size int // 区间长度（字节）
}

// End 返回区间尾后地址
func (e *Extent) End() int {
	return e.Addr + e.Size
}

// String 以 地址:长度 形式渲染区间
func (e *Extent) String() string {
	return fmt.Sprintf("%d:%d", e.Addr, e.Size)
}
