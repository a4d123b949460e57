package manifest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/snappy"
	"github.com/hashicorp/go-msgpack/v2/codec"
)

// FileName 是清单在数据目录下的文件名
const FileName = "MANIFEST"

// Manifest 记录引擎在干净关闭时刻的全部驻留状态
// 重新打开时据此恢复池大小、树根、空闲链表和游标，
// 驻留索引和布隆过滤器则通过遍历树重建
type Manifest struct {
	// 池的逻辑大小（字节）
	PoolSize int `msgpack:"pool_size"`

	// 后备文件的块大小，打开时校验配置一致
	BlockSize int `msgpack:"block_size"`

	// 树根与空节点享元的句柄
	Root      int32 `msgpack:"root"`
	Flyweight int32 `msgpack:"flyweight"`

	// 驻留序列条数
	TrieSize int `msgpack:"trie_size"`

	// 空闲区间，按地址升序
	Extents []ExtentRecord `msgpack:"extents"`

	// 环形游标所在区间的下标，链表为空时为 -1
	Cursor int `msgpack:"cursor"`
}

// ExtentRecord 是一段空闲区间的持久化形式
type ExtentRecord struct {
	Addr int `msgpack:"addr"`
	Size int `msgpack:"size"`
}

// ==================== 编码/解码 ====================

// encode 将清单编码为 msgpack 字节
func encode(m *Manifest) ([]byte, error) {
	var buf bytes.Buffer
	enc := codec.NewEncoder(&buf, &codec.MsgpackHandle{})
	err := enc.Encode(m)
	return buf.Bytes(), err
}

// decode 从 msgpack 字节解码清单
func decode(data []byte, m *Manifest) error {
	dec := codec.NewDecoderBytes(data, &codec.MsgpackHandle{})
	return dec.Decode(m)
}

// ==================== 读写 ====================

// Save 将清单压缩后原子写入数据目录
// 先写临时文件再改名，避免留下半截清单
// 参数：
//   - dir: 数据目录
//   - m: 清单
//
// 返回：
//   - error: 编码或写入错误
func Save(dir string, m *Manifest) error {
	raw, err := encode(m)
	if err != nil {
		return fmt.Errorf("编码清单失败: %w", err)
	}
	compressed := snappy.Encode(nil, raw)
	tmp := filepath.Join(dir, FileName+".tmp")
	if err := os.WriteFile(tmp, compressed, 0644); err != nil {
		return fmt.Errorf("写入清单失败: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, FileName)); err != nil {
		return fmt.Errorf("提交清单失败: %w", err)
	}
	return nil
}

// Load 从数据目录读取并解压清单
// 参数：
//   - dir: 数据目录
//
// 返回：
//   - *Manifest: 清单，文件不存在时错误满足 os.IsNotExist
//   - error: 读取或解码错误
func Load(dir string) (*Manifest, error) {
	compressed, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return nil, err
	}
	raw, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("解压清单失败: %w", err)
	}
	m := &Manifest{}
	if err := decode(raw, m); err != nil {
		return nil, fmt.Errorf("解码清单失败: %w", err)
	}
	return m, nil
}

// Remove 删除数据目录下的清单
// 打开引擎后立即调用，之后清单只代表上一次干净关闭的状态
func Remove(dir string) error {
	err := os.Remove(filepath.Join(dir, FileName))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
