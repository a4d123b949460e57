package manifest

import (
	"os"
	"reflect"
	"testing"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir, err := os.MkdirTemp("", "genedb-manifest-test")
	if err != nil {
		t.Fatalf("创建临时目录失败: %v", err)
	}
	defer os.RemoveAll(dir)

	m := &Manifest{
		PoolSize:  356,
		BlockSize: 64,
		Root:      42,
		Flyweight: 0,
		TrieSize:  3,
		Extents:   []ExtentRecord{{Addr: 10, Size: 20}, {Addr: 300, Size: 56}},
		Cursor:    1,
	}
	if err := Save(dir, m); err != nil {
		t.Fatalf("保存清单失败: %v", err)
	}
	got, err := Load(dir)
	if err != nil {
		t.Fatalf("读取清单失败: %v", err)
	}
	if !reflect.DeepEqual(got, m) {
		t.Fatalf("清单不一致: %+v vs %+v", got, m)
	}
}

func TestLoadMissingManifest(t *testing.T) {
	dir, err := os.MkdirTemp("", "genedb-manifest-test")
	if err != nil {
		t.Fatalf("创建临时目录失败: %v", err)
	}
	defer os.RemoveAll(dir)

	if _, err := Load(dir); !os.IsNotExist(err) {
		t.Fatalf("缺失清单应满足 os.IsNotExist: %v", err)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	dir, err := os.MkdirTemp("", "genedb-manifest-test")
	if err != nil {
		t.Fatalf("创建临时目录失败: %v", err)
	}
	defer os.RemoveAll(dir)

	if err := Save(dir, &Manifest{Cursor: -1}); err != nil {
		t.Fatalf("保存清单失败: %v", err)
	}
	if err := Remove(dir); err != nil {
		t.Fatalf("删除清单失败: %v", err)
	}
	if err := Remove(dir); err != nil {
		t.Fatalf("重复删除应无错误: %v", err)
	}
}
