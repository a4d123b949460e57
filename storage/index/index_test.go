package index

import (
	"reflect"
	"testing"

	"github.com/forever-free1/GeneDB/storage"
)

func testIndex(t *testing.T, idx Index) {
	t.Helper()
	seqs := []string{"AACG", "AAAA", "CGCG", "AAC"}
	for i, seq := range seqs {
		idx.Put(seq, &storage.LeafRef{Handle: storage.Handle(i * 10), Literal: len(seq)})
	}
	if idx.Size() != 4 {
		t.Fatalf("索引数量不符: %d", idx.Size())
	}
	ref := idx.Get("AACG")
	if ref == nil || ref.Handle != 0 || ref.Literal != 4 {
		t.Fatalf("查询结果不符: %v", ref)
	}
	if idx.Get("TTTT") != nil {
		t.Fatal("不存在的序列应返回 nil")
	}
	got := idx.PrefixScan("AA")
	if !reflect.DeepEqual(got, []string{"AAAA", "AAC", "AACG"}) {
		t.Fatalf("前缀扫描不符: %v", got)
	}
	if all := idx.PrefixScan(""); len(all) != 4 {
		t.Fatalf("空前缀应匹配全部: %v", all)
	}
	if !idx.Delete("AAC") {
		t.Fatal("删除存在的序列应成功")
	}
	if idx.Delete("AAC") {
		t.Fatal("重复删除应失败")
	}
	if idx.Size() != 3 {
		t.Fatalf("删除后数量不符: %d", idx.Size())
	}
	idx.Close()
}

func TestARTIndex(t *testing.T) {
	testIndex(t, NewARTIndex())
}

func TestMapIndex(t *testing.T) {
	testIndex(t, NewMapIndex())
}

func TestBloomFilter(t *testing.T) {
	bf := NewBloomFilter(1000, 0.01)
	bf.Add("AAAA")
	bf.Add("CGCG")
	if !bf.Test("AAAA") || !bf.Test("CGCG") {
		t.Fatal("已添加的序列应可能存在")
	}
	bf.Reset()
	if bf.Test("AAAA") {
		t.Fatal("重置后不应命中")
	}
}
