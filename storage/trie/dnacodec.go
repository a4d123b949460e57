package trie

import (
	"math/big"
	"strings"

	"github.com/forever-free1/GeneDB/storage"
)

// Terminator 是导航用的终结符，只存在于内存中的键里，从不写入磁盘
const Terminator = '$'

// bases 按分支下标排列四种碱基
var bases = [4]byte{'A', 'C', 'G', 'T'}

// baseCode 返回碱基的 2 位编码，非碱基字符返回 -1
func baseCode(c byte) int {
	switch c {
	case 'A':
		return 0
	case 'C':
		return 1
	case 'G':
		return 2
	case 'T':
		return 3
	}
	return -1
}

// Normalize 过滤掉序列中所有非碱基字符
// 返回：
//   - string: 仅含 A/C/G/T 的序列
//   - error: 过滤后为空时返回 storage.ErrInvalidSequence
func Normalize(sequence string) (string, error) {
	var sb strings.Builder
	sb.Grow(len(sequence))
	for i := 0; i < len(sequence); i++ {
		if baseCode(sequence[i]) >= 0 {
			sb.WriteByte(sequence[i])
		}
	}
	if sb.Len() == 0 {
		return "", storage.ErrInvalidSequence
	}
	return sb.String(), nil
}

// EncodeSequence 将碱基序列打包为大端 2 位编码
// A=00 C=01 G=10 T=11，高位在前，前导零被裁剪
// 全 A 序列的值为零，编码为单个零字节
// 序列本身的长度需另行保存，解码时据此恢复被裁剪的前导 A
func EncodeSequence(sequence string) ([]byte, error) {
	v := new(big.Int)
	for i := 0; i < len(sequence); i++ {
		code := baseCode(sequence[i])
		if code < 0 {
			return nil, storage.ErrInvalidSequence
		}
		v.Lsh(v, 2)
		v.Or(v, big.NewInt(int64(code)))
	}
	if v.Sign() == 0 {
		return []byte{0}, nil
	}
	return v.Bytes(), nil
}

// DecodeSequence 将打包的负载还原为 literal 个碱基的序列
// 负载缺失的高位按零补齐，对应前导 A
func DecodeSequence(payload []byte, literal int) string {
	v := new(big.Int).SetBytes(payload)
	out := make([]byte, literal)
	for i := literal - 1; i >= 0; i-- {
		code := v.Bit(2*(literal-1-i)+1)<<1 | v.Bit(2*(literal-1-i))
		out[i] = bases[code]
	}
	return string(out)
}
