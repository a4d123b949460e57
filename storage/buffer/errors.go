package buffer

import "errors"

// ErrPoolClosed 表示缓冲池已关闭
var ErrPoolClosed = errors.New("buffer pool is closed")

// ErrNegativeOffset 表示请求了负偏移量
var ErrNegativeOffset = errors.New("negative offset")

// ErrReadFailed 表示从后备文件读取失败
var ErrReadFailed = errors.New("read from backing file failed")

// ErrWriteFailed 表示写回后备文件失败
var ErrWriteFailed = errors.New("write to backing file failed")
