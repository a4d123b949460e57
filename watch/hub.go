package watch

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	art "github.com/plar/go-adaptive-radix-tree"
)

// ==================== 事件定义 ====================

// EventType 定义事件类型
type EventType string

const (
	// EventInsert 序列插入事件
	EventInsert EventType = "insert"
	// EventRemove 序列删除事件
	EventRemove EventType = "remove"
)

// Event 表示一次序列变更
type Event struct {
	Type     EventType `json:"type"`              // 事件类型：insert 或 remove
	Sequence string    `json:"sequence"`          // 变更的序列
	Literal  int       `json:"literal,omitempty"` // 序列的字面字符数
	Bytes    int       `json:"bytes,omitempty"`   // 涉及的存储字节数（含长度前缀）
}

// ==================== Watcher 定义 ====================

// Watcher 表示一个订阅客户端
// 序列变更事件通过 Ch 推送给客户端
type Watcher struct {
	// 事件推送通道
	Ch chan *Event

	// 订阅的序列前缀，空串表示订阅全部序列
	Prefix string

	closed bool
}

// NewWatcher 创建一个 Watcher
// 参数：
//   - prefix: 订阅的前缀，空串表示订阅全部
//   - bufferSize: 事件通道的缓冲区大小
func NewWatcher(prefix string, bufferSize int) *Watcher {
	return &Watcher{
		Ch:     make(chan *Event, bufferSize),
		Prefix: prefix,
	}
}

// IsMatch 判断事件是否命中该 Watcher 的前缀
func (w *Watcher) IsMatch(event *Event) bool {
	if w.Prefix == "" {
		return true
	}
	return strings.HasPrefix(event.Sequence, w.Prefix)
}

// Close 关闭 Watcher 的事件通道
func (w *Watcher) Close() {
	if !w.closed {
		close(w.Ch)
		w.closed = true
	}
}

// ==================== Hub 定义 ====================

// Hub 序列变更通知中心
// 管理全部 Watcher，并把插入、删除事件分发到订阅了对应前缀的客户端
// 带前缀的订阅记录在 ART 树上，分发时沿事件序列的各级前缀查找命中者
type Hub struct {
	// 订阅全部序列的 watcher
	global []*Watcher

	// 前缀 -> 订阅该前缀的 watcher 列表
	prefixTree art.Tree

	mu sync.RWMutex

	watcherCount int64
}

// NewHub 创建一个通知中心
func NewHub() *Hub {
	return &Hub{
		prefixTree: art.New(),
	}
}

// ==================== Watcher 管理 ====================

// Watch 注册一个订阅
// 参数：
//   - prefix: 订阅的序列前缀，空串表示订阅全部
//   - bufferSize: 事件通道的缓冲区大小
//
// 返回：
//   - *Watcher: 注册好的 Watcher
func (h *Hub) Watch(prefix string, bufferSize int) *Watcher {
	watcher := NewWatcher(prefix, bufferSize)

	h.mu.Lock()
	defer h.mu.Unlock()

	if prefix == "" {
		h.global = append(h.global, watcher)
	} else {
		var list []*Watcher
		if val, found := h.prefixTree.Search(art.Key(prefix)); found {
			list = val.([]*Watcher)
		}
		h.prefixTree.Insert(art.Key(prefix), append(list, watcher))
	}
	h.watcherCount++
	return watcher
}

// Unregister 注销一个订阅并关闭其通道
func (h *Hub) Unregister(watcher *Watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if watcher.Prefix == "" {
		for i, w := range h.global {
			if w == watcher {
				h.global = append(h.global[:i], h.global[i+1:]...)
				h.watcherCount--
				break
			}
		}
	} else if val, found := h.prefixTree.Search(art.Key(watcher.Prefix)); found {
		list := val.([]*Watcher)
		for i, w := range list {
			if w == watcher {
				list = append(list[:i], list[i+1:]...)
				h.watcherCount--
				break
			}
		}
		if len(list) > 0 {
			h.prefixTree.Insert(art.Key(watcher.Prefix), list)
		} else {
			h.prefixTree.Delete(art.Key(watcher.Prefix))
		}
	}
	watcher.Close()
}

// ==================== 事件分发 ====================

// Notify 把事件分发给所有命中的 Watcher
// 通道已满的客户端被跳过，不阻塞调用方
func (h *Hub) Notify(event *Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, watcher := range h.matchingWatchers(event.Sequence) {
		if watcher.closed {
			continue
		}
		select {
		case watcher.Ch <- event:
		default:
		}
	}
}

// NotifyInsert 分发插入事件
func (h *Hub) NotifyInsert(sequence string, literal, bytes int) {
	h.Notify(&Event{
		Type:     EventInsert,
		Sequence: sequence,
		Literal:  literal,
		Bytes:    bytes,
	})
}

// NotifyRemove 分发删除事件
func (h *Hub) NotifyRemove(sequence string, literal, bytes int) {
	h.Notify(&Event{
		Type:     EventRemove,
		Sequence: sequence,
		Literal:  literal,
		Bytes:    bytes,
	})
}

// matchingWatchers 收集订阅命中 sequence 的全部 watcher
// 事件序列的每个非空前缀都在 ART 树上查一次，另加全量订阅者
// 调用方须持有读锁
func (h *Hub) matchingWatchers(sequence string) []*Watcher {
	result := append([]*Watcher(nil), h.global...)
	for i := 1; i <= len(sequence); i++ {
		if val, found := h.prefixTree.Search(art.Key(sequence[:i])); found {
			result = append(result, val.([]*Watcher)...)
		}
	}
	return result
}

// ==================== 工具方法 ====================

// Count 返回当前注册的 watcher 数量
func (h *Hub) Count() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.watcherCount
}

// Close 关闭全部 watcher 并清空订阅
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, w := range h.global {
		w.Close()
	}
	h.prefixTree.ForEach(func(node art.Node) bool {
		if node.Kind() == art.Leaf {
			for _, w := range node.Value().([]*Watcher) {
				w.Close()
			}
		}
		return true
	})
	h.global = nil
	h.prefixTree = art.New()
	h.watcherCount = 0
}

// String 返回 Hub 的字符串描述
func (h *Hub) String() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return fmt.Sprintf("Hub{watchers: %d}", h.watcherCount)
}

// ==================== 事件编解码 ====================

// EventToJSON 把事件序列化为 JSON 字符串
func EventToJSON(event *Event) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ParseEventFromJSON 从 JSON 字符串解析事件
func ParseEventFromJSON(data string) (*Event, error) {
	var event Event
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return nil, err
	}
	return &event, nil
}
