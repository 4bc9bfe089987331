package auth

import (
	"hash/crc32"
	"sort"
	"strconv"
	"sync"
)

// HashRing 一致性哈希环，把 token 缓存键分散到多个 redis 节点
type HashRing struct {
	replicas int
	points   []uint32 // 已排序的虚拟节点哈希
	owner    map[uint32]string
	members  map[string]struct{}
	mu       sync.RWMutex
}

// NewHashRing 创建哈希环，nodes 为空时环为空
func NewHashRing(nodes []string, replicas int) *HashRing {
	if replicas <= 0 {
		replicas = 50
	}
	r := &HashRing{
		replicas: replicas,
		owner:    make(map[uint32]string),
		members:  make(map[string]struct{}),
	}
	r.Add(nodes...)
	return r
}

// Add 增加节点，已存在的忽略
func (r *HashRing) Add(nodes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, node := range nodes {
		if _, ok := r.members[node]; ok {
			continue
		}
		r.members[node] = struct{}{}
		for i := 0; i < r.replicas; i++ {
			p := crc32.ChecksumIEEE([]byte(node + "#" + strconv.Itoa(i)))
			r.points = append(r.points, p)
			r.owner[p] = node
		}
	}
	sort.Slice(r.points, func(i, j int) bool { return r.points[i] < r.points[j] })
}

// Node 返回 key 所属节点，环为空时返回空串
func (r *HashRing) Node(key string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.points) == 0 {
		return ""
	}
	h := crc32.ChecksumIEEE([]byte(key))
	idx := sort.Search(len(r.points), func(i int) bool { return r.points[i] >= h })
	if idx == len(r.points) {
		idx = 0
	}
	return r.owner[r.points[idx]]
}
