package stats

import (
	"sort"
	"sync"
	"time"
)

// Summary 单个指令类型（或阶段）的执行统计
type Summary struct {
	Succeeded uint64        `json:"succeeded"`
	Failed    uint64        `json:"failed"`
	P50       time.Duration `json:"p50"`
	P95       time.Duration `json:"p95"`
	P99       time.Duration `json:"p99"`
	Max       time.Duration `json:"max"`
}

// Total 成功与失败之和
func (s Summary) Total() uint64 {
	return s.Succeeded + s.Failed
}

type window struct {
	ring      []int64 // 纳秒
	next      int
	full      bool
	succeeded uint64
	failed    uint64
	maxNs     int64
}

func (w *window) push(ns int64) {
	w.ring[w.next] = ns
	w.next = (w.next + 1) % len(w.ring)
	if w.next == 0 {
		w.full = true
	}
	if ns > w.maxNs {
		w.maxNs = ns
	}
}

func (w *window) samples() []int64 {
	n := w.next
	if w.full {
		n = len(w.ring)
	}
	out := make([]int64, n)
	copy(out, w.ring[:n])
	return out
}

func (w *window) reset() {
	w.next = 0
	w.full = false
	w.succeeded = 0
	w.failed = 0
	w.maxNs = 0
}

// Recorder 按名字（指令类型、commit 等）记录执行结果与耗时，固定容量环形窗口
type Recorder struct {
	mu       sync.Mutex
	capacity int
	windows  map[string]*window
}

func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Recorder{
		capacity: capacity,
		windows:  make(map[string]*window),
	}
}

// Observe 记录一次执行；nil Recorder 上调用是空操作
func (r *Recorder) Observe(name string, d time.Duration, ok bool) {
	if r == nil || name == "" {
		return
	}
	ns := d.Nanoseconds()
	if ns < 0 {
		ns = 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	w, exists := r.windows[name]
	if !exists {
		w = &window{ring: make([]int64, r.capacity)}
		r.windows[name] = w
	}
	w.push(ns)
	if ok {
		w.succeeded++
	} else {
		w.failed++
	}
}

// Snapshot 返回各名字的统计；reset=true 时清空（区间监控用）
func (r *Recorder) Snapshot(reset bool) map[string]Summary {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]Summary, len(r.windows))
	for name, w := range r.windows {
		values := w.samples()
		if len(values) > 0 {
			sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
			out[name] = Summary{
				Succeeded: w.succeeded,
				Failed:    w.failed,
				P50:       time.Duration(percentile(values, 0.50)),
				P95:       time.Duration(percentile(values, 0.95)),
				P99:       time.Duration(percentile(values, 0.99)),
				Max:       time.Duration(w.maxNs),
			}
		}
		if reset {
			w.reset()
		}
	}
	return out
}

func percentile(sorted []int64, p float64) int64 {
	switch {
	case len(sorted) == 0:
		return 0
	case p <= 0:
		return sorted[0]
	case p >= 1:
		return sorted[len(sorted)-1]
	}
	return sorted[int(float64(len(sorted)-1)*p)]
}
