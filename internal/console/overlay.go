package console

import "sort"

// Tracker 覆盖层所属的记录器
type Tracker string

const (
	TrackerAttendance Tracker = "attendance"
	TrackerPhone      Tracker = "phone"
)

// Entry 一条待提交的 (学生, 值)
type Entry[V comparable] struct {
	StudentID int64 `json:"student_id"`
	Value     V     `json:"value"`
}

// Overlay 本地未提交的修改，限定在一个 (记录器, 教时) 上下文内
// 值优先于服务端数据；从不持久化
type Overlay[V comparable] struct {
	tracker Tracker
	period  int
	values  map[int64]V
}

// NewOverlay 创建空覆盖层
func NewOverlay[V comparable](tracker Tracker, period int) *Overlay[V] {
	return &Overlay[V]{
		tracker: tracker,
		period:  period,
		values:  make(map[int64]V),
	}
}

// Tracker 所属记录器
func (o *Overlay[V]) Tracker() Tracker { return o.tracker }

// Period 所属教时
func (o *Overlay[V]) Period() int { return o.period }

// Set 写入一条修改
func (o *Overlay[V]) Set(studentID int64, v V) {
	o.values[studentID] = v
}

// Clear 移除一条修改
func (o *Overlay[V]) Clear(studentID int64) {
	delete(o.values, studentID)
}

// Get 读取修改
func (o *Overlay[V]) Get(studentID int64) (V, bool) {
	v, ok := o.values[studentID]
	return v, ok
}

// Has 是否存在修改
func (o *Overlay[V]) Has(studentID int64) bool {
	_, ok := o.values[studentID]
	return ok
}

// Len 修改条数
func (o *Overlay[V]) Len() int { return len(o.values) }

// Reset 丢弃全部修改并切换到新教时
func (o *Overlay[V]) Reset(period int) {
	o.period = period
	o.values = make(map[int64]V)
}

// Entries 按学生 ID 排序的修改列表
func (o *Overlay[V]) Entries() []Entry[V] {
	out := make([]Entry[V], 0, len(o.values))
	for id, v := range o.values {
		out = append(out, Entry[V]{StudentID: id, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out
}

// Baseline 服务端基准值；ok 为 false 表示没有可比较的记录
type Baseline[V comparable] func(studentID int64) (v V, ok bool)

// Diff 与基准比较后真正需要提交的修改，按学生 ID 排序
// 只丢弃与已有基准值相同的条目；无基准的条目（如 1 教时预填）保留
func (o *Overlay[V]) Diff(baseline Baseline[V]) []Entry[V] {
	out := make([]Entry[V], 0, len(o.values))
	for _, e := range o.Entries() {
		if base, ok := baseline(e.StudentID); ok && base == e.Value {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Changed 该学生的修改是否不同于基准
func (o *Overlay[V]) Changed(studentID int64, baseline Baseline[V]) bool {
	v, ok := o.values[studentID]
	if !ok {
		return false
	}
	base, has := baseline(studentID)
	return !has || base != v
}

// Resolve 覆盖层有值时取之，否则回退到 fallback
func (o *Overlay[V]) Resolve(studentID int64, fallback func() V) V {
	if v, ok := o.values[studentID]; ok {
		return v
	}
	return fallback()
}
