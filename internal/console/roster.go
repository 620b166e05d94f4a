package console

import (
	"sort"
	"time"

	"github.com/DH0263/dittonweb-sub000/internal/period"
)

// RosterOptions 状态判定参数
type RosterOptions struct {
	HighSchoolTypes  []string
	SchoolCutoffHour int
	Location         *time.Location
}

// DefaultRosterOptions 默认参数：高中生四类，18 点截止
func DefaultRosterOptions() RosterOptions {
	return RosterOptions{
		HighSchoolTypes:  []string{"예비고1", "고1", "고2", "고3"},
		SchoolCutoffHour: 18,
		Location:         time.Local,
	}
}

// RosterIndex 名册与当日记录的只读索引
type RosterIndex struct {
	students   map[int64]Student
	order      []int64
	bySeat     map[string]int64
	attendance map[int64]map[int]Status
	phone      map[int64]map[int]bool
	school     map[int64]bool
	highSchool map[string]bool
	cutoffHour int
	loc        *time.Location
	fetchedAt  time.Time
}

// NewRosterIndex 由快照构建索引
func NewRosterIndex(snap Snapshot, opts RosterOptions) *RosterIndex {
	idx := &RosterIndex{
		students:   make(map[int64]Student, len(snap.Students)),
		bySeat:     make(map[string]int64, len(snap.Students)),
		attendance: make(map[int64]map[int]Status, len(snap.Attendance)),
		phone:      make(map[int64]map[int]bool, len(snap.Phone)),
		school:     make(map[int64]bool, len(snap.School)),
		highSchool: make(map[string]bool, len(opts.HighSchoolTypes)),
		cutoffHour: opts.SchoolCutoffHour,
		loc:        opts.Location,
		fetchedAt:  snap.FetchedAt,
	}
	if idx.loc == nil {
		idx.loc = time.Local
	}
	for _, t := range opts.HighSchoolTypes {
		idx.highSchool[t] = true
	}

	students := make([]Student, len(snap.Students))
	copy(students, snap.Students)
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	for _, st := range students {
		idx.students[st.ID] = st
		idx.order = append(idx.order, st.ID)
		// 座位冲突时保留 ID 较小者
		if st.SeatNumber != "" {
			if _, taken := idx.bySeat[st.SeatNumber]; !taken {
				idx.bySeat[st.SeatNumber] = st.ID
			}
		}
	}

	for id, byPeriod := range snap.Attendance {
		m := make(map[int]Status, len(byPeriod))
		for p, name := range byPeriod {
			if period.Valid(p) {
				m[p] = StatusFromName(name)
			}
		}
		idx.attendance[id] = m
	}
	for id, byPeriod := range snap.Phone {
		m := make(map[int]bool, len(byPeriod))
		for p, v := range byPeriod {
			m[p] = v
		}
		idx.phone[id] = m
	}
	for _, id := range snap.School {
		idx.school[id] = true
	}
	return idx
}

// FetchedAt 快照时间
func (r *RosterIndex) FetchedAt() time.Time { return r.fetchedAt }

// Students 按 ID 排序的学生
func (r *RosterIndex) Students() []Student {
	out := make([]Student, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.students[id])
	}
	return out
}

// Student 按 ID 查找
func (r *RosterIndex) Student(id int64) (Student, bool) {
	st, ok := r.students[id]
	return st, ok
}

// BySeat 按座位编号查找
func (r *RosterIndex) BySeat(seatID string) (Student, bool) {
	id, ok := r.bySeat[seatID]
	if !ok {
		return Student{}, false
	}
	return r.students[id], true
}

// StoredStatus 某教时已存储的出勤
func (r *RosterIndex) StoredStatus(id int64, p int) (Status, bool) {
	s, ok := r.attendance[id][p]
	return s, ok
}

// StoredPhone 某教时已存储的手机上交
func (r *RosterIndex) StoredPhone(id int64, p int) (bool, bool) {
	v, ok := r.phone[id][p]
	return v, ok
}

// ResolvedPhone 已存储值，缺省视为已上交
func (r *RosterIndex) ResolvedPhone(id int64, p int) bool {
	if v, ok := r.StoredPhone(id, p); ok {
		return v
	}
	return true
}

// IsHighSchool 是否属于高中生类型
func (r *RosterIndex) IsHighSchool(id int64) bool {
	st, ok := r.students[id]
	return ok && r.highSchool[st.StudentType]
}

// AtSchool 当日是否有到校标记
func (r *RosterIndex) AtSchool(id int64) bool {
	return r.school[id]
}

// IsSchoolFlagged 高中生、有到校标记且未过截止时刻
func (r *RosterIndex) IsSchoolFlagged(id int64, now time.Time) bool {
	if !r.IsHighSchool(id) || !r.school[id] {
		return false
	}
	return now.In(r.loc).Hour() < r.cutoffHour
}

// CurrentStatus 查看/巡查模式下的综合状态
// 到校 > 当天最晚教时记录 > 名册基线（基线原样使用，不做默认替换）
func (r *RosterIndex) CurrentStatus(id int64, now time.Time) Status {
	if r.IsSchoolFlagged(id, now) {
		return StatusSchool
	}
	for p := period.Last; p >= period.First; p-- {
		if s, ok := r.attendance[id][p]; ok {
			return s
		}
	}
	return r.students[id].Baseline
}

// HasAttitudeWarning 当日是否有态度检查，仅作为角标，不影响状态文字
func (r *RosterIndex) HasAttitudeWarning(id int64) bool {
	return r.students[id].AttitudeWarning
}

// withSchool 返回切换到校标记后的副本
func (r *RosterIndex) withSchool(id int64, on bool) *RosterIndex {
	cp := *r
	cp.school = make(map[int64]bool, len(r.school)+1)
	for k, v := range r.school {
		cp.school[k] = v
	}
	if on {
		cp.school[id] = true
	} else {
		delete(cp.school, id)
	}
	return &cp
}

// withAttitudeWarning 返回标记态度警告后的副本
func (r *RosterIndex) withAttitudeWarning(id int64) *RosterIndex {
	st, ok := r.students[id]
	if !ok || st.AttitudeWarning {
		return r
	}
	cp := *r
	cp.students = make(map[int64]Student, len(r.students))
	for k, v := range r.students {
		cp.students[k] = v
	}
	st.AttitudeWarning = true
	cp.students[id] = st
	return &cp
}
