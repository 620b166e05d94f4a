package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/DH0263/dittonweb-sub000/internal/model"
	"github.com/DH0263/dittonweb-sub000/internal/repository"
	pkgerrors "github.com/DH0263/dittonweb-sub000/pkg/errors"
)

func dayKey(t time.Time) string { return t.Format(model.DateLayout) }

// ── Mock StudentRepository ──

type mockStudentRepo struct {
	students map[int64]*model.Student
}

func newMockStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{students: make(map[int64]*model.Student)}
}

func (m *mockStudentRepo) add(id int64, name, seat, typ string) {
	var sp *string
	if seat != "" {
		sp = &seat
	}
	m.students[id] = &model.Student{ID: id, Name: name, SeatNumber: sp, StudentType: typ, Status: model.StudentEnrolled}
}

func (m *mockStudentRepo) Create(_ context.Context, s *model.Student) error {
	if s.ID == 0 {
		s.ID = int64(len(m.students) + 1)
	}
	m.students[s.ID] = s
	return nil
}

func (m *mockStudentRepo) GetByID(_ context.Context, id int64) (*model.Student, error) {
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) ListEnrolled(_ context.Context) ([]model.Student, error) {
	var out []model.Student
	for _, s := range m.students {
		if s.Status == model.StudentEnrolled {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockStudentRepo) ExistingIDs(_ context.Context, ids []int64) (map[int64]bool, error) {
	out := make(map[int64]bool)
	for _, id := range ids {
		if s, ok := m.students[id]; ok && s.Status == model.StudentEnrolled {
			out[id] = true
		}
	}
	return out, nil
}

// ── Mock StaffUserRepository ──

type mockStaffUserRepo struct {
	users map[string]*model.StaffUser // key: login_id
}

func newMockStaffUserRepo() *mockStaffUserRepo {
	return &mockStaffUserRepo{users: make(map[string]*model.StaffUser)}
}

func (m *mockStaffUserRepo) Create(_ context.Context, u *model.StaffUser) error {
	if u.ID == 0 {
		u.ID = int64(len(m.users) + 1)
	}
	m.users[u.LoginID] = u
	return nil
}

func (m *mockStaffUserRepo) GetByID(_ context.Context, id int64) (*model.StaffUser, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStaffUserRepo) GetByLoginID(_ context.Context, loginID string) (*model.StaffUser, error) {
	if u, ok := m.users[loginID]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock PatrolRepository ──

type mockPatrolRepo struct {
	mu        sync.Mutex
	patrols   map[int64]*model.Patrol
	nextID    int64
	createErr error
}

func newMockPatrolRepo() *mockPatrolRepo {
	return &mockPatrolRepo{patrols: make(map[int64]*model.Patrol)}
}

func (m *mockPatrolRepo) Create(_ context.Context, p *model.Patrol) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	// 模拟部分唯一索引
	for _, existing := range m.patrols {
		if existing.Active() && dayKey(existing.PatrolDate) == dayKey(p.PatrolDate) {
			return gorm.ErrDuplicatedKey
		}
	}
	m.nextID++
	p.ID = m.nextID
	cp := *p
	m.patrols[p.ID] = &cp
	return nil
}

func (m *mockPatrolRepo) GetByID(_ context.Context, id int64) (*model.Patrol, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.patrols[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPatrolRepo) GetActive(_ context.Context, day time.Time) (*model.Patrol, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.patrols {
		if p.Active() && dayKey(p.PatrolDate) == dayKey(day) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPatrolRepo) Finish(_ context.Context, id int64, end time.Time, inspector, notes string, forced bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patrols[id]
	if !ok || !p.Active() {
		return pkgerrors.ErrOptimisticLock
	}
	p.EndTime = &end
	p.Notes = notes
	p.ForceEnded = forced
	if inspector != "" {
		p.InspectorName = inspector
	}
	return nil
}

func (m *mockPatrolRepo) List(_ context.Context, day *time.Time, limit int) ([]model.Patrol, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Patrol
	for _, p := range m.patrols {
		if day != nil && dayKey(p.PatrolDate) != dayKey(*day) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ── Mock AttitudeCheckRepository ──

type mockAttitudeCheckRepo struct {
	checks   map[int64]*model.AttitudeCheck
	students *mockStudentRepo
	nextID   int64
}

func newMockAttitudeCheckRepo(students *mockStudentRepo) *mockAttitudeCheckRepo {
	return &mockAttitudeCheckRepo{checks: make(map[int64]*model.AttitudeCheck), students: students}
}

func (m *mockAttitudeCheckRepo) Create(_ context.Context, c *model.AttitudeCheck) error {
	m.nextID++
	c.ID = m.nextID
	cp := *c
	m.checks[c.ID] = &cp
	return nil
}

func (m *mockAttitudeCheckRepo) GetByID(_ context.Context, id int64) (*model.AttitudeCheck, error) {
	if c, ok := m.checks[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAttitudeCheckRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.checks[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.checks, id)
	return nil
}

func (m *mockAttitudeCheckRepo) list(keep func(*model.AttitudeCheck) bool) []model.AttitudeCheck {
	var out []model.AttitudeCheck
	for _, c := range m.checks {
		if keep(c) {
			cp := *c
			cp.Student = m.students.students[c.StudentID]
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *mockAttitudeCheckRepo) ListByPatrol(_ context.Context, patrolID int64) ([]model.AttitudeCheck, error) {
	return m.list(func(c *model.AttitudeCheck) bool { return c.PatrolID == patrolID }), nil
}

func (m *mockAttitudeCheckRepo) ListByDate(_ context.Context, day time.Time) ([]model.AttitudeCheck, error) {
	return m.list(func(c *model.AttitudeCheck) bool { return dayKey(c.CheckDate) == dayKey(day) }), nil
}

func (m *mockAttitudeCheckRepo) CountByPatrol(_ context.Context, patrolID int64) (int, error) {
	return len(m.list(func(c *model.AttitudeCheck) bool { return c.PatrolID == patrolID })), nil
}

func (m *mockAttitudeCheckRepo) CountByPatrols(_ context.Context, ids []int64) (map[int64]int, error) {
	out := make(map[int64]int)
	for _, id := range ids {
		for _, c := range m.checks {
			if c.PatrolID == id {
				out[id]++
			}
		}
	}
	return out, nil
}

func (m *mockAttitudeCheckRepo) StudentsCheckedOn(_ context.Context, day time.Time) (map[int64]bool, error) {
	out := make(map[int64]bool)
	for _, c := range m.checks {
		if dayKey(c.CheckDate) == dayKey(day) {
			out[c.StudentID] = true
		}
	}
	return out, nil
}

// ── Mock AttendanceRepository ──

type attendanceKey struct {
	studentID int64
	day       string
	period    int
}

type mockAttendanceRepo struct {
	records map[attendanceKey]model.AttendanceRecord
	upserts int
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{records: make(map[attendanceKey]model.AttendanceRecord)}
}

func (m *mockAttendanceRepo) set(studentID int64, day time.Time, p int, status string) {
	m.records[attendanceKey{studentID, dayKey(day), p}] = model.AttendanceRecord{
		StudentID: studentID, RecordDate: day, Period: p, Status: status,
	}
}

func (m *mockAttendanceRepo) get(studentID int64, day time.Time, p int) (string, bool) {
	r, ok := m.records[attendanceKey{studentID, dayKey(day), p}]
	return r.Status, ok
}

func (m *mockAttendanceRepo) Upsert(_ context.Context, records []model.AttendanceRecord) error {
	m.upserts++
	for _, r := range records {
		m.records[attendanceKey{r.StudentID, dayKey(r.RecordDate), r.Period}] = r
	}
	return nil
}

func (m *mockAttendanceRepo) ListByDate(_ context.Context, day time.Time) ([]model.AttendanceRecord, error) {
	var out []model.AttendanceRecord
	for k, r := range m.records {
		if k.day == dayKey(day) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockAttendanceRepo) ListByDatePeriod(_ context.Context, day time.Time, p int) ([]model.AttendanceRecord, error) {
	var out []model.AttendanceRecord
	for k, r := range m.records {
		if k.day == dayKey(day) && k.period == p {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockAttendanceRepo) ConvertStatus(_ context.Context, day time.Time, p int, from, to string) (int64, error) {
	var n int64
	for k, r := range m.records {
		if k.day == dayKey(day) && k.period == p && r.Status == from {
			r.Status = to
			m.records[k] = r
			n++
		}
	}
	return n, nil
}

// ── Mock PhoneRepository ──

type mockPhoneRepo struct {
	subs map[attendanceKey]model.PhoneSubmission
}

func newMockPhoneRepo() *mockPhoneRepo {
	return &mockPhoneRepo{subs: make(map[attendanceKey]model.PhoneSubmission)}
}

func (m *mockPhoneRepo) Upsert(_ context.Context, subs []model.PhoneSubmission) error {
	for _, s := range subs {
		m.subs[attendanceKey{s.StudentID, dayKey(s.SubmitDate), s.Period}] = s
	}
	return nil
}

func (m *mockPhoneRepo) ListByDate(_ context.Context, day time.Time) ([]model.PhoneSubmission, error) {
	var out []model.PhoneSubmission
	for k, s := range m.subs {
		if k.day == dayKey(day) {
			out = append(out, s)
		}
	}
	return out, nil
}

// ── Mock SchoolRepository ──

type mockSchoolRepo struct {
	marks map[string]map[int64]bool
}

func newMockSchoolRepo() *mockSchoolRepo {
	return &mockSchoolRepo{marks: make(map[string]map[int64]bool)}
}

func (m *mockSchoolRepo) Mark(_ context.Context, id int64, day time.Time) error {
	if m.marks[dayKey(day)] == nil {
		m.marks[dayKey(day)] = make(map[int64]bool)
	}
	m.marks[dayKey(day)][id] = true
	return nil
}

func (m *mockSchoolRepo) Unmark(_ context.Context, id int64, day time.Time) error {
	delete(m.marks[dayKey(day)], id)
	return nil
}

func (m *mockSchoolRepo) ListStudentIDs(_ context.Context, day time.Time) ([]int64, error) {
	var out []int64
	for id := range m.marks[dayKey(day)] {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// ── Mock Locker ──

type mockLocker struct {
	held       map[string]bool
	acquireErr error
	acquired   int
	released   int
}

func newMockLocker() *mockLocker {
	return &mockLocker{held: make(map[string]bool)}
}

func (m *mockLocker) AcquireLock(_ context.Context, name string, _ time.Duration) (string, error) {
	if m.acquireErr != nil {
		return "", m.acquireErr
	}
	m.acquired++
	m.held[name] = true
	return "token-" + name, nil
}

func (m *mockLocker) ReleaseLock(_ context.Context, name, _ string) error {
	m.released++
	delete(m.held, name)
	return nil
}

// ── 测试仓储聚合 ──

type mockRepos struct {
	students   *mockStudentRepo
	staff      *mockStaffUserRepo
	patrols    *mockPatrolRepo
	checks     *mockAttitudeCheckRepo
	attendance *mockAttendanceRepo
	phone      *mockPhoneRepo
	school     *mockSchoolRepo
}

func newMockRepos() (*repository.Repository, *mockRepos) {
	m := &mockRepos{
		students:   newMockStudentRepo(),
		staff:      newMockStaffUserRepo(),
		patrols:    newMockPatrolRepo(),
		attendance: newMockAttendanceRepo(),
		phone:      newMockPhoneRepo(),
		school:     newMockSchoolRepo(),
	}
	m.checks = newMockAttitudeCheckRepo(m.students)
	repo := &repository.Repository{
		Student:       m.students,
		StaffUser:     m.staff,
		Patrol:        m.patrols,
		AttitudeCheck: m.checks,
		Attendance:    m.attendance,
		Phone:         m.phone,
		School:        m.school,
	}
	return repo, m
}
