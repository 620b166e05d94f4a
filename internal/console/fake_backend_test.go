package console

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/DH0263/dittonweb-sub000/internal/period"
	pkgerrors "github.com/DH0263/dittonweb-sub000/pkg/errors"
)

// ── 可控时钟 ──

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(hh, mm int) *fakeClock {
	return &fakeClock{t: at(hh, mm)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

// ── 内存后端 ──

type attendanceCall struct {
	period  int
	entries []Entry[Status]
	force   bool
}

type phoneCall struct {
	period    int
	entries   []Entry[bool]
	checkedBy string
	force     bool
}

var errBackendDown = errors.New("backend unavailable")

type fakeBackend struct {
	mu       sync.Mutex
	schedule *period.Schedule
	clock    Clock

	students   []Student
	attendance map[int64]map[int]string
	phone      map[int64]map[int]bool
	school     map[int64]bool
	patrols    map[int64]*PatrolSession
	checks     map[int64]Observation
	nextID     int64

	attendanceCalls []attendanceCall
	phoneCalls      []phoneCall
	createCalls     int

	submitErr error
	// submitGate 非空时提交会阻塞直到其被关闭
	submitGate    chan struct{}
	submitStarted chan struct{}
}

func newFakeBackend(clock Clock, students ...Student) *fakeBackend {
	return &fakeBackend{
		schedule:   testSchedule(),
		clock:      clock,
		students:   students,
		attendance: map[int64]map[int]string{},
		phone:      map[int64]map[int]bool{},
		school:     map[int64]bool{},
		patrols:    map[int64]*PatrolSession{},
		checks:     map[int64]Observation{},
		nextID:     100,
	}
}

func testSchedule() *period.Schedule {
	return period.NewSchedule(period.Default().Windows(), testLoc)
}

func (b *fakeBackend) id() int64 {
	b.nextID++
	return b.nextID
}

func (b *fakeBackend) FetchRoster(context.Context) ([]Student, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Student, len(b.students))
	copy(out, b.students)
	return out, nil
}

func (b *fakeBackend) FetchAttendanceByPeriod(context.Context) (map[int64]map[int]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := map[int64]map[int]string{}
	for id, m := range b.attendance {
		out[id] = map[int]string{}
		for p, v := range m {
			out[id][p] = v
		}
	}
	return out, nil
}

func (b *fakeBackend) FetchPhoneByPeriod(context.Context) (map[int64]map[int]bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := map[int64]map[int]bool{}
	for id, m := range b.phone {
		out[id] = map[int]bool{}
		for p, v := range m {
			out[id][p] = v
		}
	}
	return out, nil
}

func (b *fakeBackend) FetchSchoolAttendance(context.Context) ([]int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []int64
	for id := range b.school {
		out = append(out, id)
	}
	return out, nil
}

func (b *fakeBackend) SetSchoolAttendance(_ context.Context, studentID int64, attending bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if attending {
		b.school[studentID] = true
	} else {
		delete(b.school, studentID)
	}
	return nil
}

func (b *fakeBackend) checkPeriod(p int, force bool) error {
	if force {
		return nil
	}
	v := b.schedule.Validate(p, b.clock.Now())
	if v.IsCurrent {
		return nil
	}
	return &pkgerrors.PeriodMismatchError{Requested: p, Current: v.CurrentPeriod, Message: v.Message}
}

func (b *fakeBackend) waitGate() {
	b.mu.Lock()
	gate, started := b.submitGate, b.submitStarted
	b.mu.Unlock()
	if gate == nil {
		return
	}
	if started != nil {
		close(started)
	}
	<-gate
}

func (b *fakeBackend) SubmitAttendance(_ context.Context, p int, entries []Entry[Status], force bool) error {
	b.waitGate()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.attendanceCalls = append(b.attendanceCalls, attendanceCall{period: p, entries: entries, force: force})
	if b.submitErr != nil {
		return b.submitErr
	}
	if err := b.checkPeriod(p, force); err != nil {
		return err
	}
	for _, e := range entries {
		if b.attendance[e.StudentID] == nil {
			b.attendance[e.StudentID] = map[int]string{}
		}
		b.attendance[e.StudentID][p] = e.Value.StoredName()
	}
	return nil
}

func (b *fakeBackend) SubmitPhone(_ context.Context, p int, entries []Entry[bool], checkedBy string, force bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.phoneCalls = append(b.phoneCalls, phoneCall{period: p, entries: entries, checkedBy: checkedBy, force: force})
	if b.submitErr != nil {
		return b.submitErr
	}
	if err := b.checkPeriod(p, force); err != nil {
		return err
	}
	for _, e := range entries {
		if b.phone[e.StudentID] == nil {
			b.phone[e.StudentID] = map[int]bool{}
		}
		b.phone[e.StudentID][p] = e.Value
	}
	return nil
}

func (b *fakeBackend) activeLocked() *PatrolSession {
	for _, p := range b.patrols {
		if p.EndTime == nil && !p.ForceEnded {
			return p
		}
	}
	return nil
}

func (b *fakeBackend) StartPatrol(context.Context) (*PatrolSession, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p := b.activeLocked(); p != nil {
		cp := *p
		cp.Existing = true
		return &cp, nil
	}
	p := &PatrolSession{ID: b.id(), StartTime: b.clock.Now()}
	b.patrols[p.ID] = p
	cp := *p
	return &cp, nil
}

func (b *fakeBackend) CurrentPatrol(context.Context) (*PatrolSession, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p := b.activeLocked(); p != nil {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (b *fakeBackend) EndPatrol(_ context.Context, id int64, notes, inspector string) (*PatrolEndResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.patrols[id]
	if !ok {
		return nil, errors.New("patrol not found")
	}
	if p.EndTime != nil {
		return nil, errors.New("patrol already ended")
	}
	now := b.clock.Now()
	p.EndTime = &now
	p.Notes = notes
	p.InspectorName = inspector
	n := 0
	for _, c := range b.checks {
		if c.PatrolID == id {
			n++
		}
	}
	return &PatrolEndResult{Session: *p, CheckCount: n}, nil
}

func (b *fakeBackend) forceEnd(id int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p, ok := b.patrols[id]; ok && p.EndTime == nil {
		now := b.clock.Now()
		p.EndTime = &now
		p.ForceEnded = true
	}
}

func (b *fakeBackend) CreateObservation(_ context.Context, in NewObservation) (*Observation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.createCalls++
	p, ok := b.patrols[in.PatrolID]
	if !ok || p.EndTime != nil {
		return nil, errors.New("patrol not active")
	}
	o := Observation{
		ID:          b.id(),
		StudentID:   in.StudentID,
		PatrolID:    in.PatrolID,
		CheckTime:   in.CheckTime,
		Category:    in.Category,
		Note:        in.Note,
		CheckerName: in.CheckerName,
	}
	b.checks[o.ID] = o
	return &o, nil
}

func (b *fakeBackend) ListObservations(_ context.Context, patrolID int64) ([]Observation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Observation
	for _, c := range b.checks {
		if c.PatrolID == patrolID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (b *fakeBackend) DeleteObservation(_ context.Context, checkID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.checks[checkID]
	if !ok {
		return errors.New("not found")
	}
	if p := b.patrols[c.PatrolID]; p != nil && p.EndTime != nil {
		return errors.New("patrol finalized")
	}
	delete(b.checks, checkID)
	return nil
}

// ── 强制结束发送器 ──

type fakeSender struct {
	mu      sync.Mutex
	backend *fakeBackend
	sent    []int64
	notes   []string
}

func (s *fakeSender) SendForceEnd(patrolID int64, note string) {
	s.mu.Lock()
	s.sent = append(s.sent, patrolID)
	s.notes = append(s.notes, note)
	s.mu.Unlock()
	if s.backend != nil {
		s.backend.forceEnd(patrolID)
	}
}

func (s *fakeSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

// ── 组装 ──

type harness struct {
	ctrl    *Controller
	backend *fakeBackend
	sender  *fakeSender
	markers *MemoryMarkerStore
	clock   *fakeClock
}

func newHarness(hh, mm int, students ...Student) *harness {
	clock := newFakeClock(hh, mm)
	backend := newFakeBackend(clock, students...)
	sender := &fakeSender{backend: backend}
	markers := &MemoryMarkerStore{}
	h := &harness{backend: backend, sender: sender, markers: markers, clock: clock}
	h.ctrl = h.reload()
	return h
}

// reload 模拟下一次加载：同一后端与标记存储，新的控制器
func (h *harness) reload() *Controller {
	opts := Options{Roster: testRosterOptions(), DefaultChecker: "감독자"}
	ctrl := NewController(h.backend, h.sender, h.markers, testSchedule(), h.clock, opts, zap.NewNop())
	if err := ctrl.Load(context.Background()); err != nil {
		panic(err)
	}
	return ctrl
}

func defaultStudents() []Student {
	return []Student{
		{ID: 1, Name: "김하나", SeatNumber: "A1", StudentType: "고2", Baseline: StatusAbsent},
		{ID: 2, Name: "이둘", SeatNumber: "A2", StudentType: "중3", Baseline: StatusAbsent},
		{ID: 3, Name: "박셋", SeatNumber: "A3", StudentType: "고3", Baseline: StatusAbsent},
		{ID: 4, Name: "최넷", SeatNumber: "B1", StudentType: "재수", Baseline: StatusAbsent},
		{ID: 12, Name: "정열둘", SeatNumber: "A12", StudentType: "고1", Baseline: StatusAbsent},
	}
}
