package console

import "time"

// CellKind 渲染格子类型
type CellKind int

const (
	CellGap CellKind = iota
	CellEntrance
	CellEmptySeat
	CellStudent
)

// Cell 座位表渲染契约中的一个格子
type Cell struct {
	Kind        CellKind
	SeatID      string
	StudentID   int64
	StudentName string
	Status      Status
	Label       string
	Warning     bool // 态度角标
	Pending     bool // 覆盖层中有未提交修改
	Phone       bool // 手机模式下的解析值
	AtSchool    bool
}

// RoomGrid 一间自习室的格子
type RoomGrid struct {
	Name  string
	Title string
	Rows  [][]Cell
}

// Grid 整个座位表
type Grid struct {
	Mode   ModeKind
	Period int
	Now    time.Time
	Rooms  []RoomGrid
}

const (
	labelEmptySeat    = "빈좌석"
	labelPhoneIn      = "제출"
	labelPhoneMissing = "미제출"
)

// Grid 按当前模式生成座位表
// 查看/巡查：综合状态；出勤：覆盖层 > 该教时记录；手机：覆盖层 > 记录 > 已上交
func (c *Controller) Grid() Grid {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	g := Grid{Mode: c.mode.Kind(), Now: now}

	for _, room := range Rooms {
		rg := RoomGrid{Name: room.Name, Title: room.Title, Rows: make([][]Cell, 0, len(room.Rows))}
		for _, seats := range room.Rows {
			cells := make([]Cell, 0, len(seats))
			for _, seat := range seats {
				cells = append(cells, c.cellLocked(room.Name, seat, now))
			}
			rg.Rows = append(rg.Rows, cells)
		}
		g.Rooms = append(g.Rooms, rg)
	}

	switch m := c.mode.(type) {
	case *AttendanceMode:
		g.Period = m.Period
	case *PhoneMode:
		g.Period = m.Period
	}
	return g
}

func (c *Controller) cellLocked(room string, seat Seat, now time.Time) Cell {
	switch seat.Kind {
	case SeatGap:
		return Cell{Kind: CellGap}
	case SeatEntrance:
		return Cell{Kind: CellEntrance}
	}

	id := SeatID(room, seat.Number)
	st, ok := c.roster.BySeat(id)
	if !ok {
		return Cell{Kind: CellEmptySeat, SeatID: id, Label: labelEmptySeat}
	}

	cell := Cell{
		Kind:        CellStudent,
		SeatID:      id,
		StudentID:   st.ID,
		StudentName: st.Name,
		Warning:     c.roster.HasAttitudeWarning(st.ID),
		AtSchool:    c.roster.AtSchool(st.ID),
	}

	switch m := c.mode.(type) {
	case *AttendanceMode:
		cell.Status = c.resolveAttendanceLocked(m, st.ID)
		cell.Pending = m.Overlay.Changed(st.ID, c.attendanceBaselineLocked(m))
		cell.Label = cell.Status.Label()
	case *PhoneMode:
		cell.Phone = c.resolvePhoneLocked(m, st.ID)
		cell.Pending = m.Overlay.Changed(st.ID, c.phoneBaselineLocked(m))
		cell.Label = labelPhoneMissing
		if cell.Phone {
			cell.Label = labelPhoneIn
		}
	default:
		cell.Status = c.roster.CurrentStatus(st.ID, now)
		cell.Label = cell.Status.Label()
	}
	return cell
}
