package console

import (
	"fmt"
	"strconv"
	"strings"
)

// SeatKind 格子类型
type SeatKind int

const (
	SeatGap SeatKind = iota
	SeatNumbered
	SeatEntrance
)

// Seat 座位表中的一个格子
type Seat struct {
	Kind   SeatKind
	Number int
}

// Room 一个自习室的座位排布（从前到后逐行）
type Room struct {
	Name  string
	Title string
	Rows  [][]Seat
}

func row(cells ...int) []Seat {
	out := make([]Seat, len(cells))
	for i, n := range cells {
		switch {
		case n > 0:
			out[i] = Seat{Kind: SeatNumbered, Number: n}
		case n == door:
			out[i] = Seat{Kind: SeatEntrance}
		default:
			out[i] = Seat{Kind: SeatGap}
		}
	}
	return out
}

func seq(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

const (
	gap  = 0
	door = -1
)

// Rooms 固定的两间自习室
var Rooms = []Room{
	{
		Name:  "A",
		Title: "A자습실 (오픈형)",
		Rows: [][]Seat{
			row(35, 36, 37, 38, 39, gap, 40, 41, 42),
			row(seq(26, 34)...),
			row(seq(18, 25)...),
			row(11, 12, 13, 14, gap, gap, 15, 16),
			row(seq(6, 10)...),
			row(seq(1, 5)...),
		},
	},
	{
		Name:  "B",
		Title: "B자습실 (독서실형)",
		Rows: [][]Seat{
			row(gap, gap, gap, gap, 22, 23),
			row(18, 19, 20, 21),
			row(seq(10, 14)...),
			row(door, 1, 2, 3, 4, 5, gap, gap, 15, 16, 17),
			row(gap, gap, gap, gap, gap, gap, 6, 7, 8, 9),
		},
	},
}

// SeatID 座位编号，如 "A12"
func SeatID(room string, number int) string {
	return room + strconv.Itoa(number)
}

// ParseSeatID 解析 "<房间字母><数字>"
func ParseSeatID(id string) (string, int, error) {
	id = strings.TrimSpace(id)
	if len(id) < 2 {
		return "", 0, fmt.Errorf("无效的座位编号: %q", id)
	}
	n, err := strconv.Atoi(id[1:])
	if err != nil || n <= 0 {
		return "", 0, fmt.Errorf("无效的座位编号: %q", id)
	}
	return strings.ToUpper(id[:1]), n, nil
}

// FindRoom 按名称查找自习室
func FindRoom(name string) (Room, bool) {
	for _, r := range Rooms {
		if r.Name == name {
			return r, true
		}
	}
	return Room{}, false
}

// SeatCount 自习室内编号座位数
func (r Room) SeatCount() int {
	n := 0
	for _, cells := range r.Rows {
		for _, s := range cells {
			if s.Kind == SeatNumbered {
				n++
			}
		}
	}
	return n
}
