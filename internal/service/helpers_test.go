package service

import (
	"time"

	"github.com/DH0263/dittonweb-sub000/internal/period"
)

var testSched = period.Default()

// clockAt 固定在 2026-03-10 的 hh:mm（教时表时区）
func clockAt(hh, mm int) Clock {
	t := time.Date(2026, 3, 10, hh, mm, 0, 0, testSched.Location())
	return func() time.Time { return t }
}

// testDay 测试日零点
func testDay() time.Time {
	return testSched.Today(clockAt(12, 0)())
}
