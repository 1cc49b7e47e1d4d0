package service

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrTermInvalid 学期简称无法解析
var ErrTermInvalid = errors.New("学期简称格式错误")

// Season 学期类型，同一年内春季学期在前
type Season int

const (
	Spring Season = iota // FS 春季学期
	Fall                 // HS 秋季学期
)

// 学期 ISO 周范围
const (
	springFirstWeek = 8
	springLastWeek  = 21
	fallFirstWeek   = 38
	fallLastWeek    = 51
)

var termPattern = regexp.MustCompile(`^(HS|FS)\s*(\d{2}|\d{4})$`)

// legacyTermPrefixes 旧版英文简称到规范简称的映射
var legacyTermPrefixes = []struct{ from, to string }{
	{"AUS", "HS"},
	{"SPS", "FS"},
}

// Term 规范学期
type Term struct {
	Year   int
	Season Season
}

// ParseTerm 解析学期简称：HS24 / FS25 / HS2024 / AuS24 / SpS25，大小写不敏感
func ParseTerm(name string) (Term, error) {
	s := strings.ToUpper(strings.TrimSpace(name))
	for _, p := range legacyTermPrefixes {
		if strings.HasPrefix(s, p.from) {
			s = p.to + s[len(p.from):]
			break
		}
	}

	m := termPattern.FindStringSubmatch(s)
	if m == nil {
		return Term{}, fmt.Errorf("%w: %q", ErrTermInvalid, name)
	}

	year, _ := strconv.Atoi(m[2])
	if len(m[2]) == 2 {
		year += 2000
	}

	season := Spring
	if m[1] == "HS" {
		season = Fall
	}
	return Term{Year: year, Season: season}, nil
}

// CanonicalTermName 返回规范简称；无法解析时原样返回去空白后的输入
func CanonicalTermName(name string) string {
	t, err := ParseTerm(name)
	if err != nil {
		return strings.TrimSpace(name)
	}
	return t.ShortName()
}

// ShortName 规范简称，如 HS24
func (t Term) ShortName() string {
	prefix := "FS"
	if t.Season == Fall {
		prefix = "HS"
	}
	return fmt.Sprintf("%s%02d", prefix, t.Year%100)
}

func (t Term) String() string { return t.ShortName() }

// Before 严格早于 other
func (t Term) Before(other Term) bool {
	if t.Year != other.Year {
		return t.Year < other.Year
	}
	return t.Season < other.Season
}

// Next 下一个学期
func (t Term) Next() Term {
	if t.Season == Spring {
		return Term{Year: t.Year, Season: Fall}
	}
	return Term{Year: t.Year + 1, Season: Spring}
}

// Previous 上一个学期
func (t Term) Previous() Term {
	if t.Season == Fall {
		return Term{Year: t.Year, Season: Spring}
	}
	return Term{Year: t.Year - 1, Season: Fall}
}

// DateRange 学期日期范围：首周周一 00:00 至末周周日 00:00（含）
func (t Term) DateRange(loc *time.Location) (start, end time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	first, last := springFirstWeek, springLastWeek
	if t.Season == Fall {
		first, last = fallFirstWeek, fallLastWeek
	}
	start = isoWeekMonday(t.Year, first, loc)
	end = isoWeekMonday(t.Year, last, loc).AddDate(0, 0, 6)
	return start, end
}

// isoWeekMonday ISO 周的周一；1 月 4 日总在第 1 周
func isoWeekMonday(year, week int, loc *time.Location) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, loc)
	offset := (int(jan4.Weekday()) + 6) % 7
	week1 := jan4.AddDate(0, 0, -offset)
	return week1.AddDate(0, 0, (week-1)*7)
}

// TermForDate 按日期推断所在学期：2-7 月为春季学期，其余为秋季学期（1 月归上一年秋季）
func TermForDate(t time.Time) Term {
	switch m := t.Month(); {
	case m == time.January:
		return Term{Year: t.Year() - 1, Season: Fall}
	case m <= time.July:
		return Term{Year: t.Year(), Season: Spring}
	default:
		return Term{Year: t.Year(), Season: Fall}
	}
}
