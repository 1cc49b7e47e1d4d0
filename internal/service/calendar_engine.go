package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/studentenschaft/Biddit2-sub002/internal/model"
)

// ── 日历 / 冲突引擎 ──────────────────────────────────────────
//
// 职责：把已注册与已选课程的 calendarEntry 转为日历事件，标记时间冲突，
// 并按学期日期范围生成每日课时热力图。
//
// 约定：
//   - 已注册与已选按课程标识去重，已注册优先
//   - 冲突采用半开区间 [start, end)，首尾相接不算冲突
//   - 同一课程自己的多次课互不算冲突
//   - 按日分桶后按开始时间排序扫描，只与仍在进行的事件比较
// ─────────────────────────────────────────────────────────────

// 事件状态
const (
	EventStateEnrolled = "enrolled"
	EventStateSelected = "selected"
)

// 事件颜色
const (
	ColorEnrolled = "#00802f" // 实色
	ColorSelected = "#9ccca8" // 浅色
	ColorOverlap  = "#e8a33d" // 警示
)

const dayLayout = "2006-01-02"

// eventDateLayouts 上游 eventDate 可能的格式，无时区时按日历时区解释
var eventDateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// BuildCalendarEvents 生成事件并完成冲突标记，结果按开始时间排序
// 第二个返回值为存在冲突的课程标识
func BuildCalendarEvents(enrolled, selected []model.Course, loc *time.Location) ([]model.CalendarEvent, []string) {
	if loc == nil {
		loc = time.UTC
	}

	seen := make(map[string]bool)
	var events []model.CalendarEvent
	add := func(c model.Course, state string) {
		for _, id := range c.Identifiers() {
			if seen[id] {
				return
			}
		}
		for _, id := range c.Identifiers() {
			seen[id] = true
		}
		courseID := c.CanonicalID()
		for i, entry := range c.CalendarEntry {
			start, ok := parseEventDate(entry.EventDate, loc)
			if !ok || entry.DurationInMinutes <= 0 {
				continue
			}
			color := ColorEnrolled
			if state == EventStateSelected {
				color = ColorSelected
			}
			events = append(events, model.CalendarEvent{
				ID:       fmt.Sprintf("%s#%d", courseID, i),
				CourseID: courseID,
				Title:    c.DisplayName(),
				Start:    start,
				End:      start.Add(time.Duration(entry.DurationInMinutes) * time.Minute),
				Room:     entry.Room,
				State:    state,
				Color:    color,
			})
		}
	}
	for _, c := range enrolled {
		add(c, EventStateEnrolled)
	}
	for _, c := range selected {
		add(c, EventStateSelected)
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].Start.Before(events[j].Start) })
	overlapping := MarkOverlaps(events)
	return events, overlapping
}

func parseEventDate(raw string, loc *time.Location) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.In(loc), true
	}
	for _, layout := range eventDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// MarkOverlaps 原地标记冲突事件，返回存在冲突的课程标识（已排序）
func MarkOverlaps(events []model.CalendarEvent) []string {
	byDay := make(map[string][]int)
	for i := range events {
		events[i].Overlapping = false
		key := events[i].Start.Format(dayLayout)
		byDay[key] = append(byDay[key], i)
	}

	courses := make(map[string]bool)
	for _, idxs := range byDay {
		sort.SliceStable(idxs, func(a, b int) bool { return events[idxs[a]].Start.Before(events[idxs[b]].Start) })

		var active []int
		for _, i := range idxs {
			cur := &events[i]
			// 半开区间：已结束（end <= start）的事件移出
			kept := active[:0]
			for _, j := range active {
				if events[j].End.After(cur.Start) {
					kept = append(kept, j)
				}
			}
			active = kept

			for _, j := range active {
				if events[j].CourseID == cur.CourseID {
					continue
				}
				events[j].Overlapping = true
				cur.Overlapping = true
				courses[events[j].CourseID] = true
				courses[cur.CourseID] = true
			}
			active = append(active, i)
		}
	}

	for i := range events {
		if events[i].Overlapping {
			events[i].Color = ColorOverlap
		}
	}

	out := make([]string, 0, len(courses))
	for id := range courses {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// BuildHeatmap 学期内每个工作日的课时；周末只在有课时出现
func BuildHeatmap(events []model.CalendarEvent, start, end time.Time) []model.HeatmapDay {
	type bucket struct {
		minutes float64
		courses []string
		seen    map[string]bool
	}
	buckets := make(map[string]*bucket)
	for _, e := range events {
		key := e.Start.Format(dayLayout)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{seen: make(map[string]bool)}
			buckets[key] = b
		}
		b.minutes += e.End.Sub(e.Start).Minutes()
		if !b.seen[e.CourseID] {
			b.seen[e.CourseID] = true
			b.courses = append(b.courses, e.CourseID)
		}
	}

	var days []model.HeatmapDay
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(dayLayout)
		b := buckets[key]
		weekend := d.Weekday() == time.Saturday || d.Weekday() == time.Sunday
		if weekend && b == nil {
			continue
		}
		day := model.HeatmapDay{Date: key, Weekday: d.Weekday().String(), CourseIDs: []string{}}
		if b != nil {
			day.Hours = round2(b.minutes / 60)
			day.CourseIDs = b.courses
		}
		days = append(days, day)
	}
	return days
}

// CoursesOnDate 当天有课的课程标识，按首次上课时间排序
func CoursesOnDate(events []model.CalendarEvent, date time.Time) []string {
	key := date.Format(dayLayout)
	seen := make(map[string]bool)
	ids := []string{}
	for _, e := range events {
		if e.Start.Format(dayLayout) != key || seen[e.CourseID] {
			continue
		}
		seen[e.CourseID] = true
		ids = append(ids, e.CourseID)
	}
	return ids
}
