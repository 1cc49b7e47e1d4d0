package service

import (
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/studentenschaft/Biddit2-sub002/internal/model"
)

func calCourse(number, name string, entries ...model.CalendarEntry) model.Course {
	return model.Course{CourseNumber: number, ShortName: name, CalendarEntry: entries}
}

func entry(date string, minutes int) model.CalendarEntry {
	return model.CalendarEntry{EventDate: date, DurationInMinutes: minutes, Room: "01-014"}
}

func findEvent(t *testing.T, events []model.CalendarEvent, courseID string) model.CalendarEvent {
	t.Helper()
	for _, e := range events {
		if e.CourseID == courseID {
			return e
		}
	}
	t.Fatalf("未找到课程 %s 的事件", courseID)
	return model.CalendarEvent{}
}

func TestBuildCalendarEvents_Overlap(t *testing.T) {
	a := calCourse("1,100,1.00", "A", entry("2024-09-16T10:00:00", 120))
	b := calCourse("1,200,1.00", "B", entry("2024-09-16T11:00:00", 120))

	events, overlapping := BuildCalendarEvents([]model.Course{a}, []model.Course{b}, time.UTC)
	if len(events) != 2 {
		t.Fatalf("期望 2 个事件，实际 %d", len(events))
	}
	if len(overlapping) != 2 || overlapping[0] != "1,100,1.00" || overlapping[1] != "1,200,1.00" {
		t.Errorf("冲突课程不正确: %v", overlapping)
	}
	for _, e := range events {
		if !e.Overlapping {
			t.Errorf("%s 应标记为冲突", e.CourseID)
		}
		if e.Color != ColorOverlap {
			t.Errorf("%s 冲突颜色错误: %s", e.CourseID, e.Color)
		}
	}
}

func TestBuildCalendarEvents_TouchingIsNotOverlap(t *testing.T) {
	a := calCourse("1,100,1.00", "A", entry("2024-09-16T10:00:00", 60))
	b := calCourse("1,200,1.00", "B", entry("2024-09-16T11:00:00", 60))

	events, _ := BuildCalendarEvents([]model.Course{a, b}, nil, time.UTC)
	for _, e := range events {
		if e.Overlapping {
			t.Errorf("首尾相接的 %s 不应标记为冲突", e.CourseID)
		}
	}
}

func TestBuildCalendarEvents_DifferentDaysNoOverlap(t *testing.T) {
	a := calCourse("1,100,1.00", "A", entry("2024-09-16T10:00:00", 120))
	b := calCourse("1,200,1.00", "B", entry("2024-09-17T10:00:00", 120))

	events, _ := BuildCalendarEvents(nil, []model.Course{a, b}, time.UTC)
	if MarkOverlaps(events); events[0].Overlapping || events[1].Overlapping {
		t.Error("不同日期的事件不应冲突")
	}
}

func TestBuildCalendarEvents_SameCourseNotOverlap(t *testing.T) {
	a := calCourse("1,100,1.00", "A",
		entry("2024-09-16T10:00:00", 120),
		entry("2024-09-16T11:00:00", 60),
	)
	events, _ := BuildCalendarEvents([]model.Course{a}, nil, time.UTC)
	for _, e := range events {
		if e.Overlapping {
			t.Error("同一课程的多次课不应互相冲突")
		}
	}
}

func TestBuildCalendarEvents_DedupEnrolledWins(t *testing.T) {
	enrolled := calCourse("1,100,1.00", "A", entry("2024-09-16T10:00:00", 90))
	selected := enrolled
	selected.ID = "legacy-a"

	events, _ := BuildCalendarEvents([]model.Course{enrolled}, []model.Course{selected}, time.UTC)
	if len(events) != 1 {
		t.Fatalf("期望去重后 1 个事件，实际 %d", len(events))
	}
	if events[0].State != EventStateEnrolled || events[0].Color != ColorEnrolled {
		t.Errorf("已注册课程应优先: %+v", events[0])
	}
}

func TestBuildCalendarEvents_SkipsMalformedEntries(t *testing.T) {
	a := calCourse("1,100,1.00", "A",
		entry("not-a-date", 60),
		entry("2024-09-16T10:00:00", 0),
		entry("2024-09-16T12:00", 45),
	)
	events, _ := BuildCalendarEvents([]model.Course{a}, nil, time.UTC)
	if len(events) != 1 {
		t.Fatalf("期望仅保留 1 个有效事件，实际 %d", len(events))
	}
	if got := events[0].End.Sub(events[0].Start); got != 45*time.Minute {
		t.Errorf("期望时长 45 分钟，实际 %v", got)
	}
}

func TestBuildCalendarEvents_LocalTimezone(t *testing.T) {
	zurich, err := time.LoadLocation("Europe/Zurich")
	if err != nil {
		t.Skipf("缺少时区数据: %v", err)
	}
	a := calCourse("1,100,1.00", "A", entry("2024-09-16T10:00:00", 60))
	events, _ := BuildCalendarEvents([]model.Course{a}, nil, zurich)
	if h := events[0].Start.UTC().Hour(); h != 8 {
		t.Errorf("无时区时间应按苏黎世时间解释，UTC 小时期望 8，实际 %d", h)
	}
}

func TestMarkOverlaps_ReturnsCourses(t *testing.T) {
	a := calCourse("1,100,1.00", "A", entry("2024-09-16T10:00:00", 120))
	b := calCourse("1,200,1.00", "B", entry("2024-09-16T11:00:00", 30))
	c := calCourse("1,300,1.00", "C", entry("2024-09-16T14:00:00", 60))

	events, _ := BuildCalendarEvents([]model.Course{a, b, c}, nil, time.UTC)
	got := MarkOverlaps(events)
	if len(got) != 2 || got[0] != "1,100,1.00" || got[1] != "1,200,1.00" {
		t.Errorf("冲突课程错误: %v", got)
	}
	if findEvent(t, events, "1,300,1.00").Overlapping {
		t.Error("C 不应冲突")
	}
}

func TestBuildHeatmap(t *testing.T) {
	a := calCourse("1,100,1.00", "A",
		entry("2024-09-16T10:00:00", 90),
		entry("2024-09-21T09:00:00", 60), // 周六
	)
	b := calCourse("1,200,1.00", "B", entry("2024-09-16T14:00:00", 120))
	events, _ := BuildCalendarEvents([]model.Course{a, b}, nil, time.UTC)

	start := time.Date(2024, 9, 16, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 9, 22, 0, 0, 0, 0, time.UTC)
	days := BuildHeatmap(events, start, end)

	// 周一至周五 + 有课的周六
	if len(days) != 6 {
		t.Fatalf("期望 6 天，实际 %d", len(days))
	}
	if days[0].Date != "2024-09-16" || days[0].Hours != 3.5 {
		t.Errorf("周一汇总错误: %+v", days[0])
	}
	if len(days[0].CourseIDs) != 2 {
		t.Errorf("周一应有 2 门课，实际 %v", days[0].CourseIDs)
	}
	if days[1].Hours != 0 || len(days[1].CourseIDs) != 0 {
		t.Errorf("周二应为空: %+v", days[1])
	}
	if days[5].Weekday != "Saturday" || days[5].Hours != 1 {
		t.Errorf("周六汇总错误: %+v", days[5])
	}
}

func TestCoursesOnDate(t *testing.T) {
	a := calCourse("1,100,1.00", "A", entry("2024-09-16T14:00:00", 60), entry("2024-09-16T16:00:00", 60))
	b := calCourse("1,200,1.00", "B", entry("2024-09-16T08:00:00", 60))
	events, _ := BuildCalendarEvents([]model.Course{a, b}, nil, time.UTC)

	got := CoursesOnDate(events, time.Date(2024, 9, 16, 12, 0, 0, 0, time.UTC))
	if len(got) != 2 || got[0] != "1,200,1.00" || got[1] != "1,100,1.00" {
		t.Errorf("当天课程错误: %v", got)
	}
	if got := CoursesOnDate(events, time.Date(2024, 9, 17, 0, 0, 0, 0, time.UTC)); len(got) != 0 {
		t.Errorf("无课日期应返回空，实际 %v", got)
	}
}

func TestExportICS(t *testing.T) {
	a := calCourse("1,100,1.00", "Corporate Finance", entry("2024-09-16T10:00:00", 90))
	events, _ := BuildCalendarEvents([]model.Course{a}, nil, time.UTC)

	out := ExportICS("HS24", events, time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC))
	if !strings.Contains(out, "BEGIN:VCALENDAR") || !strings.Contains(out, "SUMMARY:Corporate Finance") {
		t.Errorf("ICS 内容缺失: %s", out)
	}

	cal, err := ics.ParseCalendar(strings.NewReader(out))
	if err != nil {
		t.Fatalf("生成的 ICS 应可解析: %v", err)
	}
	if n := len(cal.Events()); n != 1 {
		t.Errorf("期望 1 个 VEVENT，实际 %d", n)
	}
}
