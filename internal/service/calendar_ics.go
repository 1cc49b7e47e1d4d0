package service

import (
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/studentenschaft/Biddit2-sub002/internal/model"
)

const icsProductID = "-//Biddit//Semester Calendar//DE"

// ExportICS 将学期日历事件序列化为 iCalendar (RFC 5545) 文本
func ExportICS(name string, events []model.CalendarEvent, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)
	cal.SetXWRCalName(name)

	for _, e := range events {
		evt := cal.AddEvent(e.ID + "@biddit")
		evt.SetDtStampTime(stamp)
		evt.SetStartAt(e.Start)
		evt.SetEndAt(e.End)
		evt.SetSummary(e.Title)
		if e.Room != "" {
			evt.SetLocation(e.Room)
		}
		desc := e.CourseID
		if e.State == EventStateSelected {
			desc += " (selected)"
		}
		if e.Overlapping {
			desc += " [overlap]"
		}
		evt.SetDescription(desc)
	}
	return cal.Serialize()
}
