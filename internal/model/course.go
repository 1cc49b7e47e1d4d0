package model

import (
	"encoding/json"
	"strings"
)

// ── 上游课程 API 数据结构（camelCase 与上游保持一致）──

// Course 课程目录 / 已选课程条目
// Credits 以 ECTS×100 存储（400 = 4.00 ECTS），缺失时为 nil
type Course struct {
	ID             string          `json:"id,omitempty"`
	CourseID       string          `json:"courseId,omitempty"` // 旧版标识
	CourseNumber   string          `json:"courseNumber,omitempty"`
	ShortName      string          `json:"shortName"`
	Name           string          `json:"name,omitempty"`
	Classification string          `json:"classification,omitempty"`
	Credits        *int            `json:"credits"`
	CourseLanguage Language        `json:"courseLanguage,omitempty"`
	AvgRating      *float64        `json:"avgRating,omitempty"`
	CalendarEntry  []CalendarEntry `json:"calendarEntry,omitempty"`
	Courses        []SubCourse     `json:"courses,omitempty"`
	Lecturers      []Lecturer      `json:"lecturers,omitempty"`
	Semester       string          `json:"semester,omitempty"` // 跨学期列表（成绩单视图）中课程自带的学期
}

// CalendarEntry 单次课程安排
type CalendarEntry struct {
	EventDate         string `json:"eventDate"` // ISO 日期时间，可能不带时区
	DurationInMinutes int    `json:"durationInMinutes"`
	CourseNumber      string `json:"courseNumber,omitempty"`
	Room              string `json:"room,omitempty"`
}

// SubCourse 子课程（同一课程的不同开课实例）
type SubCourse struct {
	CourseNumber string     `json:"courseNumber,omitempty"`
	ShortName    string     `json:"shortName,omitempty"`
	Lecturers    []Lecturer `json:"lecturers,omitempty"`
}

// Lecturer 授课教师
type Lecturer struct {
	ID          string `json:"id,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// Language 授课语言；上游有时给字符串，有时给 {code,name} 对象
type Language string

// UnmarshalJSON 兼容字符串与对象两种形态
func (l *Language) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*l = Language(s)
		return nil
	}
	var obj struct {
		Code string `json:"code"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		// 形态未知时置空而不是整体解析失败
		*l = ""
		return nil
	}
	if obj.Code != "" {
		*l = Language(obj.Code)
	} else {
		*l = Language(obj.Name)
	}
	return nil
}

// DisplayName 课程展示名
func (c Course) DisplayName() string {
	if c.ShortName != "" {
		return c.ShortName
	}
	return c.Name
}

// CanonicalID 规范课程标识：课程编号优先，其次首个子课程编号，旧版 id 仅作兜底
func (c Course) CanonicalID() string {
	if c.CourseNumber != "" {
		return c.CourseNumber
	}
	if len(c.Courses) > 0 && c.Courses[0].CourseNumber != "" {
		return c.Courses[0].CourseNumber
	}
	if c.CourseID != "" {
		return c.CourseID
	}
	return c.ID
}

// Identifiers 判断选中状态时参与比对的全部标识（去空去重）
func (c Course) Identifiers() []string {
	candidates := []string{c.ID, c.CourseNumber, c.CourseID}
	if len(c.Courses) > 0 {
		candidates = append(candidates, c.Courses[0].CourseNumber)
	}
	seen := make(map[string]bool, len(candidates))
	ids := make([]string, 0, len(candidates))
	for _, id := range candidates {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// LecturerNames 全部教师姓名（含子课程）
func (c Course) LecturerNames() []string {
	var names []string
	for _, l := range c.Lecturers {
		names = append(names, l.DisplayName)
	}
	for _, sc := range c.Courses {
		for _, l := range sc.Lecturers {
			names = append(names, l.DisplayName)
		}
	}
	return names
}

// Clone 深拷贝，切片与指针不与原值共享
func (c Course) Clone() Course {
	out := c
	if c.Credits != nil {
		v := *c.Credits
		out.Credits = &v
	}
	if c.AvgRating != nil {
		v := *c.AvgRating
		out.AvgRating = &v
	}
	if c.CalendarEntry != nil {
		out.CalendarEntry = append([]CalendarEntry(nil), c.CalendarEntry...)
	}
	if c.Lecturers != nil {
		out.Lecturers = append([]Lecturer(nil), c.Lecturers...)
	}
	if c.Courses != nil {
		out.Courses = make([]SubCourse, len(c.Courses))
		for i, sc := range c.Courses {
			out.Courses[i] = sc
			if sc.Lecturers != nil {
				out.Courses[i].Lecturers = append([]Lecturer(nil), sc.Lecturers...)
			}
		}
	}
	return out
}

// ── 练习组学分归一化接口实现 ──

func (c Course) ECTSName() string         { return c.DisplayName() }
func (c Course) ECTSCourseNumber() string { return c.CourseNumber }

// ECTSCredits 缺失学分按 0 计
func (c Course) ECTSCredits() int {
	if c.Credits == nil {
		return 0
	}
	return *c.Credits
}

func (c Course) WithECTSCredits(credits int) Course {
	out := c.Clone()
	out.Credits = &credits
	return out
}
