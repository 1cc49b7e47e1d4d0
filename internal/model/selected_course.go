package model

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// SelectedCourse 已选课程表 — 对应 selected_courses
// 唯一约束 (user_id, semester, course_number)；Credits 为展示单位
type SelectedCourse struct {
	SelectedCourseID string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID           string         `gorm:"type:uuid;not null"                             json:"user_id"`
	Semester         string         `gorm:"type:varchar(10);not null"                      json:"semester"`
	CourseNumber     string         `gorm:"type:varchar(50);not null"                      json:"course_number"`
	LegacyID         string         `gorm:"type:varchar(100);not null;default:''"          json:"legacy_id,omitempty"`
	Name             string         `gorm:"type:varchar(300);not null;default:''"          json:"name"`
	Classification   string         `gorm:"type:varchar(200);not null;default:''"          json:"classification"`
	Credits          float64        `gorm:"type:numeric(6,2);not null;default:0"           json:"credits"`
	Snapshot         datatypes.JSON `gorm:"type:jsonb"                                     json:"-"`
	BaseModel
}

// TableName 指定表名
func (SelectedCourse) TableName() string { return "selected_courses" }

// Identifiers 记录可被匹配的标识
func (s SelectedCourse) Identifiers() []string {
	if s.LegacyID != "" && s.LegacyID != s.CourseNumber {
		return []string{s.CourseNumber, s.LegacyID}
	}
	return []string{s.CourseNumber}
}

// SnapshotCourse 还原保存时的课程快照，快照缺失或损坏时用行字段兜底
func (s SelectedCourse) SnapshotCourse() Course {
	var c Course
	if len(s.Snapshot) > 0 {
		if err := json.Unmarshal(s.Snapshot, &c); err == nil && c.CanonicalID() != "" {
			return c
		}
	}
	credits := int(s.Credits*100 + 0.5)
	return Course{
		ID:             s.LegacyID,
		CourseNumber:   s.CourseNumber,
		ShortName:      s.Name,
		Classification: s.Classification,
		Credits:        &credits,
		Semester:       s.Semester,
	}
}
