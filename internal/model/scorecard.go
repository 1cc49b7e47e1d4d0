package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Decimal 上游以字符串（"4.00"）或数字给出的学分 / 分数
type Decimal float64

// UnmarshalJSON 兼容数字、数字字符串、空串与 null
func (d *Decimal) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*d = Decimal(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*d = 0
		return nil
	}
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		*d = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*d = 0
		return nil
	}
	*d = Decimal(f)
	return nil
}

// Scorecard 学业成绩单（学校权威的培养方案树）
type Scorecard struct {
	Description string          `json:"description,omitempty"`
	Items       []ScorecardItem `json:"items"`
}

// ScorecardItem 成绩单节点
// IsTitle=true 为类别节点，汇总子孙学分 / 成绩；其余为课程叶子
type ScorecardItem struct {
	ID           string          `json:"id,omitempty"`
	Description  string          `json:"description,omitempty"`
	ShortName    string          `json:"shortName,omitempty"`
	IsTitle      bool            `json:"isTitle"`
	SumOfCredits Decimal         `json:"sumOfCredits"`
	MinCredits   Decimal         `json:"minCredits"`
	MaxCredits   Decimal         `json:"maxCredits"`
	Mark         string          `json:"mark,omitempty"`
	GradeText    string          `json:"gradeText,omitempty"`
	Semester     string          `json:"semester,omitempty"`
	CourseNumber string          `json:"courseNumber,omitempty"`
	Items        []ScorecardItem `json:"items,omitempty"`

	// 以下字段由合并与汇总写入
	IsWishlist     bool     `json:"isWishlist,omitempty"`
	Type           string   `json:"type,omitempty"`
	BigType        string   `json:"bigType,omitempty"`
	EarnedCredits  float64  `json:"earnedCredits,omitempty"`
	PlannedCredits float64  `json:"plannedCredits,omitempty"`
	AverageGrade   *float64 `json:"averageGrade,omitempty"`
}

// Clone 递归深拷贝
func (s Scorecard) Clone() Scorecard {
	out := s
	out.Items = cloneItems(s.Items)
	return out
}

// Clone 递归深拷贝
func (i ScorecardItem) Clone() ScorecardItem {
	out := i
	if i.AverageGrade != nil {
		v := *i.AverageGrade
		out.AverageGrade = &v
	}
	out.Items = cloneItems(i.Items)
	return out
}

func cloneItems(items []ScorecardItem) []ScorecardItem {
	if items == nil {
		return nil
	}
	out := make([]ScorecardItem, len(items))
	for idx, it := range items {
		out[idx] = it.Clone()
	}
	return out
}

// NumericMark 解析数值成绩（瑞士 1-6 分制），非数值成绩返回 false
func (i ScorecardItem) NumericMark() (float64, bool) {
	m := strings.TrimSpace(strings.ReplaceAll(i.Mark, ",", "."))
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return f, true
}

// ── 练习组学分归一化接口实现（使用 sumOfCredits）──

func (i ScorecardItem) ECTSName() string {
	if i.Description != "" {
		return i.Description
	}
	return i.ShortName
}

func (i ScorecardItem) ECTSCourseNumber() string { return i.CourseNumber }

func (i ScorecardItem) ECTSCredits() int {
	return int(math.Round(float64(i.SumOfCredits) * 100))
}

func (i ScorecardItem) WithECTSCredits(credits int) ScorecardItem {
	out := i.Clone()
	out.SumOfCredits = Decimal(float64(credits) / 100)
	return out
}
