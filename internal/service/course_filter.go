package service

import (
	"math"
	"sort"
	"strings"

	"github.com/studentenschaft/Biddit2-sub002/internal/dto"
	"github.com/studentenschaft/Biddit2-sub002/internal/model"
)

// FilterCourses 按筛选条件派生展示列表
// 保持输入顺序，已选课程稳定地排到最前；不修改输入
func FilterCourses(courses []model.Course, filter dto.CourseFilter, selected map[string]bool) []model.Course {
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	out := make([]model.Course, 0, len(courses))
	for _, c := range courses {
		isSelected := containsAny(selected, c.Identifiers())
		if filter.SelectedOnly && !isSelected {
			continue
		}
		if filter.Classification != "" && !strings.EqualFold(c.Classification, filter.Classification) {
			continue
		}
		if filter.Language != "" && !strings.EqualFold(string(c.CourseLanguage), filter.Language) {
			continue
		}
		if filter.ECTS != nil && math.Abs(float64(c.ECTSCredits())/100-*filter.ECTS) > 0.001 {
			continue
		}
		if filter.MinRating != nil && (c.AvgRating == nil || *c.AvgRating < *filter.MinRating) {
			continue
		}
		if search != "" && !matchesSearch(c, search) {
			continue
		}
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return containsAny(selected, out[i].Identifiers()) && !containsAny(selected, out[j].Identifiers())
	})
	return out
}

func matchesSearch(c model.Course, term string) bool {
	fields := []string{c.ShortName, c.Name, c.CourseNumber}
	fields = append(fields, c.LecturerNames()...)
	for _, f := range fields {
		if f != "" && strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}
