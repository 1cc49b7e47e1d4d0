package model

import "math"

// WishlistSuffix 心愿单条目类型后缀
const WishlistSuffix = "-wishlist"

// WishlistCourse 已选未修课程，合并进成绩单或学期列表时使用
// Credits 为展示单位（4.00 而非 400）
type WishlistCourse struct {
	Name           string  `json:"name"`
	Credits        float64 `json:"credits"`
	Type           string  `json:"type"`     // classification + "-wishlist"
	BigType        string  `json:"big_type"` // 大类
	Classification string  `json:"classification"`
	CourseNumber   string  `json:"course_number"`
	Semester       string  `json:"semester"`
}

func (w WishlistCourse) ECTSName() string         { return w.Name }
func (w WishlistCourse) ECTSCourseNumber() string { return w.CourseNumber }

func (w WishlistCourse) ECTSCredits() int {
	return int(math.Round(w.Credits * 100))
}

func (w WishlistCourse) Clone() WishlistCourse { return w }

func (w WishlistCourse) WithECTSCredits(credits int) WishlistCourse {
	w.Credits = float64(credits) / 100
	return w
}
