package service

import (
	"regexp"
	"strconv"
	"strings"
)

// ════════════════════════════════════════════════════════════
// 练习组学分归一化
// 同一课程族内的练习 / 辅导 / 案例研讨小组与主课程同时存在时，
// 小组学分记 0，避免 ECTS 重复计算
// ════════════════════════════════════════════════════════════

// ECTSItem 可参与学分归一化的记录（课程、心愿单条目、成绩单叶子）
// 学分统一以 ECTS×100 的整数表示
type ECTSItem[T any] interface {
	ECTSName() string
	ECTSCourseNumber() string
	ECTSCredits() int
	Clone() T
	WithECTSCredits(credits int) T
}

// groupTail 可选的组号尾巴：", Group 2" / " Gruppe 3" / " 1"
const groupTail = `(?:\s*[,:\-–]?\s*(?:gruppe|group)?\s*\d+[a-z]?)?`

var (
	exerciseSuffix  = regexp.MustCompile(`(?i)(?:^|[\s:,\-–(])\s*(?:übungsgruppen?|übungen|übung|exercise\s*groups?|exercises?)` + groupTail + `\s*\)?\s*$`)
	caseStudySuffix = regexp.MustCompile(`(?i):\s*(?:case\s*stud(?:y|ies)|fallstudien?)` + groupTail + `\s*$`)
	coachingSuffix  = regexp.MustCompile(`(?i):\s*coaching` + groupTail + `\s*$`)
	groupOnlySuffix = regexp.MustCompile(`(?i)[\s,:\-–]+(?:gruppe|group)\s*\d+[a-z]?\s*$`)
	trailingNoise   = regexp.MustCompile(`[\s\d.,:;\-–]+$`)

	courseNumberPattern = regexp.MustCompile(`^\s*([^,\s]+)\s*,\s*([^,\s]+)\s*,\s*(\d+)\.(\d+)\s*$`)

	suffixPatterns = []*regexp.Regexp{exerciseSuffix, caseStudySuffix, coachingSuffix}
)

// IsExerciseGroup 名称是否为练习 / 辅导 / 案例研讨小组
// 只识别带分隔标记的后缀，"Psychologie: Coaching und Gesprächsführung" 不算
func IsExerciseGroup(name string) bool {
	for _, re := range suffixPatterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// ExtractBaseName 去掉练习组后缀与尾部编号 / 标点，得到主课程名
func ExtractBaseName(name string) string {
	cut := len(name)
	for _, re := range suffixPatterns {
		if loc := re.FindStringIndex(name); loc != nil && loc[0] < cut {
			cut = loc[0]
		}
	}
	base := name[:cut]
	if loc := groupOnlySuffix.FindStringIndex(base); loc != nil {
		base = base[:loc[0]]
	}
	base = trailingNoise.ReplaceAllString(base, "")
	return strings.TrimSpace(base)
}

// CourseNumber 结构化课程编号 "<faculty>,<family>,<version>.<sub>"
type CourseNumber struct {
	Faculty string
	Family  string
	Version int
	Sub     string
}

// RootKey 课程族键 "<faculty>,<family>"
func (n CourseNumber) RootKey() string {
	return n.Faculty + "," + n.Family
}

// ParseCourseNumber 解析课程编号，格式不符返回 false
func ParseCourseNumber(raw string) (CourseNumber, bool) {
	m := courseNumberPattern.FindStringSubmatch(raw)
	if m == nil {
		return CourseNumber{}, false
	}
	version, err := strconv.Atoi(m[3])
	if err != nil {
		return CourseNumber{}, false
	}
	return CourseNumber{Faculty: m[1], Family: m[2], Version: version, Sub: m[4]}, true
}

// CourseRootKey 分组键：优先课程编号，其次清洗后的课程名
func CourseRootKey(name, courseNumber string) string {
	if n, ok := ParseCourseNumber(courseNumber); ok {
		return "num:" + n.RootKey()
	}
	base := strings.ToLower(ExtractBaseName(name))
	if base == "" {
		return ""
	}
	return "name:" + base
}

// IsLikelySubgroupByNumber 版本号 2.x / 3.x 且同族存在 1.x 时视为小组
func IsLikelySubgroupByNumber(courseNumber string, siblings []string) bool {
	n, ok := ParseCourseNumber(courseNumber)
	if !ok || (n.Version != 2 && n.Version != 3) {
		return false
	}
	for _, s := range siblings {
		sib, ok := ParseCourseNumber(s)
		if ok && sib.RootKey() == n.RootKey() && sib.Version == 1 {
			return true
		}
	}
	return false
}

// ProcessExerciseGroupECTS 返回新切片：组内存在主课程时练习组学分置 0，其余原样复制
// nil 输入返回 nil
func ProcessExerciseGroupECTS[T ECTSItem[T]](items []T) []T {
	if items == nil {
		return nil
	}

	groups := make(map[string][]int)
	for i, it := range items {
		key := CourseRootKey(it.ECTSName(), it.ECTSCourseNumber())
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], i)
	}

	zero := make(map[int]bool)
	for _, idxs := range groups {
		if len(idxs) < 2 {
			continue
		}
		numbers := make([]string, len(idxs))
		for j, i := range idxs {
			numbers[j] = items[i].ECTSCourseNumber()
		}

		exercise := make(map[int]bool, len(idxs))
		hasMain := false
		for _, i := range idxs {
			it := items[i]
			if IsExerciseGroup(it.ECTSName()) || IsLikelySubgroupByNumber(it.ECTSCourseNumber(), numbers) {
				exercise[i] = true
			} else {
				hasMain = true
			}
		}
		if !hasMain {
			continue
		}
		for i := range exercise {
			zero[i] = true
		}
	}

	out := make([]T, len(items))
	for i, it := range items {
		if zero[i] {
			out[i] = it.WithECTSCredits(0)
		} else {
			out[i] = it.Clone()
		}
	}
	return out
}

// CalculateSmartSemesterCredits 归一化后的学期总学分（展示单位）
func CalculateSmartSemesterCredits[T ECTSItem[T]](items []T) float64 {
	total := 0
	for _, it := range ProcessExerciseGroupECTS(items) {
		total += it.ECTSCredits()
	}
	return float64(total) / 100
}
