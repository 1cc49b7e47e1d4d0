package service

import (
	"math"
	"strings"

	"github.com/studentenschaft/Biddit2-sub002/internal/model"
)

// ════════════════════════════════════════════════════════════
// 成绩单与心愿单合并
// 合并与汇总分两步：MergeWishlist 只在深拷贝上追加心愿单叶子，
// AggregateScorecard 自底向上重算 earned_credits / planned_credits / average_grade。
// 学校给出的 sumOfCredits / minCredits / maxCredits 不做改动
// ════════════════════════════════════════════════════════════

// MergeWishlist 将心愿单条目挂到分类名与其 classification 匹配的每个分类节点下
// 早于 current 的学期条目被忽略；无匹配分类的条目被丢弃
func MergeWishlist(base model.Scorecard, wishlist []model.WishlistCourse, current Term) model.Scorecard {
	out := base.Clone()

	entries := activeWishlist(wishlist, current)
	for _, w := range entries {
		class := wishlistClassification(w)
		if class == "" {
			continue
		}
		out.Items = appendToMatching(out.Items, class, w)
	}
	return out
}

// AggregateScorecard 返回重算过分类汇总字段的深拷贝
func AggregateScorecard(sc model.Scorecard) model.Scorecard {
	out := sc.Clone()
	for i := range out.Items {
		aggregate(&out.Items[i])
	}
	return out
}

// activeWishlist 去掉过期学期条目，并按 (学期, 课程) 去重
func activeWishlist(wishlist []model.WishlistCourse, current Term) []model.WishlistCourse {
	seen := make(map[string]bool, len(wishlist))
	out := make([]model.WishlistCourse, 0, len(wishlist))
	for _, w := range wishlist {
		if t, err := ParseTerm(w.Semester); err == nil && t.Before(current) {
			continue
		}
		key := CanonicalTermName(w.Semester) + "|" + w.CourseNumber
		if w.CourseNumber == "" {
			key += "|" + strings.ToLower(w.Name)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, w)
	}
	return out
}

func wishlistClassification(w model.WishlistCourse) string {
	if w.Classification != "" {
		return w.Classification
	}
	return strings.TrimSuffix(w.Type, model.WishlistSuffix)
}

func appendToMatching(items []model.ScorecardItem, class string, w model.WishlistCourse) []model.ScorecardItem {
	for i := range items {
		if !items[i].IsTitle {
			continue
		}
		items[i].Items = appendToMatching(items[i].Items, class, w)
		if categoryMatches(items[i], class) {
			items[i].Items = append(items[i].Items, wishlistLeaf(w))
		}
	}
	return items
}

// categoryMatches 大小写不敏感，容忍单复数差异
func categoryMatches(item model.ScorecardItem, class string) bool {
	want := normalizeCategory(class)
	for _, name := range []string{item.ShortName, item.Description} {
		if name != "" && normalizeCategory(name) == want {
			return true
		}
	}
	return false
}

func normalizeCategory(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.TrimSuffix(s, "s")
}

func wishlistLeaf(w model.WishlistCourse) model.ScorecardItem {
	return model.ScorecardItem{
		ID:           "wishlist:" + CanonicalTermName(w.Semester) + ":" + w.CourseNumber,
		Description:  w.Name,
		ShortName:    w.Name,
		SumOfCredits: model.Decimal(w.Credits),
		Semester:     w.Semester,
		CourseNumber: w.CourseNumber,
		IsWishlist:   true,
		Type:         w.Type,
		BigType:      w.BigType,
	}
}

// subtotal 子树汇总
type subtotal struct {
	earned      float64
	planned     float64
	gradeSum    float64
	gradeWeight float64
}

// aggregate 自底向上重算分类节点的汇总字段；叶子只参与计算
func aggregate(item *model.ScorecardItem) subtotal {
	if !item.IsTitle {
		return leafSubtotal(*item)
	}

	var total subtotal
	for i := range item.Items {
		sub := aggregate(&item.Items[i])
		total.earned += sub.earned
		total.planned += sub.planned
		total.gradeSum += sub.gradeSum
		total.gradeWeight += sub.gradeWeight
	}

	item.EarnedCredits = round2(total.earned)
	item.PlannedCredits = round2(total.planned)
	item.AverageGrade = nil
	if total.gradeWeight > 0 {
		avg := round2(total.gradeSum / total.gradeWeight)
		item.AverageGrade = &avg
	}
	return total
}

func leafSubtotal(item model.ScorecardItem) subtotal {
	credits := float64(item.SumOfCredits)
	if item.IsWishlist {
		return subtotal{planned: credits}
	}
	s := subtotal{earned: credits}
	if mark, ok := item.NumericMark(); ok && credits > 0 {
		s.gradeSum = mark * credits
		s.gradeWeight = credits
	}
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
