package service

import (
	"encoding/json"
	"testing"

	"github.com/studentenschaft/Biddit2-sub002/internal/model"
)

func sampleScorecard() model.Scorecard {
	return model.Scorecard{Items: []model.ScorecardItem{
		{
			Description: "Core Courses", ShortName: "Core Courses", IsTitle: true,
			SumOfCredits: 8, MinCredits: 30, MaxCredits: 30,
			Items: []model.ScorecardItem{
				{ShortName: "Finance", SumOfCredits: 4, Mark: "5.5", Semester: "HS23"},
				{ShortName: "Law", SumOfCredits: 4, Mark: "4.5", Semester: "FS24"},
			},
		},
		{
			Description: "Electives", IsTitle: true, MinCredits: 12,
			Items: []model.ScorecardItem{
				{
					Description: "Contextual Studies", IsTitle: true,
					Items: []model.ScorecardItem{
						{ShortName: "Philosophy", SumOfCredits: 2, Mark: "bestanden"},
					},
				},
			},
		},
	}}
}

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("序列化失败: %v", err)
	}
	return string(raw)
}

var hs24 = Term{Year: 2024, Season: Fall}

func TestMergeWishlist_AppendsUnderMatchingCategory(t *testing.T) {
	wishlist := []model.WishlistCourse{
		{Name: "Strategy", Credits: 4, Classification: "Core Course", Type: "Core Course-wishlist", CourseNumber: "3,135,1.00", Semester: "HS24"},
	}

	out := AggregateScorecard(MergeWishlist(sampleScorecard(), wishlist, hs24))

	core := out.Items[0]
	if len(core.Items) != 3 {
		t.Fatalf("期望核心课分类下 3 个叶子，实际 %d", len(core.Items))
	}
	leaf := core.Items[2]
	if !leaf.IsWishlist || leaf.ShortName != "Strategy" {
		t.Errorf("心愿单叶子错误: %+v", leaf)
	}
	if float64(leaf.SumOfCredits) != 4 || leaf.MinCredits != 0 || leaf.MaxCredits != 0 {
		t.Errorf("心愿单叶子学分字段错误: %+v", leaf)
	}
	if core.PlannedCredits != 4 {
		t.Errorf("期望 planned=4，实际 %v", core.PlannedCredits)
	}
	if core.EarnedCredits != 8 {
		t.Errorf("期望 earned=8，实际 %v", core.EarnedCredits)
	}
	if float64(core.SumOfCredits) != 8 || float64(core.MinCredits) != 30 {
		t.Error("学校给出的汇总字段不应被修改")
	}
	if core.AverageGrade == nil || *core.AverageGrade != 5.0 {
		t.Errorf("期望平均分 5.0，实际 %v", core.AverageGrade)
	}
}

func TestMergeWishlist_NestedCategoryMatch(t *testing.T) {
	wishlist := []model.WishlistCourse{
		{Name: "Ethics", Credits: 3, Classification: "contextual studies", Semester: "FS25"},
	}
	out := AggregateScorecard(MergeWishlist(sampleScorecard(), wishlist, hs24))

	electives := out.Items[1]
	contextual := electives.Items[0]
	if len(contextual.Items) != 2 || !contextual.Items[1].IsWishlist {
		t.Fatalf("期望挂到嵌套分类下: %+v", contextual.Items)
	}
	if electives.PlannedCredits != 3 {
		t.Errorf("上级分类 planned 应汇总子分类，实际 %v", electives.PlannedCredits)
	}
	if contextual.AverageGrade != nil {
		t.Error("没有数值成绩时平均分应为空")
	}
	if contextual.EarnedCredits != 2 {
		t.Errorf("通过制课程学分应计入 earned，实际 %v", contextual.EarnedCredits)
	}
}

func TestMergeWishlist_UnmatchedDropped(t *testing.T) {
	wishlist := []model.WishlistCourse{
		{Name: "Orphan", Credits: 3, Classification: "Does Not Exist", Semester: "HS24"},
	}
	out := MergeWishlist(sampleScorecard(), wishlist, hs24)
	plain := MergeWishlist(sampleScorecard(), nil, hs24)
	if mustJSON(t, out) != mustJSON(t, plain) {
		t.Error("无匹配分类的条目应被丢弃")
	}
}

func TestMergeWishlist_PastSemesterSuppressed(t *testing.T) {
	wishlist := []model.WishlistCourse{
		{Name: "Old Plan", Credits: 4, Classification: "Core Courses", Semester: "FS24"},
		{Name: "Same Term", Credits: 4, Classification: "Core Courses", Semester: "HS24"},
	}
	out := MergeWishlist(sampleScorecard(), wishlist, hs24)
	core := out.Items[0]
	if len(core.Items) != 3 {
		t.Fatalf("期望仅追加当前学期条目，实际 %d 个叶子", len(core.Items))
	}
	if core.Items[2].ShortName != "Same Term" {
		t.Errorf("追加的条目错误: %s", core.Items[2].ShortName)
	}
}

func TestMergeWishlist_DoesNotMutateBase(t *testing.T) {
	base := sampleScorecard()
	before := mustJSON(t, base)

	wishlist := []model.WishlistCourse{{Name: "Strategy", Credits: 4, Classification: "Core Courses", Semester: "HS24"}}
	_ = MergeWishlist(base, wishlist, hs24)

	if mustJSON(t, base) != before {
		t.Error("输入成绩单不应被修改")
	}
}

func TestMergeWishlist_Idempotent(t *testing.T) {
	wishlist := []model.WishlistCourse{
		{Name: "Strategy", Credits: 4, Classification: "Core Courses", Semester: "HS24", CourseNumber: "3,135,1.00"},
		{Name: "Ethics", Credits: 3, Classification: "Contextual Studies", Semester: "FS25"},
	}
	base := sampleScorecard()

	first := MergeWishlist(base.Clone(), wishlist, hs24)
	second := MergeWishlist(base.Clone(), wishlist, hs24)
	if mustJSON(t, first) != mustJSON(t, second) {
		t.Error("两次独立合并结果应完全一致")
	}
}

func TestMergeWishlist_EmptyIsNoOp(t *testing.T) {
	want := mustJSON(t, sampleScorecard())

	if got := mustJSON(t, MergeWishlist(sampleScorecard(), nil, hs24)); got != want {
		t.Errorf("nil 心愿单合并应返回等价的树\n期望 %s\n实际 %s", want, got)
	}
	if got := mustJSON(t, MergeWishlist(sampleScorecard(), []model.WishlistCourse{}, hs24)); got != want {
		t.Errorf("空心愿单合并应返回等价的树\n期望 %s\n实际 %s", want, got)
	}
}

func TestMergeWishlist_OnlyPastEntriesIsNoOp(t *testing.T) {
	wishlist := []model.WishlistCourse{{Name: "Old Plan", Credits: 4, Classification: "Core Courses", Semester: "FS24"}}
	if mustJSON(t, MergeWishlist(sampleScorecard(), wishlist, hs24)) != mustJSON(t, sampleScorecard()) {
		t.Error("全部条目已过期时合并结果应与输入等价")
	}
}

func TestAggregateScorecard_DoesNotMutateInput(t *testing.T) {
	base := sampleScorecard()
	before := mustJSON(t, base)

	out := AggregateScorecard(base)
	if mustJSON(t, base) != before {
		t.Error("汇总不应修改输入")
	}
	if out.Items[0].EarnedCredits != 8 {
		t.Errorf("期望 earned=8，实际 %v", out.Items[0].EarnedCredits)
	}
	if again := AggregateScorecard(out); mustJSON(t, again) != mustJSON(t, out) {
		t.Error("重复汇总结果应一致")
	}
}

func TestMergeWishlist_DuplicateEntriesOnce(t *testing.T) {
	w := model.WishlistCourse{Name: "Strategy", Credits: 4, Classification: "Core Courses", Semester: "HS24", CourseNumber: "3,135,1.00"}
	out := MergeWishlist(sampleScorecard(), []model.WishlistCourse{w, w}, hs24)
	if n := len(out.Items[0].Items); n != 3 {
		t.Errorf("重复条目只应追加一次，实际叶子数 %d", n)
	}
}

func TestMergeWishlist_ClassificationFromType(t *testing.T) {
	w := model.WishlistCourse{Name: "Strategy", Credits: 4, Type: "Core Courses" + model.WishlistSuffix, Semester: "HS24"}
	out := MergeWishlist(sampleScorecard(), []model.WishlistCourse{w}, hs24)
	if n := len(out.Items[0].Items); n != 3 {
		t.Errorf("应从 type 推导分类，实际叶子数 %d", n)
	}
}
