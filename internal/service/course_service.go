package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/studentenschaft/Biddit2-sub002/internal/client"
	"github.com/studentenschaft/Biddit2-sub002/internal/dto"
	"github.com/studentenschaft/Biddit2-sub002/internal/model"
	"github.com/studentenschaft/Biddit2-sub002/internal/repository"
)

// 降级提示
const (
	WarnCatalogUnavailable   = "课程目录暂不可用"
	WarnEnrolledUnavailable  = "已注册课程暂不可用"
	WarnRatingsUnavailable   = "课程评分暂不可用"
	WarnReferenceMissing     = "预估学期的参考学期不存在"
	WarnScorecardUnavailable = "成绩单暂不可用"
)

// CourseService 学期课程状态
type CourseService interface {
	GetSemesterState(ctx context.Context, caller Caller, semester string, filter dto.CourseFilter) (*dto.SemesterStateResponse, error)
}

type courseService struct {
	repo      *repository.Repository
	source    *courseSource
	studyPlan client.StudyPlanAPI
	upstream  *Upstream
	logger    *zap.Logger
}

// NewCourseService 创建 CourseService 实例
func NewCourseService(
	repo *repository.Repository,
	source *courseSource,
	studyPlan client.StudyPlanAPI,
	upstream *Upstream,
	logger *zap.Logger,
) CourseService {
	return &courseService{
		repo:      repo,
		source:    source,
		studyPlan: studyPlan,
		upstream:  upstream,
		logger:    logger,
	}
}

func (s *courseService) GetSemesterState(ctx context.Context, caller Caller, name string, filter dto.CourseFilter) (*dto.SemesterStateResponse, error) {
	semester, err := resolveSemester(ctx, s.repo, name)
	if err != nil {
		return nil, err
	}

	token, err := s.upstream.Token(ctx, caller)
	if err != nil {
		return nil, err
	}

	var warnings []string

	// 预估学期借用参考学期的目录，且没有注册记录
	catalogCisID := semester.CisID
	if semester.IsProjected {
		catalogCisID = ""
		ref, err := resolveSemester(ctx, s.repo, semester.CatalogSemester())
		if err != nil {
			warnings = append(warnings, WarnReferenceMissing)
		} else {
			catalogCisID = ref.CisID
		}
	}

	var (
		catalog    []model.Course
		fetchedAt  time.Time
		enrolled   []model.Course
		ratings    []client.CourseRating
		selections []model.SelectedCourse
		catalogErr error
		enrollErr  error
		ratingErr  error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		catalog, fetchedAt, catalogErr = s.source.Catalog(gctx, caller, token, catalogCisID)
		return nil
	})
	if !semester.IsProjected {
		g.Go(func() error {
			enrolled, enrollErr = s.source.Enrolled(gctx, caller, token, semester.CisID)
			return nil
		})
	}
	g.Go(func() error {
		ratings, ratingErr = s.studyPlan.GetRatings(gctx, token)
		s.upstream.Observe(gctx, caller, "study_plan_api.get_ratings", ratingErr)
		return nil
	})
	g.Go(func() error {
		var err error
		selections, err = s.repo.Selection.ListByUserAndSemester(gctx, caller.UserID, semester.ShortName)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("查询已选课程失败", zap.String("user_id", caller.UserID), zap.Error(err))
		return nil, err
	}

	if catalogErr != nil {
		warnings = append(warnings, WarnCatalogUnavailable)
	}
	if enrollErr != nil {
		warnings = append(warnings, WarnEnrolledUnavailable)
	}
	if ratingErr != nil {
		warnings = append(warnings, WarnRatingsUnavailable)
	}

	ratingMap := ratingsByCourse(ratings)
	available := enrichRatings(ProcessExerciseGroupECTS(catalog), ratingMap)
	enrolled = enrichRatings(ProcessExerciseGroupECTS(enrolled), ratingMap)

	selected, synthesized, selectedIDs := resolveSelections(selections, available, enrolled, semester.ShortName)
	selectedSet := make(map[string]bool)
	for _, c := range selected {
		for _, id := range c.Identifiers() {
			selectedSet[id] = true
		}
	}

	pool := make([]model.Course, 0, len(available)+len(synthesized))
	pool = append(pool, available...)
	pool = append(pool, synthesized...)

	counted := make([]model.Course, 0, len(enrolled)+len(selected))
	counted = append(counted, enrolled...)
	counted = append(counted, selected...)

	resp := &dto.SemesterStateResponse{
		Semester:          semester.ShortName,
		Available:         available,
		Enrolled:          enrolled,
		Selected:          selected,
		Filtered:          FilterCourses(pool, filter, selectedSet),
		Ratings:           ratingMap,
		SelectedIDs:       selectedIDs,
		CisID:             catalogCisID,
		IsProjected:       semester.IsProjected,
		ReferenceSemester: semester.ReferenceSemester,
		Credits:           CalculateSmartSemesterCredits(counted),
		Warnings:          warnings,
	}
	if !fetchedAt.IsZero() {
		resp.LastFetched = fetchedAt.Format(time.RFC3339)
	}
	return resp, nil
}

// ── 内部辅助方法 ──

func ratingsByCourse(ratings []client.CourseRating) map[string]float64 {
	out := make(map[string]float64, len(ratings))
	for _, r := range ratings {
		if r.CourseNumber != "" {
			out[r.CourseNumber] = r.AvgRating
		}
	}
	return out
}

// enrichRatings 为课程填充平均评分，返回副本
func enrichRatings(courses []model.Course, ratings map[string]float64) []model.Course {
	out := make([]model.Course, len(courses))
	for i, c := range courses {
		out[i] = c.Clone()
		for _, id := range c.Identifiers() {
			if avg, ok := ratings[id]; ok {
				v := avg
				out[i].AvgRating = &v
				break
			}
		}
	}
	return out
}

// resolveSelections 把已选记录还原为课程
// 已注册的课程不计入已选；目录中找不到的从快照合成（synthesized 同时出现在 selected 中）
func resolveSelections(selections []model.SelectedCourse, available, enrolled []model.Course, semester string) (selected, synthesized []model.Course, ids []string) {
	enrolledSet := identifierSet(enrolled)

	byID := make(map[string]int, len(available))
	for i, c := range available {
		for _, id := range c.Identifiers() {
			if _, ok := byID[id]; !ok {
				byID[id] = i
			}
		}
	}

	ids = make([]string, 0, len(selections))
	seen := make(map[int]bool)
	for _, sel := range selections {
		if containsAny(enrolledSet, sel.Identifiers()) {
			continue
		}
		ids = append(ids, sel.CourseNumber)

		idx, found := -1, false
		for _, id := range sel.Identifiers() {
			if i, ok := byID[id]; ok {
				idx, found = i, true
				break
			}
		}
		if found {
			if seen[idx] {
				continue
			}
			seen[idx] = true
			c := available[idx].Clone()
			c.Semester = semester
			selected = append(selected, c)
			continue
		}

		c := sel.SnapshotCourse()
		if c.Semester == "" {
			c.Semester = semester
		}
		selected = append(selected, c)
		synthesized = append(synthesized, c)
	}
	return selected, synthesized, ids
}
