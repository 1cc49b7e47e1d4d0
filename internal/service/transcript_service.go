package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/studentenschaft/Biddit2-sub002/internal/client"
	"github.com/studentenschaft/Biddit2-sub002/internal/dto"
	"github.com/studentenschaft/Biddit2-sub002/internal/model"
	"github.com/studentenschaft/Biddit2-sub002/internal/repository"
)

// TranscriptService 成绩单与心愿单合并视图
type TranscriptService interface {
	GetTranscript(ctx context.Context, caller Caller) (*dto.TranscriptResponse, error)
}

type transcriptService struct {
	repo     *repository.Repository
	api      client.CourseAPI
	source   *courseSource
	upstream *Upstream
	logger   *zap.Logger
	now      func() time.Time
}

// NewTranscriptService 创建 TranscriptService 实例
func NewTranscriptService(
	repo *repository.Repository,
	api client.CourseAPI,
	source *courseSource,
	upstream *Upstream,
	logger *zap.Logger,
) TranscriptService {
	return &transcriptService{
		repo:     repo,
		api:      api,
		source:   source,
		upstream: upstream,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *transcriptService) GetTranscript(ctx context.Context, caller Caller) (*dto.TranscriptResponse, error) {
	token, err := s.upstream.Token(ctx, caller)
	if err != nil {
		return nil, err
	}

	// 1. 全部已选课程（本地，失败即失败）
	selections, err := s.repo.Selection.ListByUser(ctx, caller.UserID)
	if err != nil {
		s.logger.Error("查询已选课程失败", zap.String("user_id", caller.UserID), zap.Error(err))
		return nil, err
	}

	current := currentTerm(ctx, s.repo, s.now())
	var warnings []string

	// 2. 成绩单（上游失败时以空树继续）
	scorecard := model.Scorecard{Items: []model.ScorecardItem{}}
	sc, err := s.api.GetScorecard(ctx, token)
	s.upstream.Observe(ctx, caller, "course_api.get_scorecard", err)
	if err != nil {
		warnings = append(warnings, WarnScorecardUnavailable)
	} else if sc != nil {
		scorecard = *sc
	}

	// 3. 当前学期已注册的课程不再算作心愿单
	var enrolled map[string]bool
	if sem, err := resolveSemester(ctx, s.repo, current.ShortName()); err == nil && !sem.IsProjected {
		courses, err := s.source.Enrolled(ctx, caller, token, sem.CisID)
		if err != nil {
			warnings = append(warnings, WarnEnrolledUnavailable)
		}
		enrolled = identifierSet(courses)
	}

	wishlist := BuildWishlist(selections, current, enrolled)
	merged := AggregateScorecard(MergeWishlist(scorecard, wishlist, current))

	return &dto.TranscriptResponse{
		CurrentSemester: current.ShortName(),
		Scorecard:       merged,
		Wishlist:        wishlist,
		PlannedCredits:  CalculateSmartSemesterCredits(activeWishlist(wishlist, current)),
		Warnings:        warnings,
	}, nil
}

// BuildWishlist 由已选记录构造心愿单
// 按学期分组规范化练习组学分；当前学期中已注册的课程被剔除
func BuildWishlist(selections []model.SelectedCourse, current Term, enrolled map[string]bool) []model.WishlistCourse {
	var order []string
	bySemester := make(map[string][]model.WishlistCourse)
	for _, sel := range selections {
		semester := CanonicalTermName(sel.Semester)
		if semester == current.ShortName() && containsAny(enrolled, sel.Identifiers()) {
			continue
		}
		if _, ok := bySemester[semester]; !ok {
			order = append(order, semester)
		}
		bySemester[semester] = append(bySemester[semester], model.WishlistCourse{
			Name:           sel.Name,
			Credits:        sel.Credits,
			Type:           sel.Classification + model.WishlistSuffix,
			BigType:        sel.Classification,
			Classification: sel.Classification,
			CourseNumber:   sel.CourseNumber,
			Semester:       semester,
		})
	}

	out := make([]model.WishlistCourse, 0, len(selections))
	for _, semester := range order {
		out = append(out, ProcessExerciseGroupECTS(bySemester[semester])...)
	}
	return out
}
