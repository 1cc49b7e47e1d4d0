package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/studentenschaft/Biddit2-sub002/internal/client"
	"github.com/studentenschaft/Biddit2-sub002/internal/dto"
)

var ErrRatingRejected = errors.New("评分提交失败")

// RatingService 课程评分（学生会 API）
type RatingService interface {
	ListRatings(ctx context.Context, caller Caller) (*dto.RatingsResponse, error)
	SubmitRating(ctx context.Context, caller Caller, req *dto.SubmitRatingRequest) error
}

type ratingService struct {
	studyPlan client.StudyPlanAPI
	upstream  *Upstream
	logger    *zap.Logger
}

// NewRatingService 创建 RatingService 实例
func NewRatingService(studyPlan client.StudyPlanAPI, upstream *Upstream, logger *zap.Logger) RatingService {
	return &ratingService{studyPlan: studyPlan, upstream: upstream, logger: logger}
}

// ListRatings 上游失败时返回空表并附带提示
func (s *ratingService) ListRatings(ctx context.Context, caller Caller) (*dto.RatingsResponse, error) {
	token, err := s.upstream.Token(ctx, caller)
	if err != nil {
		return nil, err
	}
	ratings, err := s.studyPlan.GetRatings(ctx, token)
	s.upstream.Observe(ctx, caller, "study_plan_api.get_ratings", err)
	if err != nil {
		return &dto.RatingsResponse{Ratings: map[string]float64{}, Warnings: []string{WarnRatingsUnavailable}}, nil
	}
	return &dto.RatingsResponse{Ratings: ratingsByCourse(ratings)}, nil
}

func (s *ratingService) SubmitRating(ctx context.Context, caller Caller, req *dto.SubmitRatingRequest) error {
	token, err := s.upstream.Token(ctx, caller)
	if err != nil {
		return err
	}
	courseNumber := strings.TrimSpace(req.CourseNumber)
	err = s.studyPlan.PostRating(ctx, token, courseNumber, req.Rating)
	s.upstream.Observe(ctx, caller, "study_plan_api.post_rating", err, zap.String("course", courseNumber))
	if err != nil {
		return errors.Join(ErrRatingRejected, err)
	}
	return nil
}
