package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/studentenschaft/Biddit2-sub002/config"
)

// StudyPlan 学生会 API 中的学习计划，ID 即学期标识
type StudyPlan struct {
	ID      string   `json:"id"`
	Courses []string `json:"courses"`
}

// CourseRating 课程平均评分
type CourseRating struct {
	CourseNumber string  `json:"courseNumber"`
	AvgRating    float64 `json:"avgRating"`
}

// StudyPlanAPI 学生会 API：学习计划与课程评分
type StudyPlanAPI interface {
	GetStudyPlan(ctx context.Context, token, planID string) (*StudyPlan, error)
	CreateStudyPlan(ctx context.Context, token, planID string) error
	SaveCourse(ctx context.Context, token, planID, courseID string) error
	DeleteCourse(ctx context.Context, token, planID, courseID string) error
	GetRatings(ctx context.Context, token string) ([]CourseRating, error)
	PostRating(ctx context.Context, token, courseNumber string, rating int) error
}

type studyPlanAPI struct {
	doer httpDoer
}

// NewStudyPlanAPI 创建学生会 API 客户端；hc 为 nil 时按配置超时新建
func NewStudyPlanAPI(cfg *config.APIEndpointConfig, hc *http.Client) StudyPlanAPI {
	return &studyPlanAPI{doer: newDoer(cfg.BaseURL, cfg.Timeout, hc)}
}

func planPath(planID string) string {
	return "/study-plans/" + url.PathEscape(planID)
}

// GetStudyPlan 计划不存在时返回 ErrNotFound
func (a *studyPlanAPI) GetStudyPlan(ctx context.Context, token, planID string) (*StudyPlan, error) {
	var plan StudyPlan
	if err := a.doer.do(ctx, http.MethodGet, planPath(planID), token, nil, &plan); err != nil {
		return nil, err
	}
	if plan.ID == "" {
		plan.ID = planID
	}
	return &plan, nil
}

func (a *studyPlanAPI) CreateStudyPlan(ctx context.Context, token, planID string) error {
	body := map[string]interface{}{"id": planID, "courses": []string{}}
	return a.doer.do(ctx, http.MethodPost, "/study-plans", token, body, nil)
}

func (a *studyPlanAPI) SaveCourse(ctx context.Context, token, planID, courseID string) error {
	return a.doer.do(ctx, http.MethodPut, planPath(planID)+"/"+url.PathEscape(courseID), token, nil, nil)
}

func (a *studyPlanAPI) DeleteCourse(ctx context.Context, token, planID, courseID string) error {
	return a.doer.do(ctx, http.MethodDelete, planPath(planID)+"/"+url.PathEscape(courseID), token, nil, nil)
}

func (a *studyPlanAPI) GetRatings(ctx context.Context, token string) ([]CourseRating, error) {
	var ratings []CourseRating
	if err := a.doer.do(ctx, http.MethodGet, "/course-ratings", token, nil, &ratings); err != nil {
		return nil, err
	}
	return ratings, nil
}

func (a *studyPlanAPI) PostRating(ctx context.Context, token, courseNumber string, rating int) error {
	body := map[string]interface{}{"courseNumber": courseNumber, "rating": rating}
	return a.doer.do(ctx, http.MethodPost, "/course-ratings", token, body, nil)
}
