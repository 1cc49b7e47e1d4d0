package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/studentenschaft/Biddit2-sub002/config"
	"github.com/studentenschaft/Biddit2-sub002/internal/model"
)

// Profile 身份提供方确认的学生信息
type Profile struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// DisplayName 展示姓名
func (p Profile) DisplayName() string {
	switch {
	case p.FirstName != "" && p.LastName != "":
		return p.FirstName + " " + p.LastName
	case p.FirstName != "":
		return p.FirstName
	default:
		return p.LastName
	}
}

// CourseAPI 学校课程 API（只读）
type CourseAPI interface {
	ListCourses(ctx context.Context, token, cisID string) ([]model.Course, error)
	ListMyCourses(ctx context.Context, token, cisID string) ([]model.Course, error)
	GetScorecard(ctx context.Context, token string) (*model.Scorecard, error)
	GetProfile(ctx context.Context, token string) (*Profile, error)
}

type courseAPI struct {
	doer httpDoer
}

// NewCourseAPI 创建课程 API 客户端；hc 为 nil 时按配置超时新建
func NewCourseAPI(cfg *config.APIEndpointConfig, hc *http.Client) CourseAPI {
	return &courseAPI{doer: newDoer(cfg.BaseURL, cfg.Timeout, hc)}
}

func (a *courseAPI) ListCourses(ctx context.Context, token, cisID string) ([]model.Course, error) {
	var courses []model.Course
	path := "/EventApi/CourseInformationSheets/myLatestPublishedPossiblebyTerm/" + url.PathEscape(cisID)
	if err := a.doer.do(ctx, http.MethodGet, path, token, nil, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

func (a *courseAPI) ListMyCourses(ctx context.Context, token, cisID string) ([]model.Course, error) {
	var courses []model.Course
	path := "/EventApi/MyCourses/byTerm/" + url.PathEscape(cisID)
	if err := a.doer.do(ctx, http.MethodGet, path, token, nil, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

func (a *courseAPI) GetScorecard(ctx context.Context, token string) (*model.Scorecard, error) {
	var sc model.Scorecard
	if err := a.doer.do(ctx, http.MethodGet, "/AchievementApi/MyScorecard", token, nil, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (a *courseAPI) GetProfile(ctx context.Context, token string) (*Profile, error) {
	var p Profile
	if err := a.doer.do(ctx, http.MethodGet, "/StudyApi/MyPersonalInformation", token, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
