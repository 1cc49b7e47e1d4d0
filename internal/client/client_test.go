package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/studentenschaft/Biddit2-sub002/config"
	pkgerrors "github.com/studentenschaft/Biddit2-sub002/pkg/errors"
)

// ── 测试辅助 ──

type recordedCall struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]interface{}
}

func newTestServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, *[]recordedCall) {
	t.Helper()
	var calls []recordedCall
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := recordedCall{Method: r.Method, Path: r.URL.Path, Auth: r.Header.Get("Authorization")}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&call.Body)
		}
		calls = append(calls, call)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func endpoint(url string) *config.APIEndpointConfig {
	return &config.APIEndpointConfig{BaseURL: url + "/", Timeout: 5 * time.Second}
}

// ── CourseAPI ──

func TestCourseAPI_ListCourses(t *testing.T) {
	srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id":"legacy-1","courseNumber":"4,120,1.00","shortName":"Finance","credits":400,
			 "courseLanguage":{"code":"EN"},"calendarEntry":[{"eventDate":"2024-09-16T10:00:00","durationInMinutes":90}]},
			{"courseNumber":"4,120,2.01","shortName":"Finance: Exercises, Group 1","credits":null,"courseLanguage":"DE"}
		]`))
	})
	api := NewCourseAPI(endpoint(srv.URL), nil)

	courses, err := api.ListCourses(context.Background(), "tok", "term-1")
	if err != nil {
		t.Fatalf("ListCourses 应成功: %v", err)
	}
	if len(courses) != 2 {
		t.Fatalf("期望 2 门课程，实际 %d", len(courses))
	}
	if courses[0].Credits == nil || *courses[0].Credits != 400 {
		t.Errorf("期望 credits=400，实际 %v", courses[0].Credits)
	}
	if courses[0].CourseLanguage != "EN" || courses[1].CourseLanguage != "DE" {
		t.Errorf("授课语言解析错误: %q %q", courses[0].CourseLanguage, courses[1].CourseLanguage)
	}
	if courses[1].Credits != nil {
		t.Error("null 学分应解析为 nil")
	}
	got := (*calls)[0]
	if got.Path != "/EventApi/CourseInformationSheets/myLatestPublishedPossiblebyTerm/term-1" {
		t.Errorf("请求路径错误: %s", got.Path)
	}
	if got.Auth != "Bearer tok" {
		t.Errorf("Authorization 头错误: %q", got.Auth)
	}
}

func TestCourseAPI_Unauthorized(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	api := NewCourseAPI(endpoint(srv.URL), nil)

	_, err := api.ListMyCourses(context.Background(), "expired", "term-1")
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("期望 ErrUnauthorized，实际: %v", err)
	}
}

func TestCourseAPI_ServerError(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	api := NewCourseAPI(endpoint(srv.URL), nil)

	_, err := api.GetScorecard(context.Background(), "tok")
	if !errors.Is(err, pkgerrors.ErrUpstreamUnavailable) {
		t.Errorf("期望 ErrUpstreamUnavailable，实际: %v", err)
	}
}

func TestCourseAPI_ClientError(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("bad term"))
	})
	api := NewCourseAPI(endpoint(srv.URL), nil)

	_, err := api.ListCourses(context.Background(), "tok", "x")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("期望 *APIError，实际: %v", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Body != "bad term" {
		t.Errorf("APIError 内容错误: %+v", apiErr)
	}
}

func TestCourseAPI_GetScorecard_StringCredits(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[{"description":"Core","isTitle":true,"sumOfCredits":"12.00","items":[
			{"shortName":"Finance","sumOfCredits":"4.00","mark":"5.25"},
			{"shortName":"Law","sumOfCredits":"","mark":""}
		]}]}`))
	})
	api := NewCourseAPI(endpoint(srv.URL), nil)

	sc, err := api.GetScorecard(context.Background(), "tok")
	if err != nil {
		t.Fatalf("GetScorecard 应成功: %v", err)
	}
	core := sc.Items[0]
	if float64(core.SumOfCredits) != 12 {
		t.Errorf("期望 12，实际 %v", core.SumOfCredits)
	}
	if float64(core.Items[0].SumOfCredits) != 4 || float64(core.Items[1].SumOfCredits) != 0 {
		t.Errorf("叶子学分解析错误: %v %v", core.Items[0].SumOfCredits, core.Items[1].SumOfCredits)
	}
}

func TestProfile_DisplayName(t *testing.T) {
	cases := map[string]Profile{
		"Ada Lovelace": {FirstName: "Ada", LastName: "Lovelace"},
		"Ada":          {FirstName: "Ada"},
		"Lovelace":     {LastName: "Lovelace"},
	}
	for want, p := range cases {
		if got := p.DisplayName(); got != want {
			t.Errorf("期望 %q，实际 %q", want, got)
		}
	}
}

// ── StudyPlanAPI ──

func TestStudyPlanAPI_SaveAndDelete(t *testing.T) {
	srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	api := NewStudyPlanAPI(endpoint(srv.URL), nil)
	ctx := context.Background()

	if err := api.SaveCourse(ctx, "tok", "HS24", "4,120,1.00"); err != nil {
		t.Fatalf("SaveCourse 应成功: %v", err)
	}
	if err := api.DeleteCourse(ctx, "tok", "HS24", "4,120,1.00"); err != nil {
		t.Fatalf("DeleteCourse 应成功: %v", err)
	}

	if len(*calls) != 2 {
		t.Fatalf("期望 2 次调用，实际 %d", len(*calls))
	}
	if (*calls)[0].Method != http.MethodPut || (*calls)[1].Method != http.MethodDelete {
		t.Errorf("方法错误: %s %s", (*calls)[0].Method, (*calls)[1].Method)
	}
	if (*calls)[0].Path != "/study-plans/HS24/4,120,1.00" {
		t.Errorf("路径错误: %s", (*calls)[0].Path)
	}
}

func TestStudyPlanAPI_GetStudyPlan_NotFound(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	api := NewStudyPlanAPI(endpoint(srv.URL), nil)

	_, err := api.GetStudyPlan(context.Background(), "tok", "FS25")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("期望 ErrNotFound，实际: %v", err)
	}
}

func TestStudyPlanAPI_GetStudyPlan_FillsID(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"courses":["4,120,1.00","legacy-9"]}`))
	})
	api := NewStudyPlanAPI(endpoint(srv.URL), nil)

	plan, err := api.GetStudyPlan(context.Background(), "tok", "FS25")
	if err != nil {
		t.Fatalf("GetStudyPlan 应成功: %v", err)
	}
	if plan.ID != "FS25" || len(plan.Courses) != 2 {
		t.Errorf("计划内容错误: %+v", plan)
	}
}

func TestStudyPlanAPI_PostRating(t *testing.T) {
	srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	api := NewStudyPlanAPI(endpoint(srv.URL), nil)

	if err := api.PostRating(context.Background(), "tok", "4,120,1.00", 5); err != nil {
		t.Fatalf("PostRating 应成功: %v", err)
	}
	body := (*calls)[0].Body
	if body["courseNumber"] != "4,120,1.00" || body["rating"] != float64(5) {
		t.Errorf("请求体错误: %v", body)
	}
}

func TestStudyPlanAPI_GetRatings(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"courseNumber":"4,120,1.00","avgRating":4.5}]`))
	})
	api := NewStudyPlanAPI(endpoint(srv.URL), nil)

	ratings, err := api.GetRatings(context.Background(), "tok")
	if err != nil {
		t.Fatalf("GetRatings 应成功: %v", err)
	}
	if len(ratings) != 1 || ratings[0].AvgRating != 4.5 {
		t.Errorf("评分解析错误: %+v", ratings)
	}
}
