package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/studentenschaft/Biddit2-sub002/config"
	"github.com/studentenschaft/Biddit2-sub002/internal/cache"
	"github.com/studentenschaft/Biddit2-sub002/internal/client"
	"github.com/studentenschaft/Biddit2-sub002/internal/model"
	"github.com/studentenschaft/Biddit2-sub002/internal/repository"
	"github.com/studentenschaft/Biddit2-sub002/internal/session"
	pkgerrors "github.com/studentenschaft/Biddit2-sub002/pkg/errors"
	"github.com/studentenschaft/Biddit2-sub002/pkg/events"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: user_id
	seq   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByExternalID(_ context.Context, externalID string) (*model.User, error) {
	for _, u := range m.users {
		if u.ExternalID == externalID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Upsert(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.LastLoginAt = &now
	if existing, err := m.GetByExternalID(ctx, user.ExternalID); err == nil {
		existing.Name = user.Name
		existing.Email = user.Email
		existing.Role = user.Role
		existing.LastLoginAt = &now
		m.users[existing.UserID] = existing
		*user = *existing
		return nil
	}
	m.seq++
	user.UserID = fmt.Sprintf("user-%d", m.seq)
	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

// ── Mock SemesterRepository ──

type mockSemesterRepo struct {
	semesters map[string]*model.Semester
}

func newMockSemesterRepo() *mockSemesterRepo {
	return &mockSemesterRepo{semesters: make(map[string]*model.Semester)}
}

// add 直接放入一条学期记录（测试准备用）
func (m *mockSemesterRepo) add(s model.Semester) *model.Semester {
	if s.SemesterID == "" {
		s.SemesterID = "sem-" + s.ShortName
	}
	if s.Version == 0 {
		s.Version = 1
	}
	if s.Status == "" {
		s.Status = "active"
	}
	m.semesters[s.SemesterID] = &s
	return &s
}

func (m *mockSemesterRepo) Create(_ context.Context, semester *model.Semester) error {
	if semester.SemesterID == "" {
		semester.SemesterID = "sem-" + semester.ShortName
	}
	semester.Version = 1
	cp := *semester
	m.semesters[semester.SemesterID] = &cp
	return nil
}

func (m *mockSemesterRepo) GetByID(_ context.Context, id string) (*model.Semester, error) {
	if s, ok := m.semesters[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSemesterRepo) GetByShortName(_ context.Context, shortName string) (*model.Semester, error) {
	for _, s := range m.semesters {
		if s.ShortName == shortName {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSemesterRepo) GetCurrent(_ context.Context) (*model.Semester, error) {
	for _, s := range m.semesters {
		if s.IsCurrent {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSemesterRepo) List(_ context.Context) ([]model.Semester, error) {
	result := make([]model.Semester, 0, len(m.semesters))
	for _, s := range m.semesters {
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartDate.Before(result[j].StartDate) })
	return result, nil
}

func (m *mockSemesterRepo) Update(_ context.Context, semester *model.Semester) error {
	stored, ok := m.semesters[semester.SemesterID]
	if !ok || stored.Version != semester.Version {
		return pkgerrors.ErrOptimisticLock
	}
	semester.Version++
	cp := *semester
	m.semesters[semester.SemesterID] = &cp
	return nil
}

func (m *mockSemesterRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.semesters, id)
	return nil
}

func (m *mockSemesterRepo) ClearCurrent(_ context.Context) error {
	for _, s := range m.semesters {
		s.IsCurrent = false
	}
	return nil
}

// ── Mock SelectionRepository ──

type mockSelectionRepo struct {
	mu      sync.Mutex
	rows    []model.SelectedCourse
	seq     int
	listErr error
}

func newMockSelectionRepo() *mockSelectionRepo {
	return &mockSelectionRepo{}
}

func (m *mockSelectionRepo) ListByUserAndSemester(_ context.Context, userID, semester string) ([]model.SelectedCourse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []model.SelectedCourse
	for _, r := range m.rows {
		if r.UserID == userID && r.Semester == semester {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockSelectionRepo) ListByUser(_ context.Context, userID string) ([]model.SelectedCourse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []model.SelectedCourse
	for _, r := range m.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockSelectionRepo) Create(_ context.Context, sel *model.SelectedCourse) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.UserID == sel.UserID && r.Semester == sel.Semester && r.CourseNumber == sel.CourseNumber {
			return false, nil
		}
	}
	m.seq++
	sel.SelectedCourseID = fmt.Sprintf("sel-%d", m.seq)
	sel.CreatedAt = time.Now()
	m.rows = append(m.rows, *sel)
	return true, nil
}

func (m *mockSelectionRepo) DeleteByIdentifiers(_ context.Context, userID, semester string, ids []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	match := make(map[string]bool, len(ids))
	for _, id := range ids {
		match[id] = true
	}
	var kept []model.SelectedCourse
	var n int64
	for _, r := range m.rows {
		if r.UserID == userID && r.Semester == semester && (match[r.CourseNumber] || (r.LegacyID != "" && match[r.LegacyID])) {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.rows = kept
	return n, nil
}

// ── Mock UserFlagRepository ──

type mockUserFlagRepo struct {
	flags map[string]model.UserFlag // key: user_id|flag_key
}

func newMockUserFlagRepo() *mockUserFlagRepo {
	return &mockUserFlagRepo{flags: make(map[string]model.UserFlag)}
}

func (m *mockUserFlagRepo) List(_ context.Context, userID string) ([]model.UserFlag, error) {
	var out []model.UserFlag
	for _, f := range m.flags {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *mockUserFlagRepo) Upsert(_ context.Context, flag *model.UserFlag) error {
	flag.UpdatedAt = time.Now()
	m.flags[flag.UserID+"|"+flag.FlagKey] = *flag
	return nil
}

// ── Mock 上游 API ──

type mockCourseAPI struct {
	mu          sync.Mutex
	catalog     map[string][]model.Course // key: cisId
	enrolled    map[string][]model.Course
	scorecard   *model.Scorecard
	profiles    map[string]*client.Profile // key: token
	catalogErr  error
	enrolledErr error
	scoreErr    error
	catalogHits int
}

func newMockCourseAPI() *mockCourseAPI {
	return &mockCourseAPI{
		catalog:  make(map[string][]model.Course),
		enrolled: make(map[string][]model.Course),
		profiles: make(map[string]*client.Profile),
	}
}

func (m *mockCourseAPI) ListCourses(_ context.Context, _, cisID string) ([]model.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalogHits++
	if m.catalogErr != nil {
		return nil, m.catalogErr
	}
	return m.catalog[cisID], nil
}

func (m *mockCourseAPI) ListMyCourses(_ context.Context, _, cisID string) ([]model.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.enrolledErr != nil {
		return nil, m.enrolledErr
	}
	return m.enrolled[cisID], nil
}

func (m *mockCourseAPI) GetScorecard(_ context.Context, _ string) (*model.Scorecard, error) {
	if m.scoreErr != nil {
		return nil, m.scoreErr
	}
	return m.scorecard, nil
}

func (m *mockCourseAPI) GetProfile(_ context.Context, token string) (*client.Profile, error) {
	if p, ok := m.profiles[token]; ok {
		return p, nil
	}
	return nil, client.ErrUnauthorized
}

// planCall 学习计划 API 的一次写调用
type planCall struct {
	Op     string
	Plan   string
	Course string
}

type mockStudyPlanAPI struct {
	mu        sync.Mutex
	plans     map[string][]string
	ratings   []client.CourseRating
	calls     []planCall
	saveErr    error
	deleteErr  error
	deleteErrs map[string]error // 按课程标识指定的删除错误
	ratingErr  error
}

func newMockStudyPlanAPI() *mockStudyPlanAPI {
	return &mockStudyPlanAPI{plans: make(map[string][]string)}
}

func (m *mockStudyPlanAPI) GetStudyPlan(_ context.Context, _, planID string) (*client.StudyPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	courses, ok := m.plans[planID]
	if !ok {
		return nil, client.ErrNotFound
	}
	return &client.StudyPlan{ID: planID, Courses: append([]string(nil), courses...)}, nil
}

func (m *mockStudyPlanAPI) CreateStudyPlan(_ context.Context, _, planID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, planCall{Op: "create", Plan: planID})
	m.plans[planID] = []string{}
	return nil
}

func (m *mockStudyPlanAPI) SaveCourse(_ context.Context, _, planID, courseID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, planCall{Op: "save", Plan: planID, Course: courseID})
	if m.saveErr != nil {
		return m.saveErr
	}
	m.plans[planID] = append(m.plans[planID], courseID)
	return nil
}

func (m *mockStudyPlanAPI) DeleteCourse(_ context.Context, _, planID, courseID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, planCall{Op: "delete", Plan: planID, Course: courseID})
	if err := m.deleteErrs[courseID]; err != nil {
		return err
	}
	if m.deleteErr != nil {
		return m.deleteErr
	}
	kept := m.plans[planID][:0]
	found := false
	for _, c := range m.plans[planID] {
		if c == courseID {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	m.plans[planID] = kept
	if !found {
		return client.ErrNotFound
	}
	return nil
}

func (m *mockStudyPlanAPI) GetRatings(_ context.Context, _ string) ([]client.CourseRating, error) {
	if m.ratingErr != nil {
		return nil, m.ratingErr
	}
	return m.ratings, nil
}

func (m *mockStudyPlanAPI) PostRating(_ context.Context, _, courseNumber string, rating int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, planCall{Op: fmt.Sprintf("rate:%d", rating), Course: courseNumber})
	return m.ratingErr
}

// callsOf 指定操作的调用记录
func (m *mockStudyPlanAPI) callsOf(op string) []planCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []planCall
	for _, c := range m.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// ── 测试环境 ──

var errUpstreamDown = errors.New("connection refused")

// testEnv 组装好的 mock 依赖
type testEnv struct {
	cfg       *config.Config
	repo      *repository.Repository
	users     *mockUserRepo
	semesters *mockSemesterRepo
	selection *mockSelectionRepo
	flags     *mockUserFlagRepo
	courseAPI *mockCourseAPI
	planAPI   *mockStudyPlanAPI
	sessions  cache.SessionStore
	catalog   cache.CatalogCache
	tracker   *session.Tracker
	reporter  *pkgerrors.RecordingReporter
	upstream  *Upstream
	source    *courseSource
	caller    Caller
}

func newTestEnv() *testEnv {
	env := &testEnv{
		cfg: &config.Config{
			Auth:     config.AuthConfig{JWTSecret: "test-secret-key-for-unit-tests", AccessTokenTTL: time.Hour},
			Session:  config.SessionConfig{MaxRefreshFailures: 3},
			Calendar: config.CalendarConfig{Timezone: "UTC"},
			Feature:  config.FeatureConfig{ProjectedSemesters: true},
		},
		users:     newMockUserRepo(),
		semesters: newMockSemesterRepo(),
		selection: newMockSelectionRepo(),
		flags:     newMockUserFlagRepo(),
		courseAPI: newMockCourseAPI(),
		planAPI:   newMockStudyPlanAPI(),
		sessions:  cache.NewMemorySessionStore(),
		catalog:   cache.NewMemoryCatalogCache(time.Hour),
		reporter:  &pkgerrors.RecordingReporter{},
		caller:    Caller{UserID: "user-1", Role: model.RoleStudent, SessionID: "jti-1"},
	}
	env.repo = &repository.Repository{
		User:      env.users,
		Semester:  env.semesters,
		Selection: env.selection,
		UserFlag:  env.flags,
	}
	env.tracker = session.NewTracker(env.cfg.Session.MaxRefreshFailures, events.NewBus[session.Expired]())
	env.upstream = NewUpstream(env.sessions, env.tracker, env.reporter)
	env.source = newCourseSource(env.courseAPI, env.catalog, env.upstream, zap.NewNop())
	_ = env.sessions.PutUpstreamToken(context.Background(), env.caller.SessionID, "upstream-token", time.Hour)
	return env
}

