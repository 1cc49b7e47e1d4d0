package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/studentenschaft/Biddit2-sub002/internal/client"
	"github.com/studentenschaft/Biddit2-sub002/internal/dto"
	"github.com/studentenschaft/Biddit2-sub002/internal/model"
	"github.com/studentenschaft/Biddit2-sub002/internal/repository"
)

var (
	ErrCourseIdentityMissing = errors.New("课程缺少可识别的标识")
	ErrSelectionSemester     = errors.New("无法确定课程所属学期")
)

// defaultCredits 上游未给学分时的展示值
const defaultCredits = 4.0

// SelectionService 选课存储与学习计划同步
//
// 本地 selected_courses 是唯一的选课记录；学生会学习计划是远端镜像，
// 远端失败只上报并写入 sync_errors，本地结果不回滚
type SelectionService interface {
	ToggleCourse(ctx context.Context, caller Caller, req *dto.ToggleCourseRequest) (*dto.ToggleCourseResponse, error)
	ListSelections(ctx context.Context, caller Caller, semester string) ([]dto.SelectedCourseResponse, error)
	SyncStudyPlan(ctx context.Context, caller Caller, semester string) (*dto.SyncStudyPlanResponse, error)
}

type selectionService struct {
	repo      *repository.Repository
	source    *courseSource
	studyPlan client.StudyPlanAPI
	upstream  *Upstream
	logger    *zap.Logger
}

// NewSelectionService 创建 SelectionService 实例
func NewSelectionService(
	repo *repository.Repository,
	source *courseSource,
	studyPlan client.StudyPlanAPI,
	upstream *Upstream,
	logger *zap.Logger,
) SelectionService {
	return &selectionService{
		repo:      repo,
		source:    source,
		studyPlan: studyPlan,
		upstream:  upstream,
		logger:    logger,
	}
}

// ══════════════════════════════════════════════════════════════
// 选中 / 取消选中
// ══════════════════════════════════════════════════════════════

func (s *selectionService) ToggleCourse(ctx context.Context, caller Caller, req *dto.ToggleCourseRequest) (*dto.ToggleCourseResponse, error) {
	course := req.Course
	ids := course.Identifiers()
	if len(ids) == 0 {
		return nil, ErrCourseIdentityMissing
	}

	// 课程自带学期优先于界面当前学期
	semName := course.Semester
	if semName == "" {
		semName = req.Semester
	}
	term, err := ParseTerm(semName)
	if err != nil {
		return nil, ErrSelectionSemester
	}
	semester := term.ShortName()
	courseNumber := course.CanonicalID()

	// 1. 只做一次选中判定
	existing, err := s.repo.Selection.ListByUserAndSemester(ctx, caller.UserID, semester)
	if err != nil {
		s.logger.Error("查询已选课程失败", zap.String("user_id", caller.UserID), zap.Error(err))
		return nil, err
	}
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	isSelected := false
	for _, sel := range existing {
		if containsAny(wanted, sel.Identifiers()) {
			isSelected = true
			break
		}
	}

	resp := &dto.ToggleCourseResponse{Semester: semester, CourseNumber: courseNumber}

	// 2. 本地变更
	if isSelected {
		if _, err := s.repo.Selection.DeleteByIdentifiers(ctx, caller.UserID, semester, ids); err != nil {
			s.logger.Error("删除已选课程失败", zap.String("course", courseNumber), zap.Error(err))
			return nil, err
		}
		resp.Action = dto.ToggleRemoved
	} else {
		sel, err := newSelection(caller.UserID, semester, course)
		if err != nil {
			return nil, err
		}
		if _, err := s.repo.Selection.Create(ctx, sel); err != nil {
			s.logger.Error("保存已选课程失败", zap.String("course", courseNumber), zap.Error(err))
			return nil, err
		}
		resp.Action = dto.ToggleAdded
	}

	// 3. 远端学习计划
	token, err := s.upstream.Token(ctx, caller)
	if err != nil {
		resp.SyncErrors = append(resp.SyncErrors, err.Error())
	} else if isSelected {
		resp.SyncErrors = s.removeRemote(ctx, caller, token, semester, course)
	} else {
		err := s.studyPlan.SaveCourse(ctx, token, semester, courseNumber)
		s.upstream.Observe(ctx, caller, "study_plan_api.save_course", err, zap.String("course", courseNumber))
		if err != nil {
			resp.SyncErrors = append(resp.SyncErrors, syncError("save", courseNumber, err))
		}
	}

	// 4. 返回最新选中标识
	after, err := s.repo.Selection.ListByUserAndSemester(ctx, caller.UserID, semester)
	if err != nil {
		s.logger.Error("查询已选课程失败", zap.String("user_id", caller.UserID), zap.Error(err))
		return nil, err
	}
	resp.SelectedIDs = make([]string, 0, len(after))
	for _, sel := range after {
		resp.SelectedIDs = append(resp.SelectedIDs, sel.CourseNumber)
	}
	return resp, nil
}

// removeRemote 删除远端条目：规范课程编号一次，旧版 id / courseId 各独立尝试一次
// 任一次失败不影响其余尝试；远端不存在按成功处理
func (s *selectionService) removeRemote(ctx context.Context, caller Caller, token, semester string, course model.Course) []string {
	var syncErrors []string
	courseNumber := course.CanonicalID()

	tried := make(map[string]bool, 3)
	for _, id := range []string{courseNumber, course.ID, course.CourseID} {
		if id == "" || tried[id] {
			continue
		}
		tried[id] = true
		if err := s.deleteRemote(ctx, caller, token, semester, id); err != nil {
			syncErrors = append(syncErrors, syncError("delete", id, err))
		}
	}
	return syncErrors
}

func (s *selectionService) deleteRemote(ctx context.Context, caller Caller, token, semester, id string) error {
	err := s.studyPlan.DeleteCourse(ctx, token, semester, id)
	if errors.Is(err, client.ErrNotFound) {
		err = nil
	}
	s.upstream.Observe(ctx, caller, "study_plan_api.delete_course", err, zap.String("course", id))
	return err
}

func (s *selectionService) ListSelections(ctx context.Context, caller Caller, name string) ([]dto.SelectedCourseResponse, error) {
	term, err := ParseTerm(name)
	if err != nil {
		return nil, ErrSelectionSemester
	}
	list, err := s.repo.Selection.ListByUserAndSemester(ctx, caller.UserID, term.ShortName())
	if err != nil {
		s.logger.Error("查询已选课程失败", zap.String("user_id", caller.UserID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.SelectedCourseResponse, 0, len(list))
	for i := range list {
		result = append(result, toSelectedCourseResponse(&list[i]))
	}
	return result, nil
}

// ══════════════════════════════════════════════════════════════
// 学习计划双向同步
// ══════════════════════════════════════════════════════════════

func (s *selectionService) SyncStudyPlan(ctx context.Context, caller Caller, name string) (*dto.SyncStudyPlanResponse, error) {
	term, err := ParseTerm(name)
	if err != nil {
		return nil, ErrSelectionSemester
	}
	semester := term.ShortName()

	token, err := s.upstream.Token(ctx, caller)
	if err != nil {
		return nil, err
	}

	local, err := s.repo.Selection.ListByUserAndSemester(ctx, caller.UserID, semester)
	if err != nil {
		s.logger.Error("查询已选课程失败", zap.String("user_id", caller.UserID), zap.Error(err))
		return nil, err
	}

	resp := &dto.SyncStudyPlanResponse{Semester: semester, Imported: []string{}, Pushed: []string{}}

	// 1. 读取远端计划，不存在则创建
	plan, err := s.studyPlan.GetStudyPlan(ctx, token, semester)
	if errors.Is(err, client.ErrNotFound) {
		err = s.studyPlan.CreateStudyPlan(ctx, token, semester)
		s.upstream.Observe(ctx, caller, "study_plan_api.create_plan", err, zap.String("plan", semester))
		if err != nil {
			return nil, err
		}
		resp.PlanCreated = true
		plan = &client.StudyPlan{ID: semester}
	} else {
		s.upstream.Observe(ctx, caller, "study_plan_api.get_plan", err, zap.String("plan", semester))
		if err != nil {
			return nil, err
		}
	}

	localSet := make(map[string]bool)
	for _, sel := range local {
		for _, id := range sel.Identifiers() {
			localSet[id] = true
		}
	}
	remoteSet := make(map[string]bool, len(plan.Courses))
	for _, id := range plan.Courses {
		remoteSet[id] = true
	}

	// 2. 导入远端独有条目（旧版 id 通过目录解析为课程编号）
	var missing []string
	for _, id := range plan.Courses {
		if id != "" && !localSet[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		catalog := s.catalogFor(ctx, caller, token, semester)
		for _, id := range missing {
			course, ok := findCourse(catalog, id)
			if !ok {
				resp.Unresolved = append(resp.Unresolved, id)
				continue
			}
			sel, err := newSelection(caller.UserID, semester, course)
			if err != nil {
				resp.Unresolved = append(resp.Unresolved, id)
				continue
			}
			if sel.LegacyID == "" && id != sel.CourseNumber {
				sel.LegacyID = id
			}
			inserted, err := s.repo.Selection.Create(ctx, sel)
			if err != nil {
				s.logger.Error("导入学习计划条目失败", zap.String("course", id), zap.Error(err))
				return nil, err
			}
			if inserted {
				resp.Imported = append(resp.Imported, sel.CourseNumber)
			}
			for _, cid := range course.Identifiers() {
				localSet[cid] = true
			}
		}
	}

	// 3. 推送本地独有条目
	for _, sel := range local {
		if containsAny(remoteSet, sel.Identifiers()) {
			continue
		}
		err := s.studyPlan.SaveCourse(ctx, token, semester, sel.CourseNumber)
		s.upstream.Observe(ctx, caller, "study_plan_api.save_course", err, zap.String("course", sel.CourseNumber))
		if err != nil {
			resp.SyncErrors = append(resp.SyncErrors, syncError("save", sel.CourseNumber, err))
			continue
		}
		resp.Pushed = append(resp.Pushed, sel.CourseNumber)
	}

	return resp, nil
}

// catalogFor 已登记学期的（规范化后）目录，学期未登记或上游失败时为空
func (s *selectionService) catalogFor(ctx context.Context, caller Caller, token, semester string) []model.Course {
	sem, err := resolveSemester(ctx, s.repo, semester)
	if err != nil {
		return nil
	}
	cisID := sem.CisID
	if sem.IsProjected {
		ref, err := resolveSemester(ctx, s.repo, sem.CatalogSemester())
		if err != nil {
			return nil
		}
		cisID = ref.CisID
	}
	courses, _, err := s.source.Catalog(ctx, caller, token, cisID)
	if err != nil {
		return nil
	}
	return ProcessExerciseGroupECTS(courses)
}

// ── 内部辅助方法 ──

func findCourse(courses []model.Course, id string) (model.Course, bool) {
	for _, c := range courses {
		for _, cid := range c.Identifiers() {
			if cid == id {
				return c, true
			}
		}
	}
	return model.Course{}, false
}

// NormalizeCredits 上游学分转为展示单位：缺失取 4.00，大于 99 视为 ×100 存储
func NormalizeCredits(credits *int) float64 {
	if credits == nil {
		return defaultCredits
	}
	if *credits > 99 {
		return float64(*credits) / 100
	}
	return float64(*credits)
}

// newSelection 由课程构造选课记录，保存完整快照
func newSelection(userID, semester string, course model.Course) (*model.SelectedCourse, error) {
	courseNumber := course.CanonicalID()
	if courseNumber == "" {
		return nil, ErrCourseIdentityMissing
	}

	snapshot := course.Clone()
	snapshot.Semester = semester
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("课程快照序列化失败: %w", err)
	}

	legacyID := ""
	for _, id := range []string{course.ID, course.CourseID} {
		if id != "" && id != courseNumber {
			legacyID = id
			break
		}
	}

	sel := &model.SelectedCourse{
		UserID:         userID,
		Semester:       semester,
		CourseNumber:   courseNumber,
		LegacyID:       legacyID,
		Name:           course.DisplayName(),
		Classification: course.Classification,
		Credits:        NormalizeCredits(course.Credits),
		Snapshot:       datatypes.JSON(raw),
	}
	sel.StampCreated(userID)
	return sel, nil
}

func syncError(op, courseNumber string, err error) string {
	return fmt.Sprintf("学习计划同步失败（%s %s）: %v", op, courseNumber, err)
}

func toSelectedCourseResponse(sel *model.SelectedCourse) dto.SelectedCourseResponse {
	return dto.SelectedCourseResponse{
		ID:             sel.SelectedCourseID,
		Semester:       sel.Semester,
		CourseNumber:   sel.CourseNumber,
		LegacyID:       sel.LegacyID,
		Name:           sel.Name,
		Classification: sel.Classification,
		Credits:        sel.Credits,
		CreatedAt:      sel.CreatedAt.Format(time.RFC3339),
	}
}
