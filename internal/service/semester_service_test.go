package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/studentenschaft/Biddit2-sub002/internal/dto"
	"github.com/studentenschaft/Biddit2-sub002/internal/model"
)

// ── 测试辅助 ──

func setupTestSemesterService() (SemesterService, *testEnv) {
	env := newTestEnv()
	svc := NewSemesterService(env.cfg, env.repo, zap.NewNop())
	return svc, env
}

// ── Create 测试 ──

func TestSemesterService_Create_DefaultDates(t *testing.T) {
	svc, _ := setupTestSemesterService()

	result, err := svc.Create(context.Background(), &dto.CreateSemesterRequest{ShortName: "AuS24", CisID: "cis-1"}, "admin-001")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if result.ShortName != "HS24" {
		t.Errorf("期望规范简称 HS24，实际=%s", result.ShortName)
	}
	// 2024 年第 38 周周一为 9 月 16 日，第 51 周周日为 12 月 22 日
	if result.StartDate != "2024-09-16" || result.EndDate != "2024-12-22" {
		t.Errorf("默认日期范围不正确: %s ~ %s", result.StartDate, result.EndDate)
	}
	if result.IsCurrent {
		t.Error("新创建学期不应默认为当前学期")
	}
	if result.Status != "active" {
		t.Errorf("期望Status=active，实际=%s", result.Status)
	}
}

func TestSemesterService_Create_Duplicate(t *testing.T) {
	svc, env := setupTestSemesterService()
	env.semesters.add(model.Semester{ShortName: "HS24"})

	_, err := svc.Create(context.Background(), &dto.CreateSemesterRequest{ShortName: "hs2024"}, "admin-001")
	if !errors.Is(err, ErrSemesterExists) {
		t.Errorf("期望 ErrSemesterExists，实际: %v", err)
	}
}

func TestSemesterService_Create_InvalidInput(t *testing.T) {
	svc, _ := setupTestSemesterService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, &dto.CreateSemesterRequest{ShortName: "WS24"}, "admin-001"); !errors.Is(err, ErrTermInvalid) {
		t.Errorf("期望 ErrTermInvalid，实际: %v", err)
	}

	// 结束日期早于开始日期
	req := &dto.CreateSemesterRequest{ShortName: "FS25", StartDate: "2025-06-01", EndDate: "2025-02-01"}
	if _, err := svc.Create(ctx, req, "admin-001"); !errors.Is(err, ErrSemesterDateInvalid) {
		t.Errorf("期望 ErrSemesterDateInvalid，实际: %v", err)
	}

	req = &dto.CreateSemesterRequest{ShortName: "FS25", StartDate: "2025/02/17"}
	if _, err := svc.Create(ctx, req, "admin-001"); !errors.Is(err, ErrSemesterDateInvalid) {
		t.Errorf("期望 ErrSemesterDateInvalid，实际: %v", err)
	}
}

func TestSemesterService_Create_Projected(t *testing.T) {
	svc, env := setupTestSemesterService()
	ctx := context.Background()
	env.semesters.add(model.Semester{ShortName: "HS24", CisID: "cis-1"})

	result, err := svc.Create(ctx, &dto.CreateSemesterRequest{ShortName: "HS25", IsProjected: true, ReferenceSemester: "AuS24"}, "admin-001")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if !result.IsProjected || result.ReferenceSemester != "HS24" {
		t.Errorf("预估学期信息不正确: %+v", result)
	}

	// 参考学期不存在
	_, err = svc.Create(ctx, &dto.CreateSemesterRequest{ShortName: "FS26", IsProjected: true, ReferenceSemester: "FS22"}, "admin-001")
	if !errors.Is(err, ErrReferenceInvalid) {
		t.Errorf("期望 ErrReferenceInvalid，实际: %v", err)
	}

	// 参考学期本身是预估学期
	_, err = svc.Create(ctx, &dto.CreateSemesterRequest{ShortName: "HS26", IsProjected: true, ReferenceSemester: "HS25"}, "admin-001")
	if !errors.Is(err, ErrReferenceInvalid) {
		t.Errorf("期望 ErrReferenceInvalid，实际: %v", err)
	}

	// 功能关闭
	env.cfg.Feature.ProjectedSemesters = false
	_, err = svc.Create(ctx, &dto.CreateSemesterRequest{ShortName: "FS27", IsProjected: true, ReferenceSemester: "HS24"}, "admin-001")
	if !errors.Is(err, ErrProjectedDisabled) {
		t.Errorf("期望 ErrProjectedDisabled，实际: %v", err)
	}
}

// ── 查询测试 ──

func TestSemesterService_List_NewestFirst(t *testing.T) {
	svc, env := setupTestSemesterService()
	env.semesters.add(model.Semester{ShortName: "HS24", StartDate: time.Date(2024, 9, 16, 0, 0, 0, 0, time.UTC)})
	env.semesters.add(model.Semester{ShortName: "FS25", StartDate: time.Date(2025, 2, 17, 0, 0, 0, 0, time.UTC)})
	env.semesters.add(model.Semester{ShortName: "HS25", StartDate: time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC), IsProjected: true, ReferenceSemester: "HS24"})

	list, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if len(list) != 3 || list[0].ShortName != "HS25" || list[2].ShortName != "HS24" {
		t.Errorf("列表顺序不正确: %+v", list)
	}

	env.cfg.Feature.ProjectedSemesters = false
	list, _ = svc.List(context.Background())
	if len(list) != 2 {
		t.Errorf("功能关闭时应隐藏预估学期，实际 %d 条", len(list))
	}
}

func TestSemesterService_GetByShortName(t *testing.T) {
	svc, env := setupTestSemesterService()
	env.semesters.add(model.Semester{ShortName: "FS25", CisID: "cis-fs25"})

	result, err := svc.GetByShortName(context.Background(), "SpS25")
	if err != nil {
		t.Fatalf("GetByShortName 应成功: %v", err)
	}
	if result.CisID != "cis-fs25" {
		t.Errorf("期望 cis-fs25，实际=%s", result.CisID)
	}

	if _, err := svc.GetByShortName(context.Background(), "nonsense"); !errors.Is(err, ErrSemesterNotFound) {
		t.Errorf("期望 ErrSemesterNotFound，实际: %v", err)
	}
}

func TestSemesterService_GetCurrent_NotFound(t *testing.T) {
	svc, _ := setupTestSemesterService()

	_, err := svc.GetCurrent(context.Background())
	if !errors.Is(err, ErrSemesterNotFound) {
		t.Errorf("期望 ErrSemesterNotFound，实际: %v", err)
	}
}

// ── Update 测试 ──

func TestSemesterService_Update(t *testing.T) {
	svc, env := setupTestSemesterService()
	sem := env.semesters.add(model.Semester{
		ShortName: "HS24",
		StartDate: time.Date(2024, 9, 16, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 12, 22, 0, 0, 0, 0, time.UTC),
	})

	cis := "cis-new"
	result, err := svc.Update(context.Background(), sem.SemesterID, &dto.UpdateSemesterRequest{CisID: &cis, Version: 1}, "admin-001")
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if result.CisID != "cis-new" || result.Version != 2 {
		t.Errorf("更新结果不正确: %+v", result)
	}

	// 旧版本号
	_, err = svc.Update(context.Background(), sem.SemesterID, &dto.UpdateSemesterRequest{CisID: &cis, Version: 1}, "admin-001")
	if !errors.Is(err, ErrSemesterVersionStale) {
		t.Errorf("期望 ErrSemesterVersionStale，实际: %v", err)
	}
}

// ── Activate 测试 ──

func TestSemesterService_Activate_Success(t *testing.T) {
	svc, env := setupTestSemesterService()
	env.semesters.add(model.Semester{SemesterID: "sem-001", ShortName: "HS24", IsCurrent: true})
	env.semesters.add(model.Semester{SemesterID: "sem-002", ShortName: "FS25"})

	if err := svc.Activate(context.Background(), "sem-002", "admin-001"); err != nil {
		t.Fatalf("Activate 应成功: %v", err)
	}

	// sem-001 应不再是当前学期
	if env.semesters.semesters["sem-001"].IsCurrent {
		t.Error("sem-001 应被取消当前")
	}
	if !env.semesters.semesters["sem-002"].IsCurrent {
		t.Error("sem-002 应成为当前学期")
	}
}

func TestSemesterService_Activate_NotFound(t *testing.T) {
	svc, _ := setupTestSemesterService()

	err := svc.Activate(context.Background(), "nonexistent", "admin-001")
	if !errors.Is(err, ErrSemesterNotFound) {
		t.Errorf("期望 ErrSemesterNotFound，实际: %v", err)
	}
}

// ── Delete 测试 ──

func TestSemesterService_Delete_RefusesReferenced(t *testing.T) {
	svc, env := setupTestSemesterService()
	ref := env.semesters.add(model.Semester{ShortName: "HS24"})
	projected := env.semesters.add(model.Semester{ShortName: "HS25", IsProjected: true, ReferenceSemester: "HS24"})

	if err := svc.Delete(context.Background(), ref.SemesterID, "admin-001"); !errors.Is(err, ErrSemesterHasDependents) {
		t.Errorf("期望 ErrSemesterHasDependents，实际: %v", err)
	}
	if err := svc.Delete(context.Background(), projected.SemesterID, "admin-001"); err != nil {
		t.Fatalf("删除预估学期应成功: %v", err)
	}
	if err := svc.Delete(context.Background(), ref.SemesterID, "admin-001"); err != nil {
		t.Fatalf("无引用后删除应成功: %v", err)
	}
}
