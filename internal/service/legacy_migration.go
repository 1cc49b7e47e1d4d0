package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/studentenschaft/Biddit2-sub002/internal/model"
	"github.com/studentenschaft/Biddit2-sub002/internal/repository"
)

var ErrLegacyFormat = errors.New("旧版选课数据格式错误")

// ── 旧版选课数据迁移 ──────────────────────────────────────────
//
// 旧版前端把选课保存为三份并行结构：按学期下标、按学期名各一份，
// 外加下标 → 学期名的映射；课程可能只带 id / courseId 旧标识。
// 迁移把它们合并进 selected_courses，一次性执行，重复执行不产生新记录。
// ─────────────────────────────────────────────────────────────

// LegacyExport 旧版持久化数据
type LegacyExport struct {
	SemesterIndex      map[string]string            `json:"semester_index"`
	SelectedByIndex    map[string][]json.RawMessage `json:"selected_by_index"`
	SelectedBySemester map[string][]json.RawMessage `json:"selected_by_semester"`
}

// MigrationIssue 被跳过或无效的条目
type MigrationIssue struct {
	Source string `json:"source"` // "index:0" / "semester:HS24"
	Entry  string `json:"entry"`
	Reason string `json:"reason"`
}

// MigrationReport 迁移结果
type MigrationReport struct {
	UserID   string           `json:"user_id"`
	Inserted []string         `json:"inserted"` // "HS24/1,234,1.00"
	Skipped  []MigrationIssue `json:"skipped"`
	Invalid  []MigrationIssue `json:"invalid"`
}

// MigrationService 旧版选课迁移
type MigrationService interface {
	MigrateLegacySelections(ctx context.Context, user string, r io.Reader) (*MigrationReport, error)
}

type migrationService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewMigrationService 创建 MigrationService 实例
func NewMigrationService(repo *repository.Repository, logger *zap.Logger) MigrationService {
	return &migrationService{repo: repo, logger: logger}
}

// legacyBucket 一个来源下的全部条目
type legacyBucket struct {
	source   string
	semester string
	entries  []json.RawMessage
}

// MigrateLegacySelections user 可以是本地用户 ID 或身份提供方 ID
func (s *migrationService) MigrateLegacySelections(ctx context.Context, user string, r io.Reader) (*MigrationReport, error) {
	var export LegacyExport
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLegacyFormat, err)
	}

	u, err := s.findUser(ctx, user)
	if err != nil {
		return nil, err
	}

	report := &MigrationReport{UserID: u.UserID, Inserted: []string{}, Skipped: []MigrationIssue{}, Invalid: []MigrationIssue{}}
	seen := make(map[string]bool)

	for _, bucket := range legacyBuckets(&export, report) {
		for _, raw := range bucket.entries {
			course, ok := decodeLegacyCourse(raw)
			if !ok || course.CanonicalID() == "" {
				report.Invalid = append(report.Invalid, MigrationIssue{Source: bucket.source, Entry: string(raw), Reason: "缺少课程标识"})
				continue
			}

			key := bucket.semester + "/" + course.CanonicalID()
			if seen[key] {
				report.Skipped = append(report.Skipped, MigrationIssue{Source: bucket.source, Entry: course.CanonicalID(), Reason: "重复条目"})
				continue
			}
			seen[key] = true

			sel, err := newSelection(u.UserID, bucket.semester, course)
			if err != nil {
				report.Invalid = append(report.Invalid, MigrationIssue{Source: bucket.source, Entry: string(raw), Reason: err.Error()})
				continue
			}
			inserted, err := s.repo.Selection.Create(ctx, sel)
			if err != nil {
				s.logger.Error("迁移选课记录失败", zap.String("key", key), zap.Error(err))
				return report, err
			}
			if !inserted {
				report.Skipped = append(report.Skipped, MigrationIssue{Source: bucket.source, Entry: sel.CourseNumber, Reason: "已存在"})
				continue
			}
			report.Inserted = append(report.Inserted, key)
		}
	}

	s.logger.Info("旧版选课迁移完成",
		zap.String("user_id", u.UserID),
		zap.Int("inserted", len(report.Inserted)),
		zap.Int("skipped", len(report.Skipped)),
		zap.Int("invalid", len(report.Invalid)),
	)
	return report, nil
}

func (s *migrationService) findUser(ctx context.Context, user string) (*model.User, error) {
	u, err := s.repo.User.GetByExternalID(ctx, user)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if _, perr := uuid.Parse(user); perr != nil {
		return nil, ErrUserNotFound
	}
	u, err = s.repo.User.GetByID(ctx, user)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// legacyBuckets 按确定顺序展开两份结构；学期名统一为规范简称
// 按学期名的结构优先，按下标的结构其次
func legacyBuckets(export *LegacyExport, report *MigrationReport) []legacyBucket {
	var buckets []legacyBucket

	names := make([]string, 0, len(export.SelectedBySemester))
	for name := range export.SelectedBySemester {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		source := "semester:" + name
		term, err := ParseTerm(name)
		if err != nil {
			report.Invalid = append(report.Invalid, MigrationIssue{Source: source, Reason: "学期名无效"})
			continue
		}
		buckets = append(buckets, legacyBucket{source: source, semester: term.ShortName(), entries: export.SelectedBySemester[name]})
	}

	indexes := make([]string, 0, len(export.SelectedByIndex))
	for idx := range export.SelectedByIndex {
		indexes = append(indexes, idx)
	}
	sort.Slice(indexes, func(i, j int) bool {
		a, errA := strconv.Atoi(indexes[i])
		b, errB := strconv.Atoi(indexes[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return indexes[i] < indexes[j]
	})
	for _, idx := range indexes {
		source := "index:" + idx
		name, ok := export.SemesterIndex[idx]
		if !ok {
			report.Invalid = append(report.Invalid, MigrationIssue{Source: source, Reason: "学期下标无映射"})
			continue
		}
		term, err := ParseTerm(name)
		if err != nil {
			report.Invalid = append(report.Invalid, MigrationIssue{Source: source, Entry: name, Reason: "学期名无效"})
			continue
		}
		buckets = append(buckets, legacyBucket{source: source, semester: term.ShortName(), entries: export.SelectedByIndex[idx]})
	}
	return buckets
}

// decodeLegacyCourse 条目可以是课程对象，也可以是单独的标识字符串
func decodeLegacyCourse(raw json.RawMessage) (model.Course, bool) {
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return model.Course{CourseNumber: id}, id != ""
	}
	var course model.Course
	if err := json.Unmarshal(raw, &course); err != nil {
		return model.Course{}, false
	}
	return course, true
}
