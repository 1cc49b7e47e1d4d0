package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/studentenschaft/Biddit2-sub002/internal/dto"
	"github.com/studentenschaft/Biddit2-sub002/internal/model"
	"github.com/studentenschaft/Biddit2-sub002/internal/repository"
)

var ErrCalendarDateInvalid = errors.New("日期格式错误，应为 YYYY-MM-DD")

// CalendarService 学期日历、冲突与热力图
type CalendarService interface {
	GetCalendar(ctx context.Context, caller Caller, semester string) (*dto.CalendarResponse, error)
	CoursesOnDay(ctx context.Context, caller Caller, semester, date string) (*dto.CalendarDayResponse, error)
	// ExportICS 返回 iCalendar 文本与建议文件名
	ExportICS(ctx context.Context, caller Caller, semester string) (string, string, error)
}

type calendarService struct {
	repo     *repository.Repository
	source   *courseSource
	upstream *Upstream
	loc      *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// NewCalendarService 创建 CalendarService 实例
func NewCalendarService(
	repo *repository.Repository,
	source *courseSource,
	upstream *Upstream,
	loc *time.Location,
	logger *zap.Logger,
) CalendarService {
	if loc == nil {
		loc = time.UTC
	}
	return &calendarService{
		repo:     repo,
		source:   source,
		upstream: upstream,
		loc:      loc,
		logger:   logger,
		now:      time.Now,
	}
}

// calendarData 一个学期的事件与日期范围
type calendarData struct {
	semester    *model.Semester
	start       time.Time
	end         time.Time
	events      []model.CalendarEvent
	overlapping []string
	warnings    []string
}

func (s *calendarService) GetCalendar(ctx context.Context, caller Caller, semester string) (*dto.CalendarResponse, error) {
	data, err := s.load(ctx, caller, semester)
	if err != nil {
		return nil, err
	}
	events := data.events
	if events == nil {
		events = []model.CalendarEvent{}
	}
	return &dto.CalendarResponse{
		Semester:           data.semester.ShortName,
		StartDate:          data.start.Format(dayLayout),
		EndDate:            data.end.Format(dayLayout),
		Events:             events,
		OverlappingCourses: data.overlapping,
		Heatmap:            BuildHeatmap(events, data.start, data.end),
		Warnings:           data.warnings,
	}, nil
}

func (s *calendarService) CoursesOnDay(ctx context.Context, caller Caller, semester, date string) (*dto.CalendarDayResponse, error) {
	day, err := time.ParseInLocation(dayLayout, date, s.loc)
	if err != nil {
		return nil, ErrCalendarDateInvalid
	}
	data, err := s.load(ctx, caller, semester)
	if err != nil {
		return nil, err
	}
	return &dto.CalendarDayResponse{Date: date, CourseIDs: CoursesOnDate(data.events, day)}, nil
}

func (s *calendarService) ExportICS(ctx context.Context, caller Caller, semester string) (string, string, error) {
	data, err := s.load(ctx, caller, semester)
	if err != nil {
		return "", "", err
	}
	name := data.semester.ShortName
	return ExportICS(name, data.events, s.now()), fmt.Sprintf("biddit_%s.ics", name), nil
}

// load 并发读取已注册课程、目录与本地选课，生成事件
func (s *calendarService) load(ctx context.Context, caller Caller, name string) (*calendarData, error) {
	semester, err := resolveSemester(ctx, s.repo, name)
	if err != nil {
		return nil, err
	}
	token, err := s.upstream.Token(ctx, caller)
	if err != nil {
		return nil, err
	}

	data := &calendarData{semester: semester}
	data.start, data.end = s.dateRange(semester)

	catalogCisID := semester.CisID
	if semester.IsProjected {
		catalogCisID = ""
		if ref, err := resolveSemester(ctx, s.repo, semester.CatalogSemester()); err == nil {
			catalogCisID = ref.CisID
		} else {
			data.warnings = append(data.warnings, WarnReferenceMissing)
		}
	}

	var (
		catalog    []model.Course
		enrolled   []model.Course
		selections []model.SelectedCourse
		catalogErr error
		enrollErr  error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		catalog, _, catalogErr = s.source.Catalog(gctx, caller, token, catalogCisID)
		return nil
	})
	if !semester.IsProjected {
		g.Go(func() error {
			enrolled, enrollErr = s.source.Enrolled(gctx, caller, token, semester.CisID)
			return nil
		})
	}
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
		data.warnings = append(data.warnings, WarnCatalogUnavailable)
	}
	if enrollErr != nil {
		data.warnings = append(data.warnings, WarnEnrolledUnavailable)
	}

	selected, _, _ := resolveSelections(selections, catalog, enrolled, semester.ShortName)
	data.events, data.overlapping = BuildCalendarEvents(enrolled, selected, s.loc)
	return data, nil
}

// dateRange 登记的学期日期；缺失时取 ISO 周约定范围
func (s *calendarService) dateRange(semester *model.Semester) (time.Time, time.Time) {
	if !semester.StartDate.IsZero() && !semester.EndDate.IsZero() {
		start := semester.StartDate
		end := semester.EndDate
		return time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, s.loc),
			time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, s.loc)
	}
	if term, err := ParseTerm(semester.ShortName); err == nil {
		return term.DateRange(s.loc)
	}
	today := s.now().In(s.loc)
	return today, today
}
