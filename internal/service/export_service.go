package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/studentenschaft/Biddit2-sub002/internal/model"
)

// ── 导出模块业务错误 ──

var ErrExportGenerateFail = errors.New("生成 Excel 文件失败")

// ExportService 导出业务接口
//
// 设计说明：
//   - 导出合并心愿单后的成绩单为 Excel (.xlsx)
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
//   - Sheet "成绩单"：按树形层级缩进，分类行加粗；Sheet "心愿单"：平铺的已选课程
type ExportService interface {
	// ExportTranscript 导出成绩单为 Excel
	ExportTranscript(ctx context.Context, caller Caller) (*bytes.Buffer, string, error)
}

type exportService struct {
	transcript TranscriptService
	logger     *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(transcript TranscriptService, logger *zap.Logger) ExportService {
	return &exportService{transcript: transcript, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportTranscript — 导出成绩单为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 第 1 行：标题（当前学期）
//   - 第 2 行：表头
//   - 之后每个节点一行，名称按深度缩进
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

var transcriptHeaders = []string{"类别 / 课程", "课程编号", "学期", "学分", "成绩", "已获学分", "计划学分", "平均成绩", "心愿单"}

func (s *exportService) ExportTranscript(ctx context.Context, caller Caller) (*bytes.Buffer, string, error) {
	// 1. 合并视图
	view, err := s.transcript.GetTranscript(ctx, caller)
	if err != nil {
		return nil, "", err
	}

	// 2. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "成绩单"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	// 设置列宽
	f.SetColWidth(sheetName, "A", "A", 48)
	f.SetColWidth(sheetName, "B", "C", 14)
	f.SetColWidth(sheetName, "D", "I", 12)

	// 样式
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	titleStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	wishlistStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Italic: true, Color: "#2E7D32"}})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("成绩单（当前学期 %s）", view.CurrentSemester))
	f.MergeCell(sheetName, "A1", fmt.Sprintf("%s1", colName(len(transcriptHeaders)-1)))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	row := 2
	for i, h := range transcriptHeaders {
		f.SetCellValue(sheetName, cell(colName(i), row), h)
	}
	f.SetCellStyle(sheetName, cell("A", row), cell(colName(len(transcriptHeaders)-1), row), headerStyle)

	// 数据行
	row = 3
	var walk func(items []model.ScorecardItem, depth int)
	walk = func(items []model.ScorecardItem, depth int) {
		for _, item := range items {
			writeTranscriptRow(f, sheetName, row, item, depth)
			switch {
			case item.IsTitle:
				f.SetCellStyle(sheetName, cell("A", row), cell("A", row), titleStyle)
			case item.IsWishlist:
				f.SetCellStyle(sheetName, cell("A", row), cell("A", row), wishlistStyle)
			}
			row++
			walk(item.Items, depth+1)
		}
	}
	walk(view.Scorecard.Items, 0)

	// 心愿单
	wishSheet := "心愿单"
	f.NewSheet(wishSheet)
	f.SetColWidth(wishSheet, "A", "A", 48)
	f.SetColWidth(wishSheet, "B", "E", 16)
	for i, h := range []string{"课程", "课程编号", "学期", "学分", "类别"} {
		f.SetCellValue(wishSheet, cell(colName(i), 1), h)
	}
	f.SetCellStyle(wishSheet, "A1", "E1", headerStyle)
	for i, w := range view.Wishlist {
		r := i + 2
		f.SetCellValue(wishSheet, cell("A", r), w.Name)
		f.SetCellValue(wishSheet, cell("B", r), w.CourseNumber)
		f.SetCellValue(wishSheet, cell("C", r), w.Semester)
		f.SetCellValue(wishSheet, cell("D", r), w.Credits)
		f.SetCellValue(wishSheet, cell("E", r), w.Classification)
	}

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("transcript_%s.xlsx", view.CurrentSemester)
	return buf, filename, nil
}

func writeTranscriptRow(f *excelize.File, sheet string, row int, item model.ScorecardItem, depth int) {
	name := item.Description
	if name == "" {
		name = item.ShortName
	}
	f.SetCellValue(sheet, cell("A", row), strings.Repeat("  ", depth)+name)
	f.SetCellValue(sheet, cell("B", row), item.CourseNumber)
	f.SetCellValue(sheet, cell("C", row), item.Semester)
	f.SetCellValue(sheet, cell("D", row), float64(item.SumOfCredits))
	f.SetCellValue(sheet, cell("E", row), item.Mark)
	if item.IsTitle {
		f.SetCellValue(sheet, cell("F", row), item.EarnedCredits)
		f.SetCellValue(sheet, cell("G", row), item.PlannedCredits)
		if item.AverageGrade != nil {
			f.SetCellValue(sheet, cell("H", row), *item.AverageGrade)
		}
	}
	if item.IsWishlist {
		f.SetCellValue(sheet, cell("I", row), "✓")
	}
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
