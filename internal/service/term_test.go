package service

import (
	"errors"
	"testing"
	"time"
)

func TestParseTerm(t *testing.T) {
	cases := []struct {
		in   string
		want Term
	}{
		{"HS24", Term{2024, Fall}},
		{"FS25", Term{2025, Spring}},
		{"hs2024", Term{2024, Fall}},
		{" FS 25 ", Term{2025, Spring}},
		{"AuS24", Term{2024, Fall}},
		{"SpS25", Term{2025, Spring}},
		{"sps2025", Term{2025, Spring}},
	}
	for _, tc := range cases {
		got, err := ParseTerm(tc.in)
		if err != nil {
			t.Errorf("ParseTerm(%q) 应成功: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseTerm(%q) 期望 %+v，实际 %+v", tc.in, tc.want, got)
		}
	}
}

func TestParseTerm_Invalid(t *testing.T) {
	for _, in := range []string{"", "WS24", "HS", "HS123", "2024"} {
		if _, err := ParseTerm(in); !errors.Is(err, ErrTermInvalid) {
			t.Errorf("ParseTerm(%q) 期望 ErrTermInvalid，实际 %v", in, err)
		}
	}
}

func TestTerm_ShortNameAndCanonical(t *testing.T) {
	if got := (Term{2024, Fall}).ShortName(); got != "HS24" {
		t.Errorf("期望 HS24，实际 %s", got)
	}
	if got := CanonicalTermName("aus2024"); got != "HS24" {
		t.Errorf("期望 HS24，实际 %s", got)
	}
	if got := CanonicalTermName(" custom "); got != "custom" {
		t.Errorf("无法解析时应原样返回，实际 %q", got)
	}
}

func TestTerm_Before(t *testing.T) {
	fs24 := Term{2024, Spring}
	hs24 := Term{2024, Fall}
	fs25 := Term{2025, Spring}

	if !fs24.Before(hs24) {
		t.Error("同年春季应早于秋季")
	}
	if !hs24.Before(fs25) {
		t.Error("HS24 应早于 FS25")
	}
	if hs24.Before(hs24) {
		t.Error("学期不应早于自身")
	}
	if fs25.Before(hs24) {
		t.Error("FS25 不应早于 HS24")
	}
}

func TestTerm_NextPrevious(t *testing.T) {
	hs24 := Term{2024, Fall}
	if got := hs24.Next(); got != (Term{2025, Spring}) {
		t.Errorf("HS24 下一学期应为 FS25，实际 %v", got)
	}
	if got := hs24.Previous(); got != (Term{2024, Spring}) {
		t.Errorf("HS24 上一学期应为 FS24，实际 %v", got)
	}
	if got := hs24.Next().Previous(); got != hs24 {
		t.Errorf("Next/Previous 应互逆，实际 %v", got)
	}
}

func TestTerm_DateRange(t *testing.T) {
	// 2024 年 ISO 第 38 周周一为 9 月 16 日，第 51 周周日为 12 月 22 日
	start, end := Term{2024, Fall}.DateRange(time.UTC)
	if want := time.Date(2024, 9, 16, 0, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Errorf("HS24 开始日期期望 %v，实际 %v", want, start)
	}
	if want := time.Date(2024, 12, 22, 0, 0, 0, 0, time.UTC); !end.Equal(want) {
		t.Errorf("HS24 结束日期期望 %v，实际 %v", want, end)
	}

	// 2025 年 ISO 第 8 周周一为 2 月 17 日，第 21 周周日为 5 月 25 日
	start, end = Term{2025, Spring}.DateRange(nil)
	if want := time.Date(2025, 2, 17, 0, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Errorf("FS25 开始日期期望 %v，实际 %v", want, start)
	}
	if want := time.Date(2025, 5, 25, 0, 0, 0, 0, time.UTC); !end.Equal(want) {
		t.Errorf("FS25 结束日期期望 %v，实际 %v", want, end)
	}
	if start.Weekday() != time.Monday || end.Weekday() != time.Sunday {
		t.Error("范围应从周一到周日")
	}
}

func TestTermForDate(t *testing.T) {
	cases := map[string]Term{
		"2025-01-10": {2024, Fall},
		"2025-03-01": {2025, Spring},
		"2025-07-31": {2025, Spring},
		"2025-10-01": {2025, Fall},
	}
	for in, want := range cases {
		d, _ := time.Parse("2006-01-02", in)
		if got := TermForDate(d); got != want {
			t.Errorf("TermForDate(%s) 期望 %v，实际 %v", in, want, got)
		}
	}
}
