package excel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSynonymTable(t *testing.T) {
	cases := map[string]string{
		"序号":         "sequence",
		"姓名":         "name",
		"距离下次职级晋升时间": "next_promotion",
		"晋升时间":       "next_promotion",
		"现任职务":       "current_position",
		"职级/等级":      "current_grade",
		"职级等级":       "current_grade",
		"任现职级/等级时间":  "current_grade_date",
		"出生年月":       "birth_date",
		"籍贯":         "hometown",
		"全日制学历学位":    "fulltime_education",
		"在职学历学位":     "parttime_education",
		"奖励名称":       "reward_name",
		"惩戒批准机关性质":   "punishment_authority_type",
		"影响期":        "impact_period",
		"称谓":         "relation",
		"家庭成员姓名":     "family_name",
		"政治面貌":       "political_status",
		"简历信息":       "resume_text",
		"简历":         "resume_text",
		"备注":         "remarks",
	}
	for header, want := range cases {
		assert.Equal(t, want, Normalize(header), "header %q", header)
	}
}

func TestNormalizeStripsWhitespaceVariants(t *testing.T) {
	assert.Equal(t, "name", Normalize(" 姓 名 "))
	assert.Equal(t, "name", Normalize("姓\n名"))
	// Full-width space, common in hand-edited sheets.
	assert.Equal(t, "name", Normalize("姓　名"))
	assert.Equal(t, "current_grade", Normalize("职级/等级\n"))
}

func TestNormalizeRegexFallbacks(t *testing.T) {
	// Variants not present in the synonym table verbatim.
	assert.Equal(t, "current_grade_date", Normalize("任（现）职级/等级时间"))
	assert.Equal(t, "current_grade", Normalize("职级等级情况"))
	assert.Equal(t, "hometown", Normalize("籍贯地"))
}

func TestNormalizeUnknownHeaderNeverFails(t *testing.T) {
	cases := []string{"未知列名", "Some Header!", "出生 年月日（新）", "", "///"}
	for _, header := range cases {
		got := Normalize(header)
		assert.NotNil(t, got)
		// Generic fallback keeps letters, digits and underscores only.
		assert.NotContains(t, got, " ")
		assert.NotContains(t, got, "/")
	}
	assert.Equal(t, "someheader", Normalize("Some Header!"))
}

func TestCleanHeaderRemovesParens(t *testing.T) {
	assert.Equal(t, "出生年月新", CleanHeader("出生 年月（新）"))
	assert.Equal(t, "职级/等级", CleanHeader("职级/等级"))
}

func TestAssessmentYear(t *testing.T) {
	year, ok := AssessmentYear("2023年年度考核结果")
	assert.True(t, ok)
	assert.Equal(t, 2023, year)

	_, ok = AssessmentYear("年度考核结果")
	assert.False(t, ok)

	_, ok = AssessmentYear("备注")
	assert.False(t, ok)
}
