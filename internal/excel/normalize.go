package excel

import (
	"regexp"
	"strings"
)

// Spreadsheet headers arrive with inconsistent whitespace, full-width
// punctuation and synonym variants. Normalisation maps them onto the fixed
// column ids of the relational schema; anything unrecognised falls through to
// a best-effort identifier that simply matches no column and is dropped at
// insert time.

var (
	whitespaceRe = regexp.MustCompile(`[\s\x{3000}]+`)
	parensRe     = regexp.MustCompile(`[()（）]`)
	nonWordRe    = regexp.MustCompile(`[^\p{L}\p{N}_]`)

	gradeDateRe = regexp.MustCompile(`任.*现.*职级[\\/]?等级时间`)
	gradeRe     = regexp.MustCompile(`职级[\\/]?等级`)
	hometownRe  = regexp.MustCompile(`籍贯`)

	// assessmentYearRe extracts the calendar year of an annual assessment
	// result column.
	assessmentYearRe = regexp.MustCompile(`(\d{4})年年度考核结果`)
)

// headerMappings resolves cleaned header text to canonical column ids. Slash
// and slash-free variants are both present because source files disagree.
var headerMappings = map[string]string{
	// base_info
	"序号":         "sequence",
	"姓名":         "name",
	"距离下次职级晋升时间": "next_promotion",
	"距离下次职级晋升":   "next_promotion",
	"晋升时间":       "next_promotion",
	"现任职务":       "current_position",
	"任现职务时间":     "current_position_date",
	"职级/等级":      "current_grade",
	"职级等级":       "current_grade",
	"任现职级/等级时间":  "current_grade_date",
	"任现职级等级时间":   "current_grade_date",
	"前一职务":       "previous_position1",
	"前一职务任职时间":   "previous_position1_date",
	"前二职务":       "previous_position2",
	"前二职务任职时间":   "previous_position2_date",
	"现任法律职务":     "current_legal_position",
	"现任法律职务任职时间": "current_legal_position_date",
	"前一法律职务":     "previous_legal_position",
	"前一法律职务任职时间": "previous_legal_position_date",
	"入额时间":       "admission_date",
	"进入检察机关时间":   "entry_date",
	"性别":         "gender",
	"出生年月":       "birth_date",
	"民族":         "ethnicity",
	"籍贯":         "hometown",
	"参加工作时间":     "work_start_date",
	"入党时间":       "party_date",
	"全日制学历学位":    "fulltime_education",
	"全日制毕业院校及专业": "fulltime_school",
	"在职学历学位":     "parttime_education",
	"在职毕业院校及专业":  "parttime_school",
	"奖惩":         "rewards",
	"备注":         "remarks",

	// rewards
	"奖励名称":     "reward_name",
	"奖励批准日期":   "reward_date",
	"奖励批准单位":   "reward_unit",
	"批准机关性质":   "reward_authority_type",
	"惩戒名称":     "punishment_name",
	"惩处批准日期":   "punishment_date",
	"惩戒批准单位":   "punishment_unit",
	"惩戒批准机关性质": "punishment_authority_type",
	"影响期":      "impact_period",

	// family
	"称谓":       "relation",
	"家庭成员姓名":   "family_name",
	"出生日期":     "birth_date",
	"政治面貌":     "political_status",
	"家庭成员工作单位": "work_unit",
	"职务":       "position",

	// resume
	"简历信息": "resume_text",
	"简历":   "resume_text",
}

// CleanHeader removes whitespace (including full-width spaces and newlines)
// and round parentheses from a raw header, keeping slashes intact.
func CleanHeader(name string) string {
	return parensRe.ReplaceAllString(whitespaceRe.ReplaceAllString(name, ""), "")
}

// Normalize maps a raw spreadsheet header to its canonical column id. Unknown
// headers never fail: after the synonym table and the targeted fallbacks for
// grade and hometown variants, the header is reduced to its letters, digits
// and underscores, lower-cased.
func Normalize(name string) string {
	cleaned := whitespaceRe.ReplaceAllString(name, "")

	if id, ok := headerMappings[cleaned]; ok {
		return id
	}

	if gradeDateRe.MatchString(cleaned) {
		return "current_grade_date"
	}
	if gradeRe.MatchString(cleaned) {
		return "current_grade"
	}
	if hometownRe.MatchString(cleaned) {
		return "hometown"
	}

	return strings.ToLower(nonWordRe.ReplaceAllString(cleaned, ""))
}

// AssessmentYear extracts the 4-digit calendar year from an annual assessment
// header, reporting whether the header is an assessment column at all.
func AssessmentYear(header string) (int, bool) {
	match := assessmentYearRe.FindStringSubmatch(header)
	if match == nil {
		return 0, false
	}
	year := 0
	for _, r := range match[1] {
		year = year*10 + int(r-'0')
	}
	return year, true
}
