package models

import "strings"

// DefaultUsername is used when no explicit operator account is supplied.
const DefaultUsername = "admin"

// NormaliseUsername lowercases and defaults empty usernames to the administrator account.
func NormaliseUsername(username string) string {
	trimmed := strings.TrimSpace(username)
	if trimmed == "" {
		return DefaultUsername
	}
	return strings.ToLower(trimmed)
}

// RecordType identifies one of the four personnel record tables.
type RecordType string

const (
	RecordBaseInfo RecordType = "base_info"
	RecordRewards  RecordType = "rewards"
	RecordFamily   RecordType = "family"
	RecordResume   RecordType = "resume"
)

// AllRecordTypes lists the supported tables in a stable order.
var AllRecordTypes = []RecordType{RecordBaseInfo, RecordRewards, RecordFamily, RecordResume}

var recordDisplayNames = map[RecordType]string{
	RecordBaseInfo: "人员基本信息",
	RecordRewards:  "人员奖惩信息",
	RecordFamily:   "人员家庭成员信息",
	RecordResume:   "人员简历信息",
}

// Valid reports whether the record type names a known table.
func (t RecordType) Valid() bool {
	_, ok := recordDisplayNames[t]
	return ok
}

// Table returns the relational table name for the record type.
func (t RecordType) Table() string {
	return string(t)
}

// DisplayName returns the Chinese sheet title used by the source spreadsheets.
func (t RecordType) DisplayName() string {
	if name, ok := recordDisplayNames[t]; ok {
		return name
	}
	return string(t)
}

// Record is one row of a personnel table keyed by canonical column id.
// All values are stored and served as text.
type Record map[string]string

// SearchFilters carries the independently optional predicates of a personnel
// search. Slice filters are OR-combined internally; distinct filters are
// AND-combined.
type SearchFilters struct {
	Name              string   `json:"name,omitempty"`
	Grades            []string `json:"grades,omitempty"`
	Positions         []string `json:"positions,omitempty"`
	BirthStart        string   `json:"birth_start,omitempty"`
	BirthEnd          string   `json:"birth_end,omitempty"`
	FulltimeEducation []string `json:"fulltime_education,omitempty"`
	ParttimeEducation []string `json:"parttime_education,omitempty"`
}

// Empty reports whether no predicate is set, which means "view all".
func (f SearchFilters) Empty() bool {
	return f.Name == "" && len(f.Grades) == 0 && len(f.Positions) == 0 &&
		f.BirthStart == "" && f.BirthEnd == "" &&
		len(f.FulltimeEducation) == 0 && len(f.ParttimeEducation) == 0
}

// SearchResult groups the matched base rows with the child rows that share a
// name with any of them. The name association is a soft join: child tables
// carry no foreign key and duplicates are preserved as stored.
type SearchResult struct {
	BaseInfo []Record `json:"base_info"`
	Rewards  []Record `json:"rewards"`
	Family   []Record `json:"family"`
	Resume   []Record `json:"resume"`
}

// Records returns the result slice for the given record type.
func (r SearchResult) Records(t RecordType) []Record {
	switch t {
	case RecordBaseInfo:
		return r.BaseInfo
	case RecordRewards:
		return r.Rewards
	case RecordFamily:
		return r.Family
	case RecordResume:
		return r.Resume
	}
	return nil
}

// Permissions lists per-table access flags for one user.
type Permissions struct {
	BaseInfo bool `json:"base_info"`
	Rewards  bool `json:"rewards"`
	Family   bool `json:"family"`
	Resume   bool `json:"resume"`
}

// Allows reports whether the permission set grants access to a record type.
func (p Permissions) Allows(t RecordType) bool {
	switch t {
	case RecordBaseInfo:
		return p.BaseInfo
	case RecordRewards:
		return p.Rewards
	case RecordFamily:
		return p.Family
	case RecordResume:
		return p.Resume
	}
	return false
}

// AllPermissions grants every table, used for administrator accounts.
func AllPermissions() Permissions {
	return Permissions{BaseInfo: true, Rewards: true, Family: true, Resume: true}
}

// OplogEntry is one line of the append-only operation log.
type OplogEntry struct {
	ID        int64  `json:"id"`
	Actor     string `json:"actor"`
	Action    string `json:"action"`
	Details   string `json:"details"`
	CreatedAt string `json:"created_at"`
}
