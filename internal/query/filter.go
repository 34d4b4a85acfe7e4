package query

import (
	"fmt"
	"strings"
)

// AllSentinel is the value clients send to mean "no constraint".
const AllSentinel = "all"

// Params holds raw, unvalidated filter values as received from a request.
type Params struct {
	Course       string
	Semester     string
	AcademicYear string
	Subject      string
}

// Filter is a sparse conjunction of constraints on the paper catalog.
// An empty field places no constraint on that column.
type Filter struct {
	Course       string
	Semester     string
	AcademicYear string
	Subject      string
}

// Compose turns raw request parameters into a Filter, dropping absent,
// empty and "all" values. It never fails.
func Compose(p Params) Filter {
	return Filter{
		Course:       clean(p.Course),
		Semester:     clean(p.Semester),
		AcademicYear: clean(p.AcademicYear),
		Subject:      clean(p.Subject),
	}
}

func clean(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, AllSentinel) {
		return ""
	}
	return v
}

// IsEmpty reports whether f places no constraint at all.
func (f Filter) IsEmpty() bool {
	return f == Filter{}
}

// Predicate is a rendered SQL WHERE clause with its positional arguments.
// SQL is empty when the filter is unconstrained, otherwise it starts with " WHERE ".
type Predicate struct {
	SQL  string
	Args []any
}

// NextArg is the placeholder index following the predicate's arguments.
func (p Predicate) NextArg(firstArg int) int {
	return firstArg + len(p.Args)
}

// Where renders f as a PostgreSQL predicate whose placeholders start at $firstArg.
// Listing and counting must both build their WHERE clause through this method.
func (f Filter) Where(firstArg int) Predicate {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		conds = append(conds, fmt.Sprintf(cond, firstArg+len(args)))
		args = append(args, arg)
	}

	if f.Course != "" {
		add("course = $%d", f.Course)
	}
	if f.Semester != "" {
		add("semester = $%d", f.Semester)
	}
	if f.AcademicYear != "" {
		add("academic_year = $%d", f.AcademicYear)
	}
	if f.Subject != "" {
		add("subject ILIKE '%%' || $%d || '%%'", escapeLike(f.Subject))
	}

	if len(conds) == 0 {
		return Predicate{Args: []any{}}
	}
	return Predicate{
		SQL:  " WHERE " + strings.Join(conds, " AND "),
		Args: args,
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes LIKE wildcards in user input match literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Matches evaluates f against a row in memory, with the same semantics as Where.
func (f Filter) Matches(course, semester, academicYear, subject string) bool {
	if f.Course != "" && course != f.Course {
		return false
	}
	if f.Semester != "" && semester != f.Semester {
		return false
	}
	if f.AcademicYear != "" && academicYear != f.AcademicYear {
		return false
	}
	if f.Subject != "" && !strings.Contains(strings.ToLower(subject), strings.ToLower(f.Subject)) {
		return false
	}
	return true
}
