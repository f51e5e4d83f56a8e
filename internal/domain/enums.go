package domain

type Category string

const (
	CategoryAcademic        Category = "academic"
	CategoryFacilities      Category = "facilities"
	CategoryStudentServices Category = "student-services"
	CategoryEvents          Category = "events"
	CategoryPolicy          Category = "policy"
	CategoryFinancial       Category = "financial"
	CategorySafety          Category = "safety"
	CategorySuggestion      Category = "suggestion"
	CategoryCompliment      Category = "compliment"
	CategoryOther           Category = "other"
)

func (c Category) String() string {
	return string(c)
}

func (c Category) IsValid() bool {
	switch c {
	case CategoryAcademic, CategoryFacilities, CategoryStudentServices, CategoryEvents,
		CategoryPolicy, CategoryFinancial, CategorySafety, CategorySuggestion,
		CategoryCompliment, CategoryOther:
		return true
	default:
		return false
	}
}

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusResponded  Status = "responded"
	StatusResolved   Status = "resolved"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResponded, StatusResolved:
		return true
	default:
		return false
	}
}

func (s Status) IsTerminal() bool {
	return s == StatusResolved
}

var transitions = map[Status][]Status{
	StatusPending:    {StatusInProgress, StatusResponded, StatusResolved},
	StatusInProgress: {StatusResponded, StatusResolved},
	StatusResponded:  {StatusResolved},
	StatusResolved:   nil,
}

// strictTransitions forces every record through in_progress before it can be
// answered or closed.
var strictTransitions = map[Status][]Status{
	StatusPending:    {StatusInProgress},
	StatusInProgress: {StatusResponded, StatusResolved},
	StatusResponded:  {StatusResolved},
	StatusResolved:   nil,
}

// Workflow is the status transition table the store validates against.
type Workflow struct {
	table map[Status][]Status
}

func NewWorkflow(strict bool) Workflow {
	if strict {
		return Workflow{table: strictTransitions}
	}
	return Workflow{table: transitions}
}

func (w Workflow) CanTransition(from, to Status) bool {
	table := w.table
	if table == nil {
		table = transitions
	}
	for _, allowed := range table[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Allowed lists the statuses reachable from s in one step.
func (w Workflow) Allowed(from Status) []Status {
	table := w.table
	if table == nil {
		table = transitions
	}
	return append([]Status(nil), table[from]...)
}
