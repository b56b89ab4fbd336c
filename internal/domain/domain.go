package domain

// Position is the last known UI position of a task node. The store keeps it
// verbatim.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Project struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Deadline    *string `json:"deadline"`
	Tasks       []Task  `json:"tasks"`
}

type Task struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Completed    bool      `json:"completed"`
	Urgency      *float64  `json:"urgency,omitempty" minimum:"0" maximum:"10"`
	Importance   *float64  `json:"importance,omitempty" minimum:"0" maximum:"10"`
	StartDate    *string   `json:"startDate"`
	Deadline     *string   `json:"deadline"`
	Pinned       bool      `json:"pinned"`
	Color        string    `json:"color"`
	LastPosition *Position `json:"lastPosition,omitempty"`
}

// TaskInput carries the caller-supplied fields of a new task. Id, completion,
// pinning and color are assigned by the store.
type TaskInput struct {
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description,omitempty" yaml:"description"`
	Urgency     *float64 `json:"urgency,omitempty" yaml:"urgency"`
	Importance  *float64 `json:"importance,omitempty" yaml:"importance"`
	StartDate   string   `json:"startDate,omitempty" yaml:"startDate"`
	Deadline    string   `json:"deadline,omitempty" yaml:"deadline"`
}

// TaskPatch is a partial update. Nil fields are left unchanged. For the two
// date fields a pointer to the empty string clears the value.
type TaskPatch struct {
	Title        *string
	Description  *string
	Completed    *bool
	Pinned       *bool
	Urgency      *float64
	Importance   *float64
	StartDate    *string
	Deadline     *string
	LastPosition *Position
}

// ProjectPatch is a partial project update; it never touches tasks.
type ProjectPatch struct {
	Name        *string
	Description *string
	Deadline    *string
}

type ProjectSummary struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Deadline  *string `json:"deadline"`
	TaskCount int     `json:"taskCount"`
}

// ActiveProject is the read view handed to the presentation layer.
type ActiveProject struct {
	Project     Project          `json:"project"`
	Tasks       []Task           `json:"tasks"`
	AllProjects []ProjectSummary `json:"allProjects"`
}

type Progress struct {
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
	Percent   float64 `json:"percent"`
}

// ProgressOf counts completed tasks.
func ProgressOf(tasks []Task) Progress {
	p := Progress{Total: len(tasks)}
	if p.Total == 0 {
		return p
	}
	for _, t := range tasks {
		if t.Completed {
			p.Completed++
		}
	}
	p.Percent = float64(p.Completed) / float64(p.Total) * 100
	return p
}

func Summarize(p Project) ProjectSummary {
	return ProjectSummary{ID: p.ID, Name: p.Name, Deadline: p.Deadline, TaskCount: len(p.Tasks)}
}

// Clone deep-copies a project so callers never alias store state.
func (p Project) Clone() Project {
	out := p
	out.Deadline = cloneString(p.Deadline)
	if p.Tasks != nil {
		out.Tasks = make([]Task, len(p.Tasks))
		for i, t := range p.Tasks {
			out.Tasks[i] = t.Clone()
		}
	}
	return out
}

func (t Task) Clone() Task {
	out := t
	out.Urgency = cloneFloat(t.Urgency)
	out.Importance = cloneFloat(t.Importance)
	out.StartDate = cloneString(t.StartDate)
	out.Deadline = cloneString(t.Deadline)
	if t.LastPosition != nil {
		pos := *t.LastPosition
		out.LastPosition = &pos
	}
	return out
}

// Score is the urgency+importance sum used for ordering.
func (t Task) Score() float64 {
	return valueOr(t.Urgency) + valueOr(t.Importance)
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	s := *v
	return &s
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	f := *v
	return &f
}

func valueOr(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
