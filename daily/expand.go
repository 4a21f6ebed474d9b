package daily

import "github.com/Thanhdhxd/logbook-app/models"

// Candidate is a template task scheduled for the current day.
type Candidate struct {
	Stage      string
	StageIndex int
	TaskIndex  int
	Task       models.ScheduledTask
}

// Expansion is the template's contribution to one day.
type Expansion struct {
	Tasks  []Candidate
	Stages []string
}

// Expand collects the tasks of every stage whose inclusive day range contains
// day. Stages may overlap; matches keep stage order, then task order. A nil
// template yields an empty expansion.
func Expand(tpl *models.Template, day int) Expansion {
	var out Expansion
	if tpl == nil {
		return out
	}
	for si, st := range tpl.Stages {
		if !st.Contains(day) {
			continue
		}
		out.Stages = append(out.Stages, st.Name)
		for ti, task := range st.Tasks {
			out.Tasks = append(out.Tasks, Candidate{
				Stage:      st.Name,
				StageIndex: si,
				TaskIndex:  ti,
				Task:       task,
			})
		}
	}
	return out
}
