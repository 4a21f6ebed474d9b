// Package report builds the read-only reports of the logbook: the
// traceability sheet of a lot and the system statistics.
package report

import (
	"time"

	"github.com/Thanhdhxd/logbook-app/models"
)

// NoTemplateName labels seasons without a plan.
const NoTemplateName = "Không có kế hoạch"

type Traceability struct {
	LotCode      string       `json:"lotCode"`
	SeasonName   string       `json:"seasonName"`
	FarmArea     string       `json:"farmArea"`
	StartDate    time.Time    `json:"startDate"`
	HarvestDate  *time.Time   `json:"harvestDate"`
	TemplateName string       `json:"templateName"`
	CropType     string       `json:"cropType"`
	Stages       []StageTrace `json:"stages"`
	// OtherTasks are completed tasks that no stage of the template names.
	OtherTasks []TaskTrace `json:"otherTasks"`
}

type StageTrace struct {
	StageName string      `json:"stageName"`
	StartDay  int         `json:"startDay"`
	EndDay    int         `json:"endDay"`
	Tasks     []TaskTrace `json:"tasks"`
}

type TaskTrace struct {
	TaskName           string                     `json:"taskName"`
	IsCompleted        bool                       `json:"isCompleted"`
	CompletedDates     []time.Time                `json:"completedDates"`
	Materials          []models.UsedMaterial      `json:"materials"`
	Notes              string                     `json:"notes"`
	ScheduledDate      *string                    `json:"scheduledDate"`
	SuggestedMaterials []models.SuggestedMaterial `json:"suggestedMaterials"`
}

// BuildTraceability lays the completed logs of a season over its template.
// done must hold the season's DONE logs in ascending log date order. Every
// template task is listed whether or not it was done; the last log date
// stands in for the harvest date.
func BuildTraceability(season *models.Season, tpl *models.Template, done []models.LogEntry) Traceability {
	tr := Traceability{
		LotCode:      season.ID.Hex(),
		SeasonName:   season.Name,
		FarmArea:     season.FarmArea,
		StartDate:    season.StartDate,
		TemplateName: NoTemplateName,
		CropType:     "N/A",
		Stages:       []StageTrace{},
		OtherTasks:   []TaskTrace{},
	}
	if n := len(done); n > 0 {
		last := done[n-1].LogDate
		tr.HarvestDate = &last
	}

	byTask := map[string][]models.LogEntry{}
	var order []string
	for _, l := range done {
		k := l.Key()
		if _, ok := byTask[k]; !ok {
			order = append(order, k)
		}
		byTask[k] = append(byTask[k], l)
	}

	planned := map[string]bool{}
	if tpl != nil {
		tr.TemplateName = tpl.Name
		tr.CropType = tpl.CropType
		for _, st := range tpl.Stages {
			stage := StageTrace{StageName: st.Name, StartDay: st.StartDay, EndDay: st.EndDay, Tasks: []TaskTrace{}}
			for _, task := range st.Tasks {
				k := models.TaskKey(task.Name)
				planned[k] = true
				t := taskTrace(task.Name, byTask[k])
				if task.ScheduledDate != "" {
					sd := task.ScheduledDate
					t.ScheduledDate = &sd
				}
				if task.SuggestedMaterials != nil {
					t.SuggestedMaterials = task.SuggestedMaterials
				}
				stage.Tasks = append(stage.Tasks, t)
			}
			tr.Stages = append(tr.Stages, stage)
		}
	}

	for _, k := range order {
		if !planned[k] {
			tr.OtherTasks = append(tr.OtherTasks, taskTrace(k, byTask[k]))
		}
	}
	return tr
}

func taskTrace(name string, logs []models.LogEntry) TaskTrace {
	t := TaskTrace{
		TaskName:           name,
		IsCompleted:        len(logs) > 0,
		CompletedDates:     []time.Time{},
		Materials:          []models.UsedMaterial{},
		SuggestedMaterials: []models.SuggestedMaterial{},
	}
	notes := ""
	for _, l := range logs {
		t.CompletedDates = append(t.CompletedDates, l.LogDate)
		t.Materials = append(t.Materials, l.UsedMaterials...)
		if l.Notes == "" {
			continue
		}
		if notes != "" {
			notes += "; "
		}
		notes += l.Notes
	}
	t.Notes = notes
	return t
}
