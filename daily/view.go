package daily

import (
	"fmt"
	"strings"
	"time"

	"github.com/Thanhdhxd/logbook-app/models"
)

const (
	// StatusTodo marks a scheduled task with no log today.
	StatusTodo = "TODO"
	// ManualFrequency labels unplanned rows built from manual logs.
	ManualFrequency = "Nhật ký thủ công"
)

// Task is one row of the daily view.
type Task struct {
	TaskID             string                     `json:"taskId"`
	TaskName           string                     `json:"taskName"`
	Status             string                     `json:"status"`
	StageName          string                     `json:"stageName,omitempty"`
	Planned            bool                       `json:"planned"`
	Frequency          string                     `json:"frequency"`
	Area               string                     `json:"area"`
	Notes              string                     `json:"notes,omitempty"`
	ScheduledDate      string                     `json:"scheduledDate,omitempty"`
	SuggestedMaterials []models.SuggestedMaterial `json:"suggestedMaterials"`
	UsedMaterials      []models.UsedMaterial      `json:"usedMaterials"`
	CompletedAt        *time.Time                 `json:"completedAt"`
}

// View is the daily task list of a season.
type View struct {
	CurrentDay   int     `json:"currentDay"`
	CurrentStage *string `json:"currentStage"`
	FarmArea     string  `json:"farmArea"`
	Tasks        []Task  `json:"tasks"`

	// FutureStart is set when the season starts after today; CurrentDay is then 1.
	FutureStart bool `json:"-"`
}

// Input gathers everything Build needs. Template may be nil.
type Input struct {
	Season   models.Season
	Template *models.Template
	Now      time.Time
	Location *time.Location
	Lookback time.Duration

	Hidden []models.HiddenTask
	// ManualLogs are the season's manual logs. The whole history is used for
	// the recency check; only the lookback window becomes rows.
	ManualLogs []models.LogEntry
	// TodayLogs are the season's scheduled logs dated today.
	TodayLogs []models.LogEntry
}

// Build merges template, hidden registry and logs into the daily view. It is
// a pure function of its input.
func Build(in Input) View {
	day, future := CurrentDay(in.Season.StartDate, in.Now, in.Location)
	view := View{
		CurrentDay:  day,
		FarmArea:    in.Season.FarmArea,
		Tasks:       []Task{},
		FutureStart: future,
	}

	hidden := make(map[string]models.HiddenTask, len(in.Hidden))
	for _, h := range in.Hidden {
		hidden[models.TaskKey(h.TaskName)] = h
	}

	// Latest server-side creation instant of a manual log per task name.
	manualCreated := make(map[string]time.Time)
	for _, l := range in.ManualLogs {
		if l.LogType != models.LogManual {
			continue
		}
		k := l.Key()
		if l.CreatedAt.After(manualCreated[k]) {
			manualCreated[k] = l.CreatedAt
		}
	}

	exp := Expand(in.Template, day)
	if len(exp.Stages) > 0 {
		stage := strings.Join(exp.Stages, ", ")
		view.CurrentStage = &stage
	}

	todayByName := latestByName(in.TodayLogs)

	seen := make(map[string]bool, len(exp.Tasks))
	for _, c := range exp.Tasks {
		key := models.TaskKey(c.Task.Name)
		if seen[key] {
			continue
		}
		seen[key] = true

		if h, ok := hidden[key]; ok && !manualCreated[key].After(h.HiddenAt) {
			continue
		}

		t := Task{
			TaskID:             fmt.Sprintf("tpl-%d-%d", c.StageIndex, c.TaskIndex),
			TaskName:           c.Task.Name,
			Status:             StatusTodo,
			StageName:          c.Stage,
			Planned:            true,
			Frequency:          c.Task.Frequency,
			Area:               in.Season.FarmArea,
			ScheduledDate:      c.Task.ScheduledDate,
			SuggestedMaterials: nonNilSuggested(c.Task.SuggestedMaterials),
			UsedMaterials:      []models.UsedMaterial{},
		}
		if l, ok := todayByName[key]; ok {
			t.TaskID = l.ID.Hex()
			t.Status = string(l.Status)
			t.Notes = l.Notes
			t.CompletedAt = l.CompletedAt
			t.UsedMaterials = nonNilUsed(l.UsedMaterials)
			if l.Location != "" {
				t.Area = l.Location
			}
		}
		view.Tasks = append(view.Tasks, t)
	}

	for _, l := range AggregateManual(in.ManualLogs, in.Now.Add(-in.Lookback)) {
		area := l.Location
		if area == "" {
			area = in.Season.FarmArea
		}
		view.Tasks = append(view.Tasks, Task{
			TaskID:             l.ID.Hex(),
			TaskName:           l.TaskName,
			Status:             string(l.Status),
			Planned:            false,
			Frequency:          ManualFrequency,
			Area:               area,
			Notes:              l.Notes,
			SuggestedMaterials: []models.SuggestedMaterial{},
			UsedMaterials:      nonNilUsed(l.UsedMaterials),
			CompletedAt:        l.CompletedAt,
		})
	}

	return view
}

// latestByName keeps the scheduled log with the latest CreatedAt per task name.
func latestByName(logs []models.LogEntry) map[string]models.LogEntry {
	out := make(map[string]models.LogEntry, len(logs))
	for _, l := range logs {
		if l.LogType != models.LogScheduled {
			continue
		}
		k := l.Key()
		cur, ok := out[k]
		if !ok || l.CreatedAt.After(cur.CreatedAt) ||
			(l.CreatedAt.Equal(cur.CreatedAt) && l.ID.Hex() > cur.ID.Hex()) {
			out[k] = l
		}
	}
	return out
}

func nonNilSuggested(in []models.SuggestedMaterial) []models.SuggestedMaterial {
	if in == nil {
		return []models.SuggestedMaterial{}
	}
	return in
}

func nonNilUsed(in []models.UsedMaterial) []models.UsedMaterial {
	if in == nil {
		return []models.UsedMaterial{}
	}
	return in
}

// CountVisible is the number of planned tasks still to do, used by reminders.
func (v View) CountVisible() int {
	n := 0
	for _, t := range v.Tasks {
		if t.Planned && t.Status == StatusTodo {
			n++
		}
	}
	return n
}
