package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Template is a reusable care plan: stages keyed by day range, each with its
// suggested tasks. Stages, tasks and materials are embedded and have no identity.
type Template struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty"          json:"id"                     yaml:"-"`
	Name         string              `bson:"templateName"           json:"templateName"           yaml:"templateName" validate:"required"`
	CropType     string              `bson:"cropType"               json:"cropType"               yaml:"cropType"     validate:"required"`
	DurationDays *int                `bson:"durationDays,omitempty" json:"durationDays,omitempty" yaml:"durationDays,omitempty" validate:"omitempty,gt=0"`
	Stages       []Stage             `bson:"stages"                 json:"stages"                 yaml:"stages"       validate:"dive"`
	CreatedBy    *primitive.ObjectID `bson:"createdBy,omitempty"    json:"createdBy,omitempty"    yaml:"-"`
	CreatedAt    time.Time           `bson:"createdAt"              json:"createdAt"              yaml:"-"`
}

// Stage covers the inclusive day range [StartDay, EndDay]; day 1 is the season start.
type Stage struct {
	Name     string          `bson:"stageName" json:"stageName" yaml:"stageName" validate:"required"`
	StartDay int             `bson:"startDay"  json:"startDay"  yaml:"startDay"  validate:"gte=1"`
	EndDay   int             `bson:"endDay"    json:"endDay"    yaml:"endDay"    validate:"gtefield=StartDay"`
	Tasks    []ScheduledTask `bson:"tasks"     json:"tasks"     yaml:"tasks"     validate:"dive"`
}

// Contains reports whether day falls inside the stage, both ends inclusive.
func (s Stage) Contains(day int) bool {
	return day >= s.StartDay && day <= s.EndDay
}

type ScheduledTask struct {
	Name               string              `bson:"taskName"                json:"taskName"                yaml:"taskName" validate:"required"`
	Frequency          string              `bson:"frequency,omitempty"     json:"frequency,omitempty"     yaml:"frequency,omitempty"`
	ScheduledDate      string              `bson:"scheduledDate,omitempty" json:"scheduledDate,omitempty" yaml:"scheduledDate,omitempty"` // DD/MM/YYYY, display only
	SuggestedMaterials []SuggestedMaterial `bson:"suggestedMaterials"      json:"suggestedMaterials"      yaml:"suggestedMaterials,omitempty"`
}

// SuggestedMaterial is advisory; it is never checked against actual usage.
type SuggestedMaterial struct {
	Name                  string `bson:"materialName"                    json:"materialName"                    yaml:"materialName"`
	SuggestedQuantityUnit string `bson:"suggestedQuantityUnit,omitempty" json:"suggestedQuantityUnit,omitempty" yaml:"suggestedQuantityUnit,omitempty"`
}

// SuggestedFor returns the suggested materials of the last task named taskName,
// or an empty list.
func (t *Template) SuggestedFor(taskName string) []SuggestedMaterial {
	out := []SuggestedMaterial{}
	for _, st := range t.Stages {
		for _, task := range st.Tasks {
			if task.Name == taskName && task.SuggestedMaterials != nil {
				out = task.SuggestedMaterials
			}
		}
	}
	return out
}
