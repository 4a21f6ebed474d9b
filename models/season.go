package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Season is one cultivation cycle of a plot, counted from StartDate.
// StartDate is a calendar date; its time-of-day carries no meaning.
type Season struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty"          json:"id"`
	OwnerID    primitive.ObjectID  `bson:"user"                   json:"userId"`
	Name       string              `bson:"seasonName"             json:"seasonName"`
	FarmArea   string              `bson:"farmArea"               json:"farmArea"`
	TemplateID *primitive.ObjectID `bson:"planTemplate,omitempty" json:"planTemplate,omitempty"`
	StartDate  time.Time           `bson:"startDate"              json:"startDate"`
	IsActive   bool                `bson:"isActive"               json:"isActive"`
	CreatedAt  time.Time           `bson:"createdAt"              json:"createdAt"`
}

// HasTemplate reports whether the season references a care-plan template.
func (s *Season) HasTemplate() bool {
	return s.TemplateID != nil && !s.TemplateID.IsZero()
}
