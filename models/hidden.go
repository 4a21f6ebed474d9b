package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type HideReason string

const (
	HideDone    HideReason = "DONE"
	HideSkipped HideReason = "SKIPPED"
)

func (r HideReason) Valid() bool { return r == HideDone || r == HideSkipped }

// HiddenTask removes a template task from the daily view of a season.
// (SeasonID, TaskName) is unique.
type HiddenTask struct {
	ID       primitive.ObjectID  `bson:"_id,omitempty"  json:"id"`
	SeasonID primitive.ObjectID  `bson:"season"         json:"season"`
	TaskName string              `bson:"taskName"       json:"taskName"`
	UserID   *primitive.ObjectID `bson:"user,omitempty" json:"user,omitempty"`
	Reason   HideReason          `bson:"reason"         json:"reason"`
	HiddenAt time.Time           `bson:"hiddenDate"     json:"hiddenDate"`
}
