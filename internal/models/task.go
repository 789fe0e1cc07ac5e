package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Task status values, kept as the human-readable strings stored in the
// task_status collection.
const (
	TaskInProgress = "In Progress"
	TaskCompleted  = "Completed"
	TaskFailed     = "Failed"
)

// Task tracks the lifecycle of a background extraction job.
type Task struct {
	ID          primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	Status      string             `json:"status" bson:"status"`
	Description *string            `json:"description,omitempty" bson:"description,omitempty"`
}

// TaskStatusResponse is the body of GET /tasks/{task_id}.
type TaskStatusResponse struct {
	TaskID      string  `json:"task_id"`
	Status      string  `json:"status"`
	Description *string `json:"description,omitempty"`
}
