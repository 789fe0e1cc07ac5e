package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Paper types recognised by the extraction prompt.
const (
	PaperTypePreviousYear = "previous_year"
	PaperTypeSamplePaper  = "sample_paper"
	PaperTypeCurrentYear  = "current_year"
)

// PaperParams carries board/grade/subject metadata for a paper.
type PaperParams struct {
	Board   *string `json:"board"   bson:"board,omitempty"`
	Grade   int     `json:"grade"   bson:"grade"`
	Subject string  `json:"subject" bson:"subject"`
}

// Question is a single question inside a section. Optional fields are
// pointers and serialize as null when absent.
type Question struct {
	Question     string   `json:"question"               bson:"question"`
	Answer       *string  `json:"answer"                 bson:"answer,omitempty"`
	Type         string   `json:"type"                   bson:"type"`
	QuestionSlug string   `json:"question_slug"          bson:"question_slug"`
	ReferenceID  *string  `json:"reference_id,omitempty" bson:"reference_id,omitempty"`
	Hint         *string  `json:"hint,omitempty"         bson:"hint,omitempty"`
	Params       ParamMap `json:"params,omitempty"       bson:"params,omitempty"`
}

// Section is a graded grouping of questions within a paper.
type Section struct {
	MarksPerQuestion int        `json:"marks_per_question" bson:"marks_per_question"`
	Type             string     `json:"type"               bson:"type"`
	Questions        []Question `json:"questions"          bson:"questions"`
}

// Paper is a structured exam document stored in MongoDB.
type Paper struct {
	ID       primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Title    string             `json:"title"        bson:"title"`
	Type     string             `json:"type"         bson:"type"`
	Time     int                `json:"time"         bson:"time"`
	Marks    int                `json:"marks"        bson:"marks"`
	Params   *PaperParams       `json:"params"       bson:"params,omitempty"`
	Tags     []string           `json:"tags"         bson:"tags"`
	Chapters []string           `json:"chapters"     bson:"chapters"`
	Sections []Section          `json:"sections"     bson:"sections"`
}

// PaperSummary is one search hit for GET /papers/search.
type PaperSummary struct {
	PaperID string `json:"paper_id"`
	Title   string `json:"title"`
	Subject string `json:"subject"`
}

// SearchResponse is the body of a successful search.
type SearchResponse struct {
	Message string         `json:"message"`
	Results []PaperSummary `json:"results"`
}
