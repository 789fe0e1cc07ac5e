// Package schema performs strict structural validation of untyped JSON
// trees against the paper document schema. It rejects type mismatches
// instead of coercing them and applies no cross-field business rules.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/zuai/sample-paper-api/internal/models"
)

// ValidationError reports the first structural problem found, with the
// path of the offending field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Msg)
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Msg)
}

func errAt(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Msg: msg}
}

// Validate checks a candidate paper document and returns the typed Paper.
// Every required field must be present with the correct JSON type; optional
// fields default to nil. Each section must carry at least one question.
func Validate(data []byte) (*models.Paper, error) {
	obj, err := decodeObject(data, "")
	if err != nil {
		return nil, err
	}

	paper := &models.Paper{}
	if paper.Title, err = reqString(obj, "", "title"); err != nil {
		return nil, err
	}
	if paper.Type, err = reqString(obj, "", "type"); err != nil {
		return nil, err
	}
	if paper.Time, err = reqNonNegInt(obj, "", "time"); err != nil {
		return nil, err
	}
	if paper.Marks, err = reqNonNegInt(obj, "", "marks"); err != nil {
		return nil, err
	}
	if paper.Params, err = optPaperParams(obj, "params"); err != nil {
		return nil, err
	}
	if paper.Tags, err = reqStringList(obj, "", "tags"); err != nil {
		return nil, err
	}
	if paper.Chapters, err = reqStringList(obj, "", "chapters"); err != nil {
		return nil, err
	}
	if paper.Sections, err = reqSections(obj, "sections", true); err != nil {
		return nil, err
	}
	return paper, nil
}

// ValidateUpdate checks a partial paper document. Only provided fields are
// validated and returned; arrays replace the stored value wholesale, and
// the non-empty-questions rule is not applied. Keys outside the schema are
// rejected.
func ValidateUpdate(data []byte) (map[string]interface{}, error) {
	obj, err := decodeObject(data, "")
	if err != nil {
		return nil, err
	}
	if len(obj) == 0 {
		return nil, errAt("", "no fields to update")
	}

	fields := make(map[string]interface{}, len(obj))
	for key := range obj {
		switch key {
		case "title", "type":
			v, err := reqString(obj, "", key)
			if err != nil {
				return nil, err
			}
			fields[key] = v
		case "time", "marks":
			v, err := reqNonNegInt(obj, "", key)
			if err != nil {
				return nil, err
			}
			fields[key] = v
		case "params":
			v, err := optPaperParams(obj, "params")
			if err != nil {
				return nil, err
			}
			fields[key] = v
		case "tags", "chapters":
			v, err := reqStringList(obj, "", key)
			if err != nil {
				return nil, err
			}
			fields[key] = v
		case "sections":
			v, err := reqSections(obj, "sections", false)
			if err != nil {
				return nil, err
			}
			fields[key] = v
		default:
			return nil, errAt(key, "unknown field")
		}
	}
	return fields, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func decodeObject(data []byte, path string) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		return nil, errAt(path, "must be a JSON object")
	}
	return obj, nil
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func reqString(obj map[string]json.RawMessage, path, key string) (string, error) {
	raw, ok := obj[key]
	if !ok {
		return "", errAt(joinPath(path, key), "field required")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", errAt(joinPath(path, key), "must be a string")
	}
	return s, nil
}

func reqNonNegInt(obj map[string]json.RawMessage, path, key string) (int, error) {
	v, err := reqInt(obj, path, key)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, errAt(joinPath(path, key), "must not be negative")
	}
	return v, nil
}

func reqInt(obj map[string]json.RawMessage, path, key string) (int, error) {
	raw, ok := obj[key]
	if !ok {
		return 0, errAt(joinPath(path, key), "field required")
	}
	// encoding/json happily stores a quoted numeric literal into a
	// json.Number, so rule strings out up front.
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] == '"' {
		return 0, errAt(joinPath(path, key), "must be an integer")
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return 0, errAt(joinPath(path, key), "must be an integer")
	}
	v, err := n.Int64()
	if err != nil {
		return 0, errAt(joinPath(path, key), "must be an integer")
	}
	return int(v), nil
}

func optString(obj map[string]json.RawMessage, path, key string) (*string, error) {
	raw, ok := obj[key]
	if !ok || isNull(raw) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, errAt(joinPath(path, key), "must be a string or null")
	}
	return &s, nil
}

func reqStringList(obj map[string]json.RawMessage, path, key string) ([]string, error) {
	raw, ok := obj[key]
	if !ok {
		return nil, errAt(joinPath(path, key), "field required")
	}
	if isNull(raw) {
		return nil, errAt(joinPath(path, key), "must be a list of strings")
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, errAt(joinPath(path, key), "must be a list of strings")
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}

func optPaperParams(obj map[string]json.RawMessage, key string) (*models.PaperParams, error) {
	raw, ok := obj[key]
	if !ok || isNull(raw) {
		return nil, nil
	}
	inner, err := decodeObject(raw, key)
	if err != nil {
		return nil, err
	}
	params := &models.PaperParams{}
	if params.Board, err = optString(inner, key, "board"); err != nil {
		return nil, err
	}
	if params.Grade, err = reqInt(inner, key, "grade"); err != nil {
		return nil, err
	}
	if params.Subject, err = reqString(inner, key, "subject"); err != nil {
		return nil, err
	}
	return params, nil
}

func optParamMap(obj map[string]json.RawMessage, path, key string) (models.ParamMap, error) {
	raw, ok := obj[key]
	if !ok || isNull(raw) {
		return nil, nil
	}
	var pm models.ParamMap
	if err := json.Unmarshal(raw, &pm); err != nil {
		return nil, errAt(joinPath(path, key), err.Error())
	}
	return pm, nil
}

func reqSections(obj map[string]json.RawMessage, key string, requireQuestions bool) ([]models.Section, error) {
	raw, ok := obj[key]
	if !ok {
		return nil, errAt(key, "field required")
	}
	if isNull(raw) {
		return nil, errAt(key, "must be a list")
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, errAt(key, "must be a list")
	}

	sections := make([]models.Section, 0, len(items))
	for i, item := range items {
		path := fmt.Sprintf("%s[%d]", key, i)
		sec, err := validateSection(item, path, requireQuestions)
		if err != nil {
			return nil, err
		}
		sections = append(sections, *sec)
	}
	return sections, nil
}

func validateSection(raw json.RawMessage, path string, requireQuestions bool) (*models.Section, error) {
	obj, err := decodeObject(raw, path)
	if err != nil {
		return nil, err
	}
	sec := &models.Section{}
	if sec.MarksPerQuestion, err = reqInt(obj, path, "marks_per_question"); err != nil {
		return nil, err
	}
	if sec.Type, err = reqString(obj, path, "type"); err != nil {
		return nil, err
	}

	qraw, ok := obj["questions"]
	if !ok || isNull(qraw) {
		return nil, errAt(joinPath(path, "questions"), "field required")
	}
	var items []json.RawMessage
	if err := json.Unmarshal(qraw, &items); err != nil {
		return nil, errAt(joinPath(path, "questions"), "must be a list")
	}
	if requireQuestions && len(items) == 0 {
		return nil, errAt(joinPath(path, "questions"), "must not be empty")
	}
	sec.Questions = make([]models.Question, 0, len(items))
	for i, item := range items {
		q, err := validateQuestion(item, fmt.Sprintf("%s.questions[%d]", path, i))
		if err != nil {
			return nil, err
		}
		sec.Questions = append(sec.Questions, *q)
	}
	return sec, nil
}

func validateQuestion(raw json.RawMessage, path string) (*models.Question, error) {
	obj, err := decodeObject(raw, path)
	if err != nil {
		return nil, err
	}
	q := &models.Question{}
	if q.Question, err = reqString(obj, path, "question"); err != nil {
		return nil, err
	}
	if q.Question == "" {
		return nil, errAt(joinPath(path, "question"), "must not be empty")
	}
	if q.Answer, err = optString(obj, path, "answer"); err != nil {
		return nil, err
	}
	if q.Type, err = reqString(obj, path, "type"); err != nil {
		return nil, err
	}
	if q.QuestionSlug, err = reqString(obj, path, "question_slug"); err != nil {
		return nil, err
	}
	if q.ReferenceID, err = optString(obj, path, "reference_id"); err != nil {
		return nil, err
	}
	if q.Hint, err = optString(obj, path, "hint"); err != nil {
		return nil, err
	}
	if q.Params, err = optParamMap(obj, path, "params"); err != nil {
		return nil, err
	}
	return q, nil
}
