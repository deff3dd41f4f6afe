// Package grading implements the advanced grading method used in place of
// direct numeric or scale input when an assignment has an active grading
// definition: a rubric of criteria, each with scored levels.
package grading

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/assignflow-api/internal/models"
	"github.com/noah-isme/assignflow-api/internal/repository"
)

// MethodRubric is the only advanced grading method currently installed.
const MethodRubric = "rubric"

// ErrInvalidDefinition indicates a definition document failed schema validation.
var ErrInvalidDefinition = errors.New("invalid grading definition")

// ErrInvalidFill indicates a filled form does not match the definition.
var ErrInvalidFill = errors.New("invalid grading fill")

const rubricSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["criteria"],
  "properties": {
    "criteria": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "description", "levels"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "description": {"type": "string"},
          "levels": {
            "type": "array",
            "minItems": 2,
            "items": {
              "type": "object",
              "required": ["score", "definition"],
              "properties": {
                "score": {"type": "number", "minimum": 0},
                "definition": {"type": "string"}
              }
            }
          }
        }
      }
    }
  }
}`

// Rubric is a parsed grading definition.
type Rubric struct {
	Criteria []Criterion `json:"criteria"`
}

// Criterion is one rubric row.
type Criterion struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Levels      []Level `json:"levels"`
}

// Level is one selectable cell of a criterion.
type Level struct {
	Score      float64 `json:"score"`
	Definition string  `json:"definition"`
}

// Fill is a grader's completed rubric: the selected level index per criterion.
type Fill struct {
	Selections map[string]int `json:"selections"`
}

// Service manages grading definitions and resolves grading instances.
type Service struct {
	definitions repository.GradingDefinitionRepository
	schema      *jsonschema.Schema
}

// NewService constructs the advanced grading service. The rubric schema is
// compiled once; a compile failure is a programming error.
func NewService(definitions repository.GradingDefinitionRepository) *Service {
	schema := jsonschema.MustCompileString("rubric.schema.json", rubricSchema)
	return &Service{definitions: definitions, schema: schema}
}

// SaveDefinition validates and stores a rubric definition for the assignment.
func (s *Service) SaveDefinition(ctx context.Context, assignmentID uint, definition json.RawMessage, active bool) error {
	var doc interface{}
	if err := json.Unmarshal(definition, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	if err := s.schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}

	record := models.GradingDefinition{
		AssignmentID: assignmentID,
		Method:       MethodRubric,
		Definition:   datatypes.JSON(definition),
		Active:       active,
	}

	return s.definitions.Upsert(ctx, &record)
}

// ActiveInstance returns a grading instance bound to the assignment's active
// definition, or false when no active definition exists.
func (s *Service) ActiveInstance(ctx context.Context, assignmentID uint) (*Instance, bool, error) {
	record, err := s.definitions.GetActive(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var rubric Rubric
	if err := json.Unmarshal(record.Definition, &rubric); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}

	return &Instance{
		definitionID: record.ID,
		rubric:       rubric,
		definitions:  s.definitions,
	}, true, nil
}

// Instance grades one submission against a rubric definition.
type Instance struct {
	definitionID uint
	rubric       Rubric
	definitions  repository.GradingDefinitionRepository
}

// SubmitAndGetGrade validates the filled rubric, persists it against the
// grade record and returns the grade value mapped onto [0, maxGrade].
func (i *Instance) SubmitAndGetGrade(ctx context.Context, fillData json.RawMessage, gradeID, raterID uint, maxGrade float64) (float64, error) {
	var fill Fill
	if err := json.Unmarshal(fillData, &fill); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidFill, err)
	}

	raw, err := i.score(fill)
	if err != nil {
		return 0, err
	}

	record := models.GradingFill{
		DefinitionID: i.definitionID,
		GradeID:      gradeID,
		RaterID:      raterID,
		Fill:         datatypes.JSON(fillData),
		RawGrade:     raw,
	}
	if err := i.definitions.UpsertFill(ctx, &record); err != nil {
		return 0, err
	}

	return i.mapToRange(raw, maxGrade), nil
}

// score sums the selected level score of every criterion. Every criterion must
// have a selection and each selection must name an existing level.
func (i *Instance) score(fill Fill) (float64, error) {
	total := 0.0
	for _, criterion := range i.rubric.Criteria {
		selected, ok := fill.Selections[criterion.ID]
		if !ok {
			return 0, fmt.Errorf("%w: criterion %q not filled", ErrInvalidFill, criterion.ID)
		}
		if selected < 0 || selected >= len(criterion.Levels) {
			return 0, fmt.Errorf("%w: criterion %q has no level %d", ErrInvalidFill, criterion.ID, selected)
		}
		total += criterion.Levels[selected].Score
	}
	return total, nil
}

// mapToRange linearly maps the raw score between the rubric's minimum and
// maximum attainable totals onto [0, maxGrade].
func (i *Instance) mapToRange(raw, maxGrade float64) float64 {
	minTotal, maxTotal := 0.0, 0.0
	for _, criterion := range i.rubric.Criteria {
		low, high := criterion.Levels[0].Score, criterion.Levels[0].Score
		for _, level := range criterion.Levels {
			if level.Score < low {
				low = level.Score
			}
			if level.Score > high {
				high = level.Score
			}
		}
		minTotal += low
		maxTotal += high
	}

	if maxTotal <= minTotal {
		return 0
	}

	return (raw - minTotal) / (maxTotal - minTotal) * maxGrade
}
