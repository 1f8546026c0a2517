// Package seed loads a project work breakdown from YAML. The file nests
// tasks under their parents; ids, levels, leaf flags, durations and leaf
// statuses are derived while flattening.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mtlprog/constructos/internal/domain"
	"github.com/mtlprog/constructos/internal/service"
)

// DefaultProject is a small sample project used by the demo server.
//
//go:embed default.yaml
var DefaultProject []byte

// File is the root of a seed document.
type File struct {
	Tasks []Node `yaml:"tasks"`
}

// Node is one task of the seed tree.
type Node struct {
	ID                int64   `yaml:"id"`
	Name              string  `yaml:"name"`
	Phase             string  `yaml:"phase"`
	StartDate         string  `yaml:"start_date"`
	EndDate           string  `yaml:"end_date"`
	Progress          float64 `yaml:"progress"`
	ExcludeFromRollup bool    `yaml:"exclude_from_rollup"`
	RiskFlagged       bool    `yaml:"risk_flagged"`
	RiskNotes         string  `yaml:"risk_notes"`
	Notes             string  `yaml:"notes"`
	Children          []Node  `yaml:"children"`
}

// ErrInvalidSeed is returned for structurally invalid seed documents.
var ErrInvalidSeed = errors.New("invalid seed")

// Parse decodes a seed document and flattens it into tasks ordered parent
// before child. Leaf statuses are derived against today; parent progress is
// left at zero for the rollup to fill in.
func Parse(r io.Reader, today time.Time) ([]*domain.Task, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidSeed, err)
	}
	if len(file.Tasks) == 0 {
		return nil, fmt.Errorf("%w: no tasks", ErrInvalidSeed)
	}

	f := &flattener{today: today, seen: make(map[int64]bool)}
	for _, node := range file.Tasks {
		if err := f.add(node, nil, 0, ""); err != nil {
			return nil, err
		}
	}
	return f.tasks, nil
}

// LoadFile parses the seed document at path.
func LoadFile(path string, today time.Time) ([]*domain.Task, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed %s: %w", path, err)
	}
	defer file.Close()

	return Parse(file, today)
}

// Apply writes the tasks in a single unit of work.
func Apply(ctx context.Context, uow service.UnitOfWork, tasks []*domain.Task) error {
	return uow.InTx(ctx, func(store service.Store) error {
		for _, task := range tasks {
			if err := store.PutTask(ctx, task); err != nil {
				return fmt.Errorf("seed task %d: %w", task.ID, err)
			}
		}
		return nil
	})
}

type flattener struct {
	today time.Time
	seen  map[int64]bool
	tasks []*domain.Task
}

func (f *flattener) add(node Node, parentID *int64, level int, parentPhase domain.Phase) error {
	if node.ID <= 0 {
		return fmt.Errorf("%w: task %q has non-positive id %d", ErrInvalidSeed, node.Name, node.ID)
	}
	if f.seen[node.ID] {
		return fmt.Errorf("%w: duplicate task id %d", ErrInvalidSeed, node.ID)
	}
	f.seen[node.ID] = true

	if node.Name == "" {
		return fmt.Errorf("%w: task %d has no name", ErrInvalidSeed, node.ID)
	}

	phase := domain.Phase(node.Phase)
	if phase == "" {
		phase = parentPhase
	}
	if !phase.IsValid() {
		return fmt.Errorf("%w: task %d: %w %q", ErrInvalidSeed, node.ID, domain.ErrInvalidPhase, phase)
	}

	start, err := domain.ParseDate(node.StartDate)
	if err != nil {
		return fmt.Errorf("%w: task %d start: %w", ErrInvalidSeed, node.ID, err)
	}
	end, err := domain.ParseDate(node.EndDate)
	if err != nil {
		return fmt.Errorf("%w: task %d end: %w", ErrInvalidSeed, node.ID, err)
	}
	if math.IsNaN(node.Progress) || math.IsInf(node.Progress, 0) {
		return fmt.Errorf("%w: task %d progress must be a finite number", ErrInvalidSeed, node.ID)
	}

	isLeaf := len(node.Children) == 0
	task := &domain.Task{
		ID:                node.ID,
		ParentID:          parentID,
		Name:              node.Name,
		Level:             level,
		Phase:             phase,
		IsLeaf:            isLeaf,
		ExcludeFromRollup: node.ExcludeFromRollup,
		StartDate:         start,
		EndDate:           end,
		Duration:          domain.InclusiveDays(start, end),
		RiskFlagged:       node.RiskFlagged,
		RiskNotes:         node.RiskNotes,
		Notes:             node.Notes,
		UpdatedAt:         f.today,
		Status:            domain.StatusNotStarted,
	}
	if isLeaf {
		task.Progress = service.NormalizeProgress(node.Progress)
		task.Status = service.DeriveLeafStatus(task.Progress, task.RiskFlagged, end, f.today)
	} else if node.RiskFlagged {
		task.Status = domain.StatusAtRisk
	}
	f.tasks = append(f.tasks, task)

	id := node.ID
	for _, child := range node.Children {
		if err := f.add(child, &id, level+1, phase); err != nil {
			return err
		}
	}
	return nil
}
