// Package domain contains the sweep domain model: sweeps, per-seed runs, and the
// hyperparameter template rendered into trainer invocations.
package domain

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	apperrors "github.com/allisson/seedsweep/internal/errors"
)

// FailurePolicy decides what happens to the rest of a sweep when one run fails.
type FailurePolicy string

const (
	// FailurePolicyContinue proceeds to the next seed after a failed run. This matches
	// the behavior of the original driver scripts, which never checked exit codes.
	FailurePolicyContinue FailurePolicy = "continue"
	// FailurePolicyAbort stops the sweep at the first failed run.
	FailurePolicyAbort FailurePolicy = "abort"
)

// ParseFailurePolicy converts a policy string into a FailurePolicy.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(s) {
	case FailurePolicyContinue:
		return FailurePolicyContinue, nil
	case FailurePolicyAbort:
		return FailurePolicyAbort, nil
	default:
		return "", apperrors.Wrap(apperrors.ErrInvalidInput,
			fmt.Sprintf("unknown failure policy %q (valid: continue, abort)", s))
	}
}

// SweepStatus is the lifecycle state of a sweep.
type SweepStatus string

const (
	SweepStatusPending   SweepStatus = "pending"
	SweepStatusRunning   SweepStatus = "running"
	SweepStatusCompleted SweepStatus = "completed"
	// SweepStatusFailed means the sweep ran to the end but at least one run failed.
	SweepStatusFailed SweepStatus = "failed"
	// SweepStatusAborted means the abort policy stopped the sweep early.
	SweepStatusAborted SweepStatus = "aborted"
)

// nameRegex keeps sweep names safe to embed in filesystem paths.
var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// Sweep is a sequence of training runs differing only in seed. Seeds cover the
// half-open range [SeedStart, SeedEnd).
type Sweep struct {
	ID              uuid.UUID
	Name            string
	SeedStart       int
	SeedEnd         int
	OutputRoot      string
	Hyperparameters Hyperparameters
	FailurePolicy   FailurePolicy
	Status          SweepStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewSweep creates a pending sweep with a fresh ID.
func NewSweep(
	name string,
	seedStart, seedEnd int,
	outputRoot string,
	hp Hyperparameters,
	policy FailurePolicy,
) *Sweep {
	now := time.Now().UTC()
	return &Sweep{
		ID:              uuid.Must(uuid.NewV7()),
		Name:            name,
		SeedStart:       seedStart,
		SeedEnd:         seedEnd,
		OutputRoot:      outputRoot,
		Hyperparameters: hp,
		FailurePolicy:   policy,
		Status:          SweepStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Validate checks the sweep definition before it is persisted or executed.
func (s *Sweep) Validate() error {
	err := validation.ValidateStruct(s,
		validation.Field(&s.Name,
			validation.Required,
			validation.Match(nameRegex).Error("must contain only letters, digits, '.', '_' or '-'"),
		),
		validation.Field(&s.SeedStart, validation.Min(0)),
		validation.Field(&s.SeedEnd,
			validation.Required,
			validation.By(func(any) error {
				if s.SeedEnd <= s.SeedStart {
					return validation.NewError(
						"validation_seed_range",
						"seed end must be greater than seed start",
					)
				}
				return nil
			}),
		),
		validation.Field(&s.OutputRoot,
			validation.Required,
			validation.By(noTraversal),
		),
		validation.Field(&s.FailurePolicy,
			validation.Required,
			validation.In(FailurePolicyContinue, FailurePolicyAbort),
		),
	)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
	}

	hp := s.Hyperparameters
	err = validation.ValidateStruct(&hp,
		validation.Field(&hp.BertModel, validation.Required),
		validation.Field(&hp.TaskName, validation.Required),
		validation.Field(&hp.DataDir, validation.Required, validation.By(noTraversal)),
		validation.Field(&hp.MaxSeqLength, validation.Required, validation.Min(1)),
		validation.Field(&hp.TrainBatchSize, validation.Required, validation.Min(1)),
		validation.Field(&hp.LearningRate, validation.Required),
		validation.Field(&hp.NumTrainEpochs, validation.Required, validation.Min(1)),
		validation.Field(&hp.NegativeWeight, validation.Required),
	)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
	}

	if hp.Reg.Enabled {
		if hp.LMDir == "" || hp.NeutralWordsFile == "" {
			return apperrors.Wrap(apperrors.ErrInvalidInput,
				"regularization requires lm_dir and neutral_words_file")
		}
	}
	return nil
}

// SeedCount returns the number of runs this sweep will issue.
func (s *Sweep) SeedCount() int {
	return s.SeedEnd - s.SeedStart
}

// Seeds returns the ordered seed values.
func (s *Sweep) Seeds() []int {
	seeds := make([]int, 0, s.SeedCount())
	for seed := s.SeedStart; seed < s.SeedEnd; seed++ {
		seeds = append(seeds, seed)
	}
	return seeds
}

// OutputDir returns the per-seed artifact directory: <root>/<name>_seed_<seed>.
func (s *Sweep) OutputDir(seed int) string {
	return filepath.Join(s.OutputRoot, fmt.Sprintf("%s_seed_%d", s.Name, seed))
}

// IsTerminal reports whether the sweep reached a final status.
func (s *Sweep) IsTerminal() bool {
	switch s.Status {
	case SweepStatusCompleted, SweepStatusFailed, SweepStatusAborted:
		return true
	default:
		return false
	}
}

// noTraversal rejects paths containing a ".." element.
func noTraversal(value any) error {
	s, _ := value.(string)
	for _, part := range strings.Split(filepath.ToSlash(s), "/") {
		if part == ".." {
			return validation.NewError("validation_path_traversal", "must not contain '..'")
		}
	}
	return nil
}
