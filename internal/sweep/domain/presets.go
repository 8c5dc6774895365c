package domain

import (
	"fmt"
	"path/filepath"

	apperrors "github.com/allisson/seedsweep/internal/errors"
)

// PresetPaths supplies the machine-local filesystem locations a preset is rendered
// against. Everything else about a preset is fixed.
type PresetPaths struct {
	DataRoot         string
	OutputRoot       string
	LMDir            string
	NeutralWordsFile string
}

// Preset names for the three original sweep configurations.
const (
	PresetGabVanilla = "gab-vanilla"
	PresetGabReg     = "gab-reg"
	PresetWSReg      = "ws-reg"
)

// PresetNames lists the available presets in display order.
func PresetNames() []string {
	return []string{PresetGabVanilla, PresetGabReg, PresetWSReg}
}

// defaultHyperparameters is the fixed template shared by all presets.
func defaultHyperparameters(taskName, dataDir, lmDir, neutralWordsFile string) Hyperparameters {
	return Hyperparameters{
		BertModel:        "bert-base-uncased",
		MaxSeqLength:     128,
		TrainBatchSize:   32,
		LearningRate:     "2e-5",
		NumTrainEpochs:   20,
		EarlyStop:        5,
		TaskName:         taskName,
		NegativeWeight:   "0.1",
		DoLowerCase:      true,
		DataDir:          dataDir,
		LMDir:            lmDir,
		NeutralWordsFile: neutralWordsFile,
	}
}

// regDefaults is the regularization configuration used by the reg presets.
func regDefaults() RegSettings {
	return RegSettings{
		Enabled:  true,
		NbRange:  0,
		SampleN:  1,
		Strength: "0.1",
	}
}

// NewPresetSweep builds a sweep from one of the built-in presets:
//
//   - gab-vanilla: seeds [0,10), Gab dataset, no regularization
//   - gab-reg: seeds [4,10), Gab dataset, explanation regularization
//   - ws-reg: seeds [4,10), white-supremacy forum dataset, explanation regularization
func NewPresetSweep(name string, policy FailurePolicy, paths PresetPaths) (*Sweep, error) {
	switch name {
	case PresetGabVanilla:
		hp := defaultHyperparameters(
			"gab",
			filepath.Join(paths.DataRoot, "majority_gab_dataset_25k"),
			paths.LMDir,
			paths.NeutralWordsFile,
		)
		return NewSweep(name, 0, 10, paths.OutputRoot, hp, policy), nil

	case PresetGabReg:
		hp := defaultHyperparameters(
			"gab",
			filepath.Join(paths.DataRoot, "majority_gab_dataset_25k"),
			paths.LMDir,
			paths.NeutralWordsFile,
		)
		hp.Reg = regDefaults()
		return NewSweep(name, 4, 10, paths.OutputRoot, hp, policy), nil

	case PresetWSReg:
		hp := defaultHyperparameters(
			"ws",
			filepath.Join(paths.DataRoot, "white_supremacy"),
			paths.LMDir,
			paths.NeutralWordsFile,
		)
		hp.Reg = regDefaults()
		return NewSweep(name, 4, 10, paths.OutputRoot, hp, policy), nil

	default:
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput,
			fmt.Sprintf("unknown preset %q (valid: %v)", name, PresetNames()))
	}
}
