package domain

import "strconv"

// RegSettings holds the explanation-regularization settings passed to the trainer.
// When Enabled is false none of the regularization flags are emitted.
type RegSettings struct {
	// NbRange is the neighbor range used by the regularization scheme.
	NbRange int
	// SampleN is the number of samples drawn per instance.
	SampleN int
	// Strength is the regularization strength, kept as the literal string passed on
	// the command line (e.g., "0.1") so re-rendered argument lists are byte-identical.
	Strength string

	Enabled bool
}

// Hyperparameters holds the fixed trainer hyperparameters for a sweep. Only the seed
// and the output directory vary across a sweep's invocations; everything here is
// identical for every seed.
//
// LearningRate and NegativeWeight are kept as literal strings for the same reason
// as RegSettings.Strength: the external contract is a command line, and "2e-5" must
// not be re-rendered as "0.00002".
type Hyperparameters struct {
	BertModel        string
	MaxSeqLength     int
	TrainBatchSize   int
	LearningRate     string
	NumTrainEpochs   int
	EarlyStop        int
	TaskName         string
	NegativeWeight   string
	DoLowerCase      bool
	DataDir          string
	LMDir            string
	NeutralWordsFile string
	Reg              RegSettings
}

// Argv renders the full trainer argument list for one seed. Flag names and ordering
// follow the external training entrypoint's contract verbatim.
func (h Hyperparameters) Argv(outputDir string, seed int) []string {
	argv := []string{"--do_train"}
	if h.DoLowerCase {
		argv = append(argv, "--do_lower_case")
	}
	argv = append(argv,
		"--data_dir", h.DataDir,
		"--bert_model", h.BertModel,
		"--max_seq_length", strconv.Itoa(h.MaxSeqLength),
		"--train_batch_size", strconv.Itoa(h.TrainBatchSize),
		"--learning_rate", h.LearningRate,
		"--num_train_epochs", strconv.Itoa(h.NumTrainEpochs),
		"--early_stop", strconv.Itoa(h.EarlyStop),
		"--output_dir", outputDir,
		"--seed", strconv.Itoa(seed),
		"--task_name", h.TaskName,
		"--negative_weight", h.NegativeWeight,
	)
	if h.Reg.Enabled {
		argv = append(argv,
			"--reg_explanations",
			"--nb_range", strconv.Itoa(h.Reg.NbRange),
			"--sample_n", strconv.Itoa(h.Reg.SampleN),
			"--reg_strength", h.Reg.Strength,
			"--lm_dir", h.LMDir,
			"--neutral_words_file", h.NeutralWordsFile,
		)
	}
	return argv
}
