package unfoldapp

import (
	"io"

	"unfold-core/covariance"
	"unfold-core/unfold"

	"unfold/internal/cli"
	"unfold/internal/input"
	"unfold/internal/pipeline"
)

// BuildJobs turns every input document into one job per prior. Documents
// that cannot be loaded or configured become jobs carrying the error so
// they are reported alongside the runs that succeed.
func BuildJobs(opts cli.Options, stdin io.Reader) []pipeline.Job {
	var jobs []pipeline.Job
	for _, path := range opts.Inputs {
		doc, err := input.Load(path, stdin)
		if err != nil {
			jobs = append(jobs, pipeline.Job{RunID: newRunID(), Name: path, Err: err})
			continue
		}
		jobs = append(jobs, documentJobs(opts, doc)...)
	}
	return jobs
}

func documentJobs(opts cli.Options, doc *input.Document) []pipeline.Job {
	if opts.Explicit("cause-limits") {
		doc.CauseLimits = opts.CauseLimits
	}
	base := pipeline.Job{Name: doc.Name, Timeout: opts.Timeout}

	fail := func(label string, err error) pipeline.Job {
		j := base
		j.RunID, j.Prior, j.Err = newRunID(), label, err
		return j
	}

	model, err := doc.Model()
	if err != nil {
		return []pipeline.Job{fail(opts.Prior, err)}
	}
	cfg, err := config(opts, doc)
	if err != nil {
		return []pipeline.Job{fail(opts.Prior, err)}
	}

	priors := []string{opts.Prior}
	if opts.ComparePriors {
		priors = []string{"uniform", "jeffreys"}
	}
	var jobs []pipeline.Job
	for _, name := range priors {
		src, err := doc.PriorSource(name)
		if err != nil {
			jobs = append(jobs, fail(name, err))
			continue
		}
		j := base
		j.RunID = newRunID()
		j.Prior = src.Name()
		j.Model = model
		j.Obs = doc.Observation()
		j.Config = cfg
		j.Config.Prior = src
		jobs = append(jobs, j)
	}
	return jobs
}

// config merges document settings with the command line. Flags given
// explicitly win; otherwise document values win over flag defaults.
func config(opts cli.Options, doc *input.Document) (unfold.Config, error) {
	tsName := doc.TS
	if tsName == "" || opts.Explicit("ts") {
		tsName = opts.TS
	}
	stopping := doc.TSStopping
	if stopping == 0 || opts.Explicit("ts-stopping") {
		stopping = opts.TSStopping
	}
	maxIter := doc.MaxIter
	if maxIter == 0 || opts.Explicit("max-iter") {
		maxIter = opts.MaxIter
	}
	covType := doc.CovType
	if covType == "" || opts.Explicit("cov-type") {
		covType = opts.CovType
	}
	model, err := covariance.ParseModel(covType)
	if err != nil {
		return unfold.Config{}, err
	}
	return unfold.Config{
		TestStatistic: tsName,
		Stopping:      stopping,
		MaxIterations: maxIter,
		CovModel:      model,
		KeepHistory:   opts.History,
	}, nil
}
