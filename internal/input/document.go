// internal/input/document.go
package input

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"unfold-core/errs"
	"unfold-core/prior"
	"unfold-core/response"
	"unfold-core/unfold"
)

// Document is one unfolding problem as written in a YAML (or JSON) file.
//
//	name: spectrum
//	data: [100, 150, 80]
//	data_err: [10, 12.2, 8.9]       # optional, defaults to sqrt(data)
//	response: [[...], ...]          # effects × causes, or response_hist
//	response_err: [[...], ...]      # optional, defaults to zeros
//	efficiencies: [0.8, 0.8, 0.8]   # optional with response (column sums)
//	efficiencies_err: [...]         # optional, defaults to zeros
//	prior: jeffreys                 # uniform | jeffreys | [p0, p1, ...]
//	cause_limits: [1, 10, 100]
//	ts: ks
//	ts_stopping: 0.01
//	max_iter: 100
//	cov_type: poisson
type Document struct {
	Name            string      `yaml:"name"`
	Data            []float64   `yaml:"data"`
	DataErr         []float64   `yaml:"data_err"`
	Response        [][]float64 `yaml:"response"`
	ResponseErr     [][]float64 `yaml:"response_err"`
	ResponseHist    [][]float64 `yaml:"response_hist"`
	Efficiencies    []float64   `yaml:"efficiencies"`
	EfficienciesErr []float64   `yaml:"efficiencies_err"`
	Prior           PriorSpec   `yaml:"prior"`
	CauseLimits     []float64   `yaml:"cause_limits"`
	TS              string      `yaml:"ts"`
	TSStopping      float64     `yaml:"ts_stopping"`
	MaxIter         int         `yaml:"max_iter"`
	CovType         string      `yaml:"cov_type"`

	Path string `yaml:"-"`
}

// PriorSpec is either a built-in prior name or an explicit vector.
type PriorSpec struct {
	Name   string
	Vector []float64
}

func (p *PriorSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&p.Name)
	case yaml.SequenceNode:
		return node.Decode(&p.Vector)
	default:
		return fmt.Errorf("line %d: prior must be a name or a list of numbers", node.Line)
	}
}

// Load reads one document from path; "-" reads stdin.
func Load(path string, stdin io.Reader) (*Document, error) {
	var r io.Reader
	if path == "-" {
		r = stdin
	} else {
		fh, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer func() { _ = fh.Close() }()
		r = fh
	}
	doc, err := Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Path = path
	if doc.Name == "" {
		doc.Name = nameFromPath(path)
	}
	return doc, nil
}

// Decode parses a single document. Unknown keys are rejected so typos in
// optional fields do not silently fall back to defaults.
func Decode(r io.Reader) (*Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errs.Invalid("document", "empty")
		}
		return nil, errs.Invalid("document", "%v", err)
	}
	if len(doc.Data) == 0 {
		return nil, errs.Invalid("data", "missing")
	}
	if len(doc.Response) > 0 && len(doc.ResponseHist) > 0 {
		return nil, errs.Invalid("response", "give either response or response_hist, not both")
	}
	if len(doc.Response) == 0 && len(doc.ResponseHist) == 0 {
		return nil, errs.Invalid("response", "missing (response or response_hist)")
	}
	if doc.Prior.Name != "" && len(doc.Prior.Vector) > 0 {
		return nil, errs.Invalid("prior", "ambiguous")
	}
	return &doc, nil
}

// Model builds the response model, filling optional uncertainties with zeros.
// Without explicit efficiencies a normalized response uses its column sums
// and a raw histogram uses 1.
func (d *Document) Model() (*response.Model, error) {
	if len(d.ResponseHist) > 0 {
		nc := len(d.ResponseHist[0])
		eff := d.Efficiencies
		if len(eff) == 0 {
			eff = filled(nc, 1)
		}
		return response.FromHistogram(d.ResponseHist, eff, orZeros(d.EfficienciesErr, len(eff)))
	}
	ne, nc := len(d.Response), len(d.Response[0])
	respErr := d.ResponseErr
	if len(respErr) == 0 {
		respErr = make([][]float64, ne)
		for i := range respErr {
			respErr[i] = make([]float64, nc)
		}
	}
	eff := d.Efficiencies
	if len(eff) == 0 {
		eff = columnSums(d.Response)
	}
	return response.New(d.Response, respErr, eff, orZeros(d.EfficienciesErr, len(eff)))
}

// Observation returns the data with Poisson errors when data_err is absent.
func (d *Document) Observation() unfold.Observation {
	errv := d.DataErr
	if len(errv) == 0 {
		errv = make([]float64, len(d.Data))
		for i, v := range d.Data {
			errv[i] = math.Sqrt(math.Max(v, 0))
		}
	}
	return unfold.Observation{
		Counts: append([]float64(nil), d.Data...),
		Err:    append([]float64(nil), errv...),
	}
}

// PriorSource resolves the document prior. A non-empty override (from the
// command line) replaces a named prior from the document.
func (d *Document) PriorSource(override string) (prior.Source, error) {
	if override != "" {
		return prior.ByName(override, d.CauseLimits)
	}
	if len(d.Prior.Vector) > 0 {
		return prior.Vector(append([]float64(nil), d.Prior.Vector...)), nil
	}
	return prior.ByName(d.Prior.Name, d.CauseLimits)
}

func nameFromPath(path string) string {
	if path == "-" {
		return "stdin"
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func columnSums(rows [][]float64) []float64 {
	out := make([]float64, len(rows[0]))
	for _, row := range rows {
		for j := range out {
			if j < len(row) {
				out[j] += row[j]
			}
		}
	}
	for j := range out {
		out[j] = math.Min(out[j], 1) // rounding on columns that sum to exactly 1
	}
	return out
}

func filled(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func orZeros(v []float64, n int) []float64 {
	if len(v) == 0 {
		return make([]float64, n)
	}
	return v
}
