package similarity

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Model holds the reference-sample statistics the per-cell scoring
// needs: the mean vector and covariance matrix across covariates.
type Model struct {
	Mean []float64
	Cov  *mat.SymDense
}

// Backend fits a Model to an m-samples × n-covariates matrix. The
// default backend runs in-process; an external statistics runtime can be
// substituted without touching the sampling or raster code.
type Backend interface {
	Fit(ctx context.Context, samples *mat.Dense) (*Model, error)
}

// GonumBackend computes the sample statistics in-process.
type GonumBackend struct{}

// Fit computes the column means and sample covariance matrix.
func (GonumBackend) Fit(_ context.Context, samples *mat.Dense) (*Model, error) {
	m, n := samples.Dims()
	if m < 2 {
		return nil, eris.Errorf("similarity: %d sample(s), need at least 2 for a covariance estimate", m)
	}

	mean := make([]float64, n)
	for j := 0; j < n; j++ {
		mean[j] = stat.Mean(mat.Col(nil, j, samples), nil)
	}

	cov := mat.NewSymDense(n, nil)
	stat.CovarianceMatrix(cov, samples, nil)

	return &Model{Mean: mean, Cov: cov}, nil
}

// execRequest and execResponse are the JSON wire format of the external
// statistics subprocess: samples in, mean vector and covariance matrix
// out.
type execRequest struct {
	Samples [][]float64 `json:"samples"`
}

type execResponse struct {
	Mean []float64   `json:"mean"`
	Cov  [][]float64 `json:"cov"`
}

// ExecBackend shells out to an external statistics runtime and waits for
// it synchronously. Any subprocess failure is surfaced as a fatal step
// error, never silently ignored.
type ExecBackend struct {
	Command []string
}

// Fit pipes the sample matrix to the subprocess as JSON and parses the
// fitted model from its stdout.
func (e ExecBackend) Fit(ctx context.Context, samples *mat.Dense) (*Model, error) {
	if len(e.Command) == 0 {
		return nil, eris.New("similarity: exec backend command is empty")
	}

	m, n := samples.Dims()
	req := execRequest{Samples: make([][]float64, m)}
	for i := 0; i < m; i++ {
		req.Samples[i] = mat.Row(nil, i, samples)
	}
	input, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "similarity: marshal samples")
	}

	cmd := exec.CommandContext(ctx, e.Command[0], e.Command[1:]...)
	cmd.Stdin = bytes.NewReader(input)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, eris.Wrapf(err, "similarity: statistics subprocess %s failed: %s", e.Command[0], stderr.String())
	}

	var resp execResponse
	if err := json.Unmarshal(out, &resp); err != nil {
		return nil, eris.Wrapf(err, "similarity: parse subprocess output")
	}
	if len(resp.Mean) != n || len(resp.Cov) != n {
		return nil, eris.Errorf("similarity: subprocess returned %d-variate model, want %d", len(resp.Mean), n)
	}

	cov := mat.NewSymDense(n, nil)
	for i := range resp.Cov {
		if len(resp.Cov[i]) != n {
			return nil, eris.Errorf("similarity: subprocess covariance row %d has %d entries, want %d", i, len(resp.Cov[i]), n)
		}
		for j := i; j < n; j++ {
			cov.SetSym(i, j, resp.Cov[i][j])
		}
	}

	zap.L().Debug("similarity: fitted model via subprocess",
		zap.String("command", e.Command[0]),
		zap.Int("samples", m),
		zap.Int("covariates", n),
	)
	return &Model{Mean: resp.Mean, Cov: cov}, nil
}
