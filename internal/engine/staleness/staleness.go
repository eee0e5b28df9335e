// Package staleness decides whether a node's outputs are out of date.
package staleness

import (
	"errors"
	"io/fs"
	"maps"
	"runtime"
	"slices"
	"sync"

	"go.trai.ch/ripple/internal/core/domain"
	"go.trai.ch/ripple/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Verdict is the outcome of a staleness check.
type Verdict struct {
	Stale  bool
	Reason string
	// Inputs holds the current fingerprints of the node's inputs that exist.
	// They are recorded after a successful run.
	Inputs map[string]domain.Fingerprint
}

// Detector compares current fingerprints against the signature store.
// It never writes to the store.
type Detector struct {
	fp    ports.Fingerprinter
	store ports.SignatureStore
	limit int
}

// New creates a Detector.
func New(fp ports.Fingerprinter, store ports.SignatureStore) *Detector {
	return &Detector{fp: fp, store: store, limit: runtime.NumCPU()}
}

// Check evaluates a node. With force set the node is always stale, but input
// fingerprints are still computed.
func (d *Detector) Check(n *domain.Node, project domain.Project, force bool) (Verdict, error) {
	inputs, err := d.FingerprintAll(project, n.Inputs)
	if err != nil {
		return Verdict{}, zerr.With(err, "node", n.ID.String())
	}
	v := Verdict{Inputs: inputs}

	if force {
		return v.stale("forced"), nil
	}

	outputs, err := d.FingerprintAll(project, n.Outputs)
	if err != nil {
		return Verdict{}, zerr.With(err, "node", n.ID.String())
	}
	for _, out := range n.Outputs {
		if _, ok := outputs[out.String()]; !ok {
			return v.stale("output missing: " + out.String()), nil
		}
	}

	rec, err := d.store.Get(n.ID.String())
	if err != nil {
		return Verdict{}, zerr.With(zerr.Wrap(err, "staleness check failed"), "node", n.ID.String())
	}
	if rec == nil {
		return v.stale("never built"), nil
	}

	if rec.Definition != "" && rec.Definition != Definition(n) {
		return v.stale("declaration changed"), nil
	}

	if reason, changed := inputsChanged(n.Inputs, inputs, rec.Inputs); changed {
		return v.stale(reason), nil
	}

	for _, up := range n.Upstream {
		upRec, err := d.store.Get(up.String())
		if err != nil {
			return Verdict{}, zerr.With(zerr.Wrap(err, "staleness check failed"), "node", n.ID.String())
		}
		if upRec != nil && upRec.Sequence > rec.Sequence {
			return v.stale("upstream rebuilt: " + up.String()), nil
		}
	}

	for _, out := range n.Outputs {
		p := out.String()
		if recorded, ok := rec.Outputs[p]; !ok || !recorded.Equal(outputs[p]) {
			return v.stale("output modified: " + p), nil
		}
	}

	return v, nil
}

func (v Verdict) stale(reason string) Verdict {
	v.Stale = true
	v.Reason = reason
	return v
}

// inputsChanged compares current input fingerprints with the recorded ones.
// Inputs are walked in declaration order so the reported path is deterministic.
func inputsChanged(declared []domain.InternedString, current, recorded map[string]domain.Fingerprint) (string, bool) {
	for _, in := range declared {
		p := in.String()
		cur, exists := current[p]
		if !exists {
			return "dependency missing: " + p, true
		}
		prev, ok := recorded[p]
		if !ok {
			return "dependency added: " + p, true
		}
		if !prev.Equal(cur) {
			return "dependency changed: " + p, true
		}
	}
	for _, p := range slices.Sorted(maps.Keys(recorded)) {
		if _, ok := current[p]; !ok {
			return "dependency removed: " + p, true
		}
	}
	return "", false
}

// FingerprintAll fingerprints root-relative paths in parallel. Missing paths
// are left out of the result.
func (d *Detector) FingerprintAll(project domain.Project, paths []domain.InternedString) (map[string]domain.Fingerprint, error) {
	out := make(map[string]domain.Fingerprint, len(paths))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(d.limit)
	for _, p := range paths {
		g.Go(func() error {
			fp, err := d.fp.Fingerprint(project.Abs(p.String()))
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return nil
				}
				return zerr.With(err, "path", p.String())
			}
			mu.Lock()
			out[p.String()] = fp
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
