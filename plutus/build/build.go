// Package build runs the template to artifact pipeline used by the commands:
// load, bind every parameter, finalize, emit and optionally persist.
package build

import (
	"fmt"
	"time"

	"github.com/wbrown/janus-plutus/contracts"
	"github.com/wbrown/janus-plutus/plutus"
	"github.com/wbrown/janus-plutus/plutus/annotations"
	"github.com/wbrown/janus-plutus/plutus/codec"
	"github.com/wbrown/janus-plutus/plutus/script"
	"github.com/wbrown/janus-plutus/plutus/storage"
	"github.com/wbrown/janus-plutus/plutus/template"
)

// Param is one parameter binding
type Param struct {
	Name  string
	Value plutus.Data
}

// Request is a build of Source with Params bound in order
type Request struct {
	Source string
	Params []Param
}

// Options configures a build
type Options struct {
	Description string
	Store       *storage.ArtifactStore // nil skips persistence
	Collector   *annotations.Collector
}

// DefaultOptions returns options for an unannotated, unpersisted build
func DefaultOptions() Options {
	return Options{}
}

// Result is a completed build
type Result struct {
	Artifact *script.ScriptArtifact
	Handle   *script.Handle
	Program  *template.Program
	Record   *storage.Record // nil unless stored
	Existing bool            // the store already held this build
}

// NFTParams parses the policy id and token name hex strings accepted by the
// minting policy commands
func NFTParams(policyHex, nameHex string) ([]Param, error) {
	policy, err := plutus.BytesFromHex(policyHex)
	if err != nil {
		return nil, fmt.Errorf("policy id: %w", err)
	}
	if policy.Len() != template.PolicyIDSize {
		return nil, fmt.Errorf("policy id: %w: expected %d bytes, got %d",
			plutus.ErrMalformedInput, template.PolicyIDSize, policy.Len())
	}
	name, err := plutus.BytesFromHex(nameHex)
	if err != nil {
		return nil, fmt.Errorf("token name: %w", err)
	}
	return []Param{
		{Name: contracts.ParamNFTPolicy, Value: policy},
		{Name: contracts.ParamNFTName, Value: name},
	}, nil
}

// Build runs the pipeline for req
func Build(req Request, opts Options) (*Result, error) {
	c := opts.Collector

	start := time.Now()
	h, err := script.LoadTemplate(req.Source)
	if err != nil {
		return nil, err
	}
	tmpl := h.Template()
	if c.Enabled() {
		c.AddTiming(annotations.TemplateLoaded, start, map[string]interface{}{
			"module":       tmpl.Module,
			"params.count": len(tmpl.Params),
		})
	}

	for _, p := range req.Params {
		start = time.Now()
		h, err = h.Bind(p.Name, p.Value)
		if err != nil {
			if c.Enabled() {
				c.AddTiming(annotations.ErrorBinding, start, map[string]interface{}{
					"param": p.Name,
					"error": err,
				})
			}
			return nil, err
		}
		if c.Enabled() {
			param, _ := tmpl.Param(p.Name)
			c.AddTiming(annotations.ParamBound, start, map[string]interface{}{
				"param": tmpl.QualifiedName(param.Name),
				"type":  param.Type.String(),
				"value": p.Value,
			})
		}
	}

	start = time.Now()
	prog, err := script.Finalize(h)
	if err != nil {
		return nil, err
	}
	art, err := script.EmitProgram(prog, opts.Description)
	if err != nil {
		return nil, err
	}
	hash, err := art.Hash()
	if err != nil {
		return nil, err
	}
	if c.Enabled() {
		scriptBytes, _ := art.ScriptBytes()
		c.AddTiming(annotations.ProgramFinalized, start, map[string]interface{}{
			"module":     tmpl.Module,
			"size.bytes": len(scriptBytes),
		})
		c.Add(annotations.Event{
			Name: annotations.ArtifactEmitted,
			Data: map[string]interface{}{
				"type":      art.Type,
				"policy.id": fmt.Sprintf("%x", hash),
			},
		})
	}

	res := &Result{Artifact: art, Handle: h, Program: prog}
	if opts.Store == nil {
		return res, nil
	}

	start = time.Now()
	rec, err := newRecord(h, art, hash)
	if err != nil {
		return nil, err
	}
	existing, err := opts.Store.Put(rec)
	if err != nil {
		if c.Enabled() {
			c.AddTiming(annotations.ErrorStorage, start, map[string]interface{}{"error": err})
		}
		return nil, err
	}
	if c.Enabled() {
		c.AddTiming(annotations.ArtifactStored, start, map[string]interface{}{
			"hash":     rec.HashHex(),
			"existing": existing,
		})
	}
	res.Record = rec
	res.Existing = existing
	return res, nil
}

func newRecord(h *script.Handle, art *script.ScriptArtifact, hash []byte) (*storage.Record, error) {
	tmpl := h.Template()
	rec := &storage.Record{
		ScriptHash: hash,
		Template:   tmpl.Module,
		SourceHash: tmpl.SourceHash[:],
		Artifact:   *art,
	}
	for _, p := range tmpl.Params {
		v, _ := h.Bound(p.Name)
		encoded, err := codec.EncodeHex(v)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", p.Name, err)
		}
		rec.Params = append(rec.Params, storage.BoundParam{
			Name:    tmpl.QualifiedName(p.Name),
			CBORHex: encoded,
		})
	}
	return rec, nil
}
