package engine

import (
	scverrors "github.com/standardbeagle/scalarviz/internal/errors"
)

// MergeResult is FileMerge's response shape (§6: "{ action, file, tags,
// fileList }").
type MergeResult struct {
	Action   string
	File     string
	Tags     []string
	FileList []string
}

// FileMerge creates a VirtualFile named name over fileList ("merge"), or
// removes it ("unset"). Per §9's open question, merge also calls
// graph.AddFile for every tag the sub-files already contribute — unlike
// the source, which calls Graph::DelFile symmetrically on unmerge but
// never the converse on merge; this implementation closes that gap so a
// freshly merged virtual file is visible in GetAllGraph/FileTags
// immediately rather than only after its next data update.
func (e *Engine) FileMerge(action, name string, fileList []string) (MergeResult, error) {
	switch action {
	case "merge":
		v := e.store.CreateVirtualFile(name, fileList)
		tags := v.ContainsTag()
		for _, tag := range tags {
			e.graph.AddFile(tag, name)
		}
		return MergeResult{Action: action, File: name, Tags: tags, FileList: v.SubFiles()}, nil
	case "unset":
		f, ok := e.store.GetFile(name)
		if !ok {
			return MergeResult{}, scverrors.NewValidationError("name", errUnknownVirtualFile)
		}
		tags := f.ContainsTag()
		for _, tag := range tags {
			e.graph.DelFile(tag, name)
		}
		e.store.DeleteVirtualFile(name)
		return MergeResult{Action: action, File: name, Tags: tags}, nil
	default:
		return MergeResult{}, scverrors.NewValidationError("action", errUnknownMergeAction)
	}
}

// TokenParamResult is one file's confirmation in TokenParamSet's response.
type TokenParamResult struct {
	File         string
	AffectedTags []string
	GlobalBatch  float64
	SeqLength    float64
	Coefficient  float64
}

// TokenParamSet sets per-file globalBatchSize/seqLength for every entry in
// params, rejecting any entry naming a VirtualFile (§4.9: "reject on
// virtual files" — a fan-out has no single coefficient of its own).
func (e *Engine) TokenParamSet(params []TokenParamRequest) ([]TokenParamResult, error) {
	results := make([]TokenParamResult, 0, len(params))
	var errs []error
	for _, p := range params {
		nf, ok := e.store.GetNormalFile(p.File)
		if !ok {
			errs = append(errs, scverrors.NewPathError("token-param-set", p.File, errUnknownNormalFile))
			continue
		}
		nf.UpdateTokenParam(p.GlobalBatchSize, p.SeqLength)
		results = append(results, TokenParamResult{
			File:         p.File,
			AffectedTags: nf.ContainsTag(),
			GlobalBatch:  p.GlobalBatchSize,
			SeqLength:    p.SeqLength,
			Coefficient:  nf.GetTokenCof(),
		})
	}
	if len(errs) > 0 {
		return results, scverrors.NewMultiError(errs)
	}
	return results, nil
}

// TokenParamRequest is one entry of a TokenParamSet request (§6).
type TokenParamRequest struct {
	File            string
	GlobalBatchSize float64
	SeqLength       float64
}

type mergeError string

func (e mergeError) Error() string { return string(e) }

const (
	errUnknownVirtualFile mergeError = "virtual file not registered"
	errUnknownMergeAction mergeError = "action must be \"merge\" or \"unset\""
	errUnknownNormalFile  mergeError = "normal file not registered (or is a virtual file)"
)
