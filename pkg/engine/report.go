package engine

import (
	"context"

	"github.com/oneconcern/catsync/pkg/changeset"
	"github.com/oneconcern/catsync/pkg/metafile"
)

// Report describes how the local catalog relates to the shared history
type Report struct {
	Checkpoint metafile.CheckpointRecord
	Leaf       metafile.ChangesetInfo

	// Pending lists the changesets published since the last sync
	Pending []metafile.ChangesetInfo

	// Modified tells if the local catalog changed since the last sync
	Modified bool
}

// Status reports the state of the local catalog without modifying anything
func (e *Engine) Status(ctx context.Context) (Report, error) {
	var report Report
	if err := e.expect("status",
		fileState{e.paths.Local, true},
		fileState{e.paths.LocalRecord(), true},
	); err != nil {
		return report, err
	}

	checkpoint, err := metafile.LoadCheckpoint(e.fs, e.paths.LocalRecord())
	if err != nil {
		return report, err
	}
	report.Checkpoint = *checkpoint

	graph, err := e.Graph(ctx)
	if err != nil {
		return report, err
	}
	report.Leaf = graph.Leaf().Info()

	path, err := e.pending(graph, checkpoint)
	if err != nil {
		return report, err
	}
	report.Pending = infos(path)

	hash, err := e.hash.File(e.fs, e.paths.Local)
	if err != nil {
		return report, err
	}
	report.Modified = hash != checkpoint.Catalog.Hash
	return report, nil
}

// History lists the published changesets from the base to the tip
func (e *Engine) History(ctx context.Context) ([]metafile.ChangesetInfo, error) {
	graph, err := e.Graph(ctx)
	if err != nil {
		return nil, err
	}
	return infos(graph.History()), nil
}

func infos(nodes []*changeset.Node) []metafile.ChangesetInfo {
	res := make([]metafile.ChangesetInfo, 0, len(nodes))
	for _, n := range nodes {
		res = append(res, n.Info())
	}
	return res
}
