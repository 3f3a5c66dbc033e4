package listprocessor

import (
	"context"

	mapset "github.com/deckarep/golang-set/v2"
	"gitlab.com/tozd/go/errors"

	"gitlab.com/wdlists/wdlists/internal/list"
	"gitlab.com/wdlists/wdlists/internal/resultcell"
	"gitlab.com/wdlists/wdlists/internal/resultrow"
)

// ShadowFileFilter removes file parts that are stored locally on the wiki
// rather than served from the shared media repository, when the wiki is
// configured for the shadow-image check (spec §4.7 stage 5, glossary
// "shadow image"). Removed filenames are collected onto l.ShadowFiles.
func ShadowFileFilter(ctx context.Context, l *list.List) errors.E {
	if !l.ShadowImagesOn {
		return nil
	}
	rows := l.Rows.Rows()
	if len(rows) == 0 {
		return nil
	}

	seen := mapset.NewThreadUnsafeSet[string]()
	visitParts(rows, func(p *resultcell.Part) {
		if p.Kind == resultcell.File {
			seen.Add(p.FileName)
		}
	})
	filenames := seen.ToSlice()
	if len(filenames) == 0 {
		return nil
	}

	infos, errE := l.WikiClient.ImageInfo(ctx, filenames)
	if errE != nil {
		return errE
	}

	localOnly := mapset.NewThreadUnsafeSet[string]()
	for _, info := range infos {
		if info.Repository != "shared" {
			localOnly.Add(info.Filename)
		}
	}
	if localOnly.Cardinality() == 0 {
		return nil
	}

	removeShadowFiles(rows, localOnly)

	l.ShadowFiles = append(l.ShadowFiles, localOnly.ToSlice()...)
	l.Changed = true
	return nil
}

func removeShadowFiles(rows []*resultrow.Row, localOnly mapset.Set[string]) {
	for _, row := range rows {
		for colIdx := range row.Cells {
			cells := row.Cells[colIdx]
			filtered := cells[:0]
			for _, pwr := range cells {
				pwr.Part = stripFileParts(pwr.Part, localOnly)
				if pwr.Part.Kind == resultcell.File && localOnly.Contains(pwr.Part.FileName) {
					continue
				}
				filtered = append(filtered, pwr)
			}
			row.Cells[colIdx] = filtered
		}
	}
}

func stripFileParts(p resultcell.Part, localOnly mapset.Set[string]) resultcell.Part {
	if p.Kind != resultcell.SnakList {
		return p
	}
	out := p.Parts[:0]
	for _, sub := range p.Parts {
		if sub.Kind == resultcell.File && localOnly.Contains(sub.FileName) {
			continue
		}
		out = append(out, sub)
	}
	p.Parts = out
	return p
}
