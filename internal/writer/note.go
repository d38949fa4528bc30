package writer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nguyentantai21042004/caption-notes/internal/models"
)

func (w *implWriter) SaveNote(ctx context.Context, dir string, note models.Note, opts NoteOptions) (NotePaths, error) {
	if len(note.Sections) == 0 {
		return NotePaths{}, models.NewError(models.ErrPersistence, "empty_note", fmt.Errorf("note has no sections"))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return NotePaths{}, models.NewError(models.ErrPersistence, "output_dir", fmt.Errorf("create output dir: %w", err))
	}

	base := NoteBase(dir, note.Title)
	paths := NotePaths{Markdown: base + ".md", JSON: base + ".json"}

	jsonData, err := RenderJSON(note)
	if err != nil {
		return NotePaths{}, models.NewError(models.ErrPersistence, "encode", fmt.Errorf("encode note: %w", err))
	}

	jsonTmp, err := stage(dir, jsonData, 0644)
	if err != nil {
		return NotePaths{}, models.NewError(models.ErrPersistence, "write", err)
	}
	mdTmp, err := stage(dir, []byte(RenderMarkdown(note)), 0644)
	if err != nil {
		os.Remove(jsonTmp)
		return NotePaths{}, models.NewError(models.ErrPersistence, "write", err)
	}

	if err := commitPair(ctx,
		stagedFile{tmp: jsonTmp, final: paths.JSON},
		stagedFile{tmp: mdTmp, final: paths.Markdown},
	); err != nil {
		if ctx.Err() != nil {
			return NotePaths{}, models.Cancelled(ctx.Err())
		}
		return NotePaths{}, models.NewError(models.ErrPersistence, "commit", err)
	}
	w.logger.Info(ctx, "Note saved: %s", paths.Markdown)

	if !opts.ExportDocx {
		return paths, nil
	}

	// The note pair is already committed; a failed export only loses the DOCX copies.
	paths.Docx = base + ".docx"
	if err := saveDocx(paths.Docx, func(tmp string) error { return noteToDocx(note, tmp) }); err != nil {
		w.logger.Warn(ctx, "DOCX export failed: %v", err)
		paths.Docx = ""
		return paths, nil
	}
	w.logger.Info(ctx, "DOCX exported: %s", paths.Docx)

	if opts.Transcript != nil {
		paths.TranscriptDocx = filepath.Join(dir, SanitizeTitle(note.Title)+"_逐字稿.docx")
		if err := saveDocx(paths.TranscriptDocx, func(tmp string) error {
			return transcriptToDocx(note.Title, *opts.Transcript, tmp)
		}); err != nil {
			w.logger.Warn(ctx, "Transcript DOCX export failed: %v", err)
			paths.TranscriptDocx = ""
		}
	}
	return paths, nil
}

// saveDocx renders into a temp path in the same directory and renames it into place.
func saveDocx(final string, render func(tmp string) error) error {
	tmp := filepath.Join(filepath.Dir(final), tempFilePrefix+filepath.Base(final))
	defer os.Remove(tmp)
	if err := render(tmp); err != nil {
		return fmt.Errorf("render %s: %w", filepath.Base(final), err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("rename %s: %w", filepath.Base(final), err)
	}
	return nil
}
