package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/caption-notes/internal/logger"
	"github.com/nguyentantai21042004/caption-notes/internal/orchestrator"
	"github.com/nguyentantai21042004/caption-notes/internal/writer"
)

var subtitlesOutput string

var subtitlesCmd = &cobra.Command{
	Use:   "subtitles <transcription_data.json | output-dir>",
	Short: "Re-render subtitle files from a saved transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := transcriptDir(args[0])
		out := subtitlesOutput
		if out == "" {
			out = dir
		}

		w := writer.New(logger.New("warn", "text"))
		rec, err := w.LoadTranscript(dir)
		if err != nil {
			return usageError(fmt.Errorf("load transcript: %w", err))
		}

		paths, err := w.SaveSubtitles(cmd.Context(), out, rec.Transcript)
		if err != nil {
			return &exitError{code: orchestrator.ExitPersisting, err: err}
		}
		for _, p := range paths {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		return nil
	},
}

// transcriptDir accepts either the transcript file or the directory holding it.
func transcriptDir(arg string) string {
	if info, err := os.Stat(arg); err == nil && info.IsDir() {
		return arg
	}
	if filepath.Base(arg) == writer.TranscriptFile {
		return filepath.Dir(arg)
	}
	return arg
}

func init() {
	rootCmd.AddCommand(subtitlesCmd)
	subtitlesCmd.Flags().StringVarP(&subtitlesOutput, "output", "o", "", "Directory to write subtitles/ into (default: next to the transcript)")
}
