package main

import (
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/caption-notes/internal/orchestrator"
)

var (
	runOutput      string
	runModel       string
	runTitle       string
	runLanguage    string
	runNoSubtitles bool
	runDocx        bool
)

var runCmd = &cobra.Command{
	Use:   "run <video-url-or-file>",
	Short: "Generate a study note from one video",
	Long: `Acquire the audio of a video URL or local file, transcribe it and write
<title>_学习笔记.md and .json to the output directory. A transcript saved by an earlier
run with the same source, model and language is reused.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return usageError(err)
		}
		defer a.Close()

		res, err := a.orch.Run(ctx, args[0], orchestrator.Options{
			OutputDir:        runOutput,
			ModelSize:        runModel,
			Title:            runTitle,
			Language:         runLanguage,
			PersistSubtitles: !runNoSubtitles && !a.cfg.Output.SkipSubtitles,
			ExportDocx:       runDocx || a.cfg.Output.ExportDocx,
		})
		if err != nil {
			return &exitError{code: orchestrator.ExitCode(err), err: err}
		}

		printSummary(cmd.OutOrStdout(), res)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "Output directory (default paths.output)")
	runCmd.Flags().StringVarP(&runModel, "model", "m", "", "Whisper model size: tiny, base, small, medium, large")
	runCmd.Flags().StringVarP(&runTitle, "title", "t", "", "Note title (default: the video title)")
	runCmd.Flags().StringVarP(&runLanguage, "language", "l", "", "Language hint for transcription (default whisper.language)")
	runCmd.Flags().BoolVar(&runNoSubtitles, "no-subtitles", false, "Do not write subtitle files")
	runCmd.Flags().BoolVar(&runDocx, "docx", false, "Also export the note as DOCX")
}

// printSummary prints the result the way the note is usually checked: files, statistics,
// top keywords and map suggestions.
func printSummary(w io.Writer, res *orchestrator.RunResult) {
	fmt.Fprintln(w, "✅ 笔记生成完成")
	if res.Resumed {
		fmt.Fprintln(w, "♻️  使用已保存的转录结果")
	}
	fmt.Fprintf(w, "📄 Markdown: %s\n", res.MarkdownPath)
	fmt.Fprintf(w, "🗂  JSON: %s\n", res.JSONPath)
	if res.DocxPath != "" {
		fmt.Fprintf(w, "📝 DOCX: %s\n", res.DocxPath)
	}
	if res.TranscriptPath != "" {
		fmt.Fprintf(w, "🎙  Transcript: %s\n", res.TranscriptPath)
	}
	for _, p := range res.SubtitlePaths {
		fmt.Fprintf(w, "💬 Subtitle: %s\n", p)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "📊 统计信息:")
	fmt.Fprintf(w, "  - 字幕片段: %d\n", res.Stats.Segments)
	fmt.Fprintf(w, "  - 文字长度: %d\n", res.Stats.TextLength)
	fmt.Fprintf(w, "  - 时长: %.1f 分钟\n", float64(res.Stats.DurationMs)/60000)
	fmt.Fprintf(w, "  - 耗时: %s\n", res.Duration.Round(time.Second))

	if res.Note == nil {
		return
	}
	if kw := res.Note.Keywords(); len(kw) > 0 {
		fmt.Fprintf(w, "\n🔑 关键词: %s\n", strings.Join(kw[:min(len(kw), 10)], "、"))
	}
	if maps := res.Note.MapKeywords(); len(maps) > 0 {
		fmt.Fprintln(w, "\n🗺  地图搜索建议:")
		for _, m := range maps[:min(len(maps), 5)] {
			fmt.Fprintf(w, "  - %s\n", m)
		}
	}
}

