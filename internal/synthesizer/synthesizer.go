package synthesizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/nguyentantai21042004/caption-notes/internal/models"
	"github.com/nguyentantai21042004/caption-notes/internal/retry"
)

type response struct {
	index int
	raw   string
	err   error
}

type windowResult struct {
	sections []models.NoteSection
	err      error
}

// Synthesize builds a note from the transcript. Windows are requested strictly in order so each
// request carries the running summary of the windows before it, while a second goroutine parses
// finished responses.
func (s *implSynthesizer) Synthesize(ctx context.Context, transcript models.Transcript, hint TitleHint) (models.Note, error) {
	title := ResolveTitle(hint.Override, hint.Extracted, s.opts.FallbackTitle)
	windows := partition(transcript.Segments, s.opts.MaxWindowRunes)
	if len(windows) == 0 {
		return models.Note{}, models.NewError(models.ErrSynthesis, "empty_transcript",
			fmt.Errorf("transcript has no text to synthesize"))
	}
	source := normalize(transcript.FullText())

	s.logger.Info(ctx, "Synthesizing %q from %d segments in %d windows", title, len(transcript.Segments), len(windows))

	responses := make(chan response, 1)
	results := make([]windowResult, len(windows))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(responses)
		summary := ""
		for _, w := range windows {
			if err := gctx.Err(); err != nil {
				return err
			}

			raw, err := s.callWindow(gctx, buildPrompt(title, w, len(windows)), summary)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				s.logger.Warn(ctx, "Window %d/%d failed: %v", w.Index+1, len(windows), err)
			} else {
				summary = rollSummary(summary, windowSummary(raw), s.opts.SummaryMaxRunes)
			}

			select {
			case responses <- response{index: w.Index, raw: raw, err: err}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	g.Go(func() error {
		for r := range responses {
			if r.err != nil {
				results[r.index].err = r.err
				continue
			}
			parsed, err := parseResponse(r.raw, source)
			if err != nil {
				s.logger.Warn(ctx, "Dropping window %d/%d: %v", r.index+1, len(windows), err)
				results[r.index].err = err
				continue
			}
			results[r.index].sections = parsed.Sections
			for _, sec := range parsed.Sections {
				if len(sec.ExpansionTerms) > 0 {
					s.logger.Debug(ctx, "Section %q expansion terms: %s", sec.Heading, strings.Join(sec.ExpansionTerms, ", "))
				}
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return models.Note{}, models.Cancelled(err)
	}

	sections, err := s.collect(results)
	if err != nil {
		return models.Note{}, err
	}

	s.logger.Info(ctx, "Synthesized %d sections", len(sections))
	return models.Note{Title: title, Sections: sections}, nil
}

// callWindow runs one completion with retries. An in-flight call is allowed to finish after
// cancellation; the retry loop observes ctx between attempts.
func (s *implSynthesizer) callWindow(ctx context.Context, prompt, summary string) (string, error) {
	return retry.Do(ctx, s.opts.Retry, func(ctx context.Context) (string, error) {
		callCtx := context.WithoutCancel(ctx)
		if s.opts.CallTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(callCtx, s.opts.CallTimeout)
			defer cancel()
		}
		return s.completer.Complete(callCtx, prompt, summary)
	})
}

// collect merges window results and picks the failure kind when nothing survived.
func (s *implSynthesizer) collect(results []windowResult) ([]models.NoteSection, error) {
	var (
		sections       []models.NoteSection
		serviceFailure error
		parseFailure   error
	)
	for _, r := range results {
		switch {
		case r.err == nil:
			sections = mergeSections(sections, r.sections)
		case errors.Is(r.err, models.ErrMalformedOutput):
			parseFailure = r.err
		default:
			serviceFailure = r.err
		}
	}

	if len(results) == 1 && serviceFailure != nil {
		return nil, models.NewError(models.ErrSynthesis, "service_unavailable", serviceFailure)
	}
	if len(sections) == 0 {
		if serviceFailure != nil {
			return nil, models.NewError(models.ErrSynthesis, "all_windows_failed", serviceFailure)
		}
		return nil, models.NewError(models.ErrMalformedOutput, "all_windows_malformed", parseFailure)
	}

	dedupeMapKeywords(sections)
	return sections, nil
}

// mergeSections appends next to acc, joining a leading section onto the last one when their
// headings match.
func mergeSections(acc, next []models.NoteSection) []models.NoteSection {
	for _, sec := range next {
		if n := len(acc); n > 0 && sameHeading(acc[n-1].Heading, sec.Heading) {
			last := &acc[n-1]
			last.Body = last.Body + "\n\n" + sec.Body
			for _, k := range sec.Keywords {
				last.Keywords = appendUnique(last.Keywords, k)
			}
			for _, k := range sec.ExpansionTerms {
				last.ExpansionTerms = appendUnique(last.ExpansionTerms, k)
			}
			for _, k := range sec.MapKeywords {
				last.MapKeywords = appendUnique(last.MapKeywords, k)
			}
			continue
		}
		acc = append(acc, sec)
	}
	return acc
}

// windowSummary returns the response's summary trailer, or one derived from its sections.
func windowSummary(raw string) string {
	if m := reSummary.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	parsed, err := parseResponse(raw, "")
	if err != nil {
		return ""
	}
	return parsed.Summary
}

func sameHeading(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// dedupeMapKeywords keeps the first occurrence of each map keyword across the whole note.
func dedupeMapKeywords(sections []models.NoteSection) {
	seen := make(map[string]struct{})
	for i := range sections {
		var kept []string
		for _, k := range sections[i].MapKeywords {
			key := strings.ToLower(strings.TrimSpace(k))
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			kept = append(kept, k)
		}
		sections[i].MapKeywords = kept
	}
}
