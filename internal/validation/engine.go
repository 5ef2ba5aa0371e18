package validation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"multitrack/internal/analysis/alignment"
	"multitrack/internal/analysis/inclusion"
	"multitrack/internal/logging"
	"multitrack/internal/media/probe"
	"multitrack/internal/services"
	"multitrack/internal/session"
)

// Stage names reported to Progress and attached to log context.
const (
	StageStats     = "stats"
	StageSilence   = "silence"
	StageAlignment = "alignment"
	StageInclusion = "inclusion"
)

// Progress receives per-stage progress from the engine. Increment may be
// called from several goroutines.
type Progress interface {
	Start(stage string, total int)
	Increment(stage string)
	Done(stage string)
}

type nopProgress struct{}

func (nopProgress) Start(string, int) {}

func (nopProgress) Increment(string) {}

func (nopProgress) Done(string) {}

// Option configures an Engine.
type Option func(*Engine)

// WithProgress reports stage progress to p.
func WithProgress(p Progress) Option {
	return func(e *Engine) {
		if p != nil {
			e.progress = p
		}
	}
}

// Engine runs validation checks over a session.
type Engine struct {
	settings  Settings
	logger    *slog.Logger
	aligner   *alignment.Analyzer
	inclusion *inclusion.Analyzer
	progress  Progress
}

// New builds an Engine.
func New(settings Settings, logger *slog.Logger, opts ...Option) *Engine {
	if settings.Workers < 1 {
		settings.Workers = 1
	}
	logger = logging.NewComponentLogger(logger, "validation")
	e := &Engine{
		settings:  settings,
		logger:    logger,
		aligner:   alignment.New(settings.Alignment, logger),
		inclusion: inclusion.New(settings.Alignment.AnalysisRate, settings.Workers, logger),
		progress:  nopProgress{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Settings returns the engine configuration.
func (e *Engine) Settings() Settings {
	return e.settings
}

type sessionFile struct {
	entity EntityKind
	kind   probe.Kind
	path   string
}

func sessionFiles(s *session.Session) []sessionFile {
	files := make([]sessionFile, 0, 1+len(s.Stems)+len(s.Raws))
	files = append(files, sessionFile{entity: EntityMix, kind: probe.KindMix, path: s.MixPath})
	for _, stem := range s.Stems {
		files = append(files, sessionFile{entity: EntityStem, kind: probe.KindStem, path: stem})
	}
	for _, raw := range s.Raws {
		files = append(files, sessionFile{entity: EntityRaw, kind: probe.KindRaw, path: raw})
	}
	return files
}

// CheckAudio runs the format, length, silence and emptiness checks. An
// unreadable mix is fatal and returns an error marked
// services.ErrUnreadableFile with no report. When either folder is empty the
// report holds only the Empty results.
func (e *Engine) CheckAudio(ctx context.Context, s *session.Session) (*Report, error) {
	if s == nil {
		return nil, services.Wrap(services.ErrValidation, "validation", "check audio", "nil session", nil)
	}
	ctx = services.WithSession(ctx, s.Name())
	logger := logging.WithContext(ctx, e.logger)

	mixStats, err := probe.Probe(s.MixPath)
	if err != nil {
		logger.Error("mix is unreadable", logging.String("path", s.MixPath), logging.Error(err))
		return nil, err
	}

	report := NewReport(s.Name())
	files := sessionFiles(s)
	for _, f := range files {
		report.Add(f.entity, f.path)
	}
	rawFolder := report.Add(EntityRawFolder, s.RawDir)
	stemFolder := report.Add(EntityStemFolder, s.StemDir)

	rawFolder.Set(CheckEmpty, len(s.Raws) > 0)
	stemFolder.Set(CheckEmpty, len(s.Stems) > 0)
	if report.EmptinessFailed() {
		logging.WarnWithContext(logger, "session folder is empty; skipping file checks", "empty_folder",
			logging.Int("raws", len(s.Raws)),
			logging.Int("stems", len(s.Stems)),
			logging.String(logging.FieldErrorHint, "add WAV files to both the raw and stem folders"),
			logging.String(logging.FieldImpact, "no file checks were run"),
		)
		return report, nil
	}

	stats := make([]probe.Stats, len(files))
	statErrs := make([]error, len(files))
	err = e.each(ctx, StageStats, len(files), func(_ context.Context, i int) error {
		stats[i], statErrs[i] = probe.Probe(files[i].path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i, f := range files {
		ent := report.Add(f.entity, f.path)
		if statErrs[i] != nil {
			logging.WarnWithContext(e.entityLogger(ctx, ent.Name), "file is unreadable", "unreadable_file",
				logging.Error(statErrs[i]),
				logging.String(logging.FieldErrorHint, "re-export the file as PCM WAV"),
			)
			ent.Set(CheckWrongStats, false)
			continue
		}
		ok, err := e.settings.Format.Conforms(stats[i], f.kind)
		if err != nil {
			return nil, err
		}
		ent.Set(CheckWrongStats, ok)
	}

	for i, f := range files {
		if f.entity == EntityMix || statErrs[i] != nil {
			continue
		}
		report.Add(f.entity, f.path).Set(CheckLengthAsMix, stats[i].NumSamples == mixStats.NumSamples)
	}

	silent := make([]bool, len(files))
	silentErrs := make([]error, len(files))
	err = e.each(ctx, StageSilence, len(files), func(_ context.Context, i int) error {
		if statErrs[i] != nil {
			silentErrs[i] = statErrs[i]
			return nil
		}
		silent[i], silentErrs[i] = probe.IsSilent(files[i].path, e.settings.SilenceThreshold, e.settings.SilenceFrameSeconds)
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i, f := range files {
		if silentErrs[i] != nil {
			if statErrs[i] == nil {
				logging.WarnWithContext(e.entityLogger(ctx, filepath.Base(f.path)), "silence check failed", "silence_unavailable",
					logging.Error(silentErrs[i]),
					logging.String(logging.FieldImpact, "silence result left unset"),
				)
			}
			continue
		}
		report.Add(f.entity, f.path).Set(CheckSilent, !silent[i])
	}

	logger.Info("audio checks complete",
		logging.Int("files", len(files)),
		logging.Int("failures", report.Failures()),
	)
	return report, nil
}

type alignJob struct {
	entity *Entity
	check  Check
	files  []string
	target string
}

type inclusionJob struct {
	check      Check
	entity     EntityKind
	components []string
	target     string
}

// CheckMultitrack adds the mapping, alignment and inclusion checks to report.
// It does nothing when the report's emptiness gate failed. A shape mismatch
// from the inclusion analysis is returned as an error; alignment failures of
// any kind are recorded as false.
func (e *Engine) CheckMultitrack(ctx context.Context, s *session.Session, rawInfo session.RawInfo, report *Report) error {
	if s == nil || report == nil {
		return services.Wrap(services.ErrValidation, "validation", "check multitrack", "nil session or report", nil)
	}
	ctx = services.WithSession(ctx, s.Name())
	logger := logging.WithContext(ctx, e.logger)
	if report.EmptinessFailed() {
		logger.Debug("multitrack checks skipped; session folder is empty")
		return nil
	}

	for _, raw := range s.Raws {
		ok := false
		if stem, found := rawInfo.StemOf(raw); found {
			_, ok = s.StemByName(stem)
		}
		report.Add(EntityRaw, raw).Set(CheckRawStemMapping, ok)
	}

	jobs := []alignJob{
		{entity: report.Add(EntityRawFolder, s.RawDir), check: CheckRawSumAlignment, files: s.Raws, target: s.MixPath},
		{entity: report.Add(EntityStemFolder, s.StemDir), check: CheckStemSumAlignment, files: s.Stems, target: s.MixPath},
	}
	stemRaws := make(map[string][]string, len(s.Stems))
	for _, stem := range s.Stems {
		raws := rawInfo.RawsFor(filepath.Base(stem), s.Raws)
		stemRaws[stem] = raws
		ent := report.Add(EntityStem, stem)
		ent.Set(CheckStemsHaveRaw, len(raws) > 0)
		if len(raws) > 0 {
			jobs = append(jobs, alignJob{entity: ent, check: CheckRawToStemAlignment, files: raws, target: stem})
		}
	}

	aligned := make([]bool, len(jobs))
	err := e.each(ctx, StageAlignment, len(jobs), func(ctx context.Context, i int) error {
		job := jobs[i]
		ok, err := e.aligner.IsAligned(ctx, job.files, job.target)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			logging.WarnWithContext(e.entityLogger(ctx, job.entity.Name), "alignment unavailable", "alignment_unavailable",
				logging.String("check", string(job.check)),
				logging.Error(err),
			)
			return nil
		}
		aligned[i] = ok
		return nil
	})
	if err != nil {
		return err
	}
	for i, job := range jobs {
		job.entity.Set(job.check, aligned[i])
	}

	lengths := e.sampleCounts(s)
	var incJobs []inclusionJob
	if sameLength(lengths, s.Stems, s.MixPath) {
		incJobs = append(incJobs, inclusionJob{check: CheckStemsInMix, entity: EntityStem, components: s.Stems, target: s.MixPath})
	} else {
		logger.Info("stems differ in length from the mix; skipping inclusion check", logging.String("check", string(CheckStemsInMix)))
	}
	for _, stem := range s.Stems {
		raws := stemRaws[stem]
		if len(raws) == 0 {
			continue
		}
		if !sameLength(lengths, raws, stem) {
			e.entityLogger(ctx, filepath.Base(stem)).Info("raws differ in length from their stem; skipping inclusion check",
				logging.String("check", string(CheckRawsInStems)),
			)
			continue
		}
		incJobs = append(incJobs, inclusionJob{check: CheckRawsInStems, entity: EntityRaw, components: raws, target: stem})
	}

	weights := make([]map[string]float64, len(incJobs))
	err = e.each(ctx, StageInclusion, len(incJobs), func(ctx context.Context, i int) error {
		job := incJobs[i]
		w, err := e.inclusion.ContributionWeights(ctx, job.components, job.target)
		if err != nil {
			if errors.Is(err, services.ErrShapeMismatch) {
				return err
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			logging.WarnWithContext(e.entityLogger(ctx, filepath.Base(job.target)), "inclusion analysis failed", "inclusion_unavailable",
				logging.String("check", string(job.check)),
				logging.Error(err),
				logging.String(logging.FieldImpact, "inclusion results left unset"),
			)
			return nil
		}
		weights[i] = w
		return nil
	})
	if err != nil {
		return err
	}
	for i, job := range incJobs {
		if weights[i] == nil {
			continue
		}
		for _, c := range job.components {
			w := weights[i][filepath.Base(c)]
			report.Add(job.entity, c).Set(job.check, inclusion.CheckWeight(w, e.settings.InclusionThreshold))
		}
	}

	logger.Info("multitrack checks complete",
		logging.Int("alignment_checks", len(jobs)),
		logging.Int("inclusion_groups", len(incJobs)),
		logging.Int("failures", report.Failures()),
	)
	return nil
}

// Validate runs CheckAudio and, when rawInfo is non-nil, CheckMultitrack.
func (e *Engine) Validate(ctx context.Context, s *session.Session, rawInfo session.RawInfo) (*Report, error) {
	report, err := e.CheckAudio(ctx, s)
	if err != nil {
		return nil, err
	}
	if rawInfo == nil {
		return report, nil
	}
	if err := e.CheckMultitrack(ctx, s, rawInfo, report); err != nil {
		return nil, err
	}
	return report, nil
}

// SilentFiles returns the session files whose Silent check failed, in
// session order (mix, stems, raws).
func (e *Engine) SilentFiles(s *session.Session, report *Report) []string {
	if s == nil || report == nil {
		return nil
	}
	var out []string
	for _, f := range sessionFiles(s) {
		if report.Result(f.entity, f.path, CheckSilent) == Fail {
			out = append(out, f.path)
		}
	}
	return out
}

// entityLogger returns the engine logger with the session, stage and entity
// carried by ctx.
func (e *Engine) entityLogger(ctx context.Context, entity string) *slog.Logger {
	return logging.WithContext(services.WithEntity(ctx, entity), e.logger)
}

// sampleCounts probes every session file. Unreadable files are absent.
func (e *Engine) sampleCounts(s *session.Session) map[string]int64 {
	counts := make(map[string]int64, 1+len(s.Stems)+len(s.Raws))
	for _, f := range sessionFiles(s) {
		stats, err := probe.Probe(f.path)
		if err != nil {
			continue
		}
		counts[f.path] = stats.NumSamples
	}
	return counts
}

func sameLength(counts map[string]int64, members []string, target string) bool {
	want, ok := counts[target]
	if !ok || len(members) == 0 {
		return false
	}
	for _, m := range members {
		if n, ok := counts[m]; !ok || n != want {
			return false
		}
	}
	return true
}

// each runs fn for 0..n-1 on at most Settings.Workers goroutines.
func (e *Engine) each(ctx context.Context, stage string, n int, fn func(ctx context.Context, i int) error) error {
	if n == 0 {
		return nil
	}
	e.progress.Start(stage, n)
	defer e.progress.Done(stage)

	g, gctx := errgroup.WithContext(services.WithStage(ctx, stage))
	g.SetLimit(e.settings.Workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			defer e.progress.Increment(stage)
			if err := fn(gctx, i); err != nil {
				return fmt.Errorf("%s: %w", stage, err)
			}
			return nil
		})
	}
	return g.Wait()
}
