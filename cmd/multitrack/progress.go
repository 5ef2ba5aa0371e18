package main

import (
	"io"
	"sync"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"multitrack/internal/validation"
)

var stageLabels = map[string]string{
	validation.StageStats:     "Probing",
	validation.StageSilence:   "Silence",
	validation.StageAlignment: "Alignment",
	validation.StageInclusion: "Inclusion",
}

// barProgress renders one mpb bar per engine stage.
type barProgress struct {
	p *mpb.Progress

	mu   sync.Mutex
	bars map[string]*mpb.Bar
}

func newBarProgress(w io.Writer) *barProgress {
	return &barProgress{
		p:    mpb.New(mpb.WithWidth(64), mpb.WithOutput(w)),
		bars: make(map[string]*mpb.Bar),
	}
}

func (b *barProgress) Start(stage string, total int) {
	label, ok := stageLabels[stage]
	if !ok {
		label = stage
	}
	bar := b.p.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name(label+": "),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
		),
	)
	b.mu.Lock()
	b.bars[stage] = bar
	b.mu.Unlock()
}

func (b *barProgress) Increment(stage string) {
	if bar := b.bar(stage); bar != nil {
		bar.Increment()
	}
}

func (b *barProgress) Done(stage string) {
	if bar := b.bar(stage); bar != nil {
		bar.SetTotal(-1, true)
	}
}

// Wait blocks until every bar has rendered its final state.
func (b *barProgress) Wait() {
	b.p.Wait()
}

func (b *barProgress) bar(stage string) *mpb.Bar {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bars[stage]
}

var _ validation.Progress = (*barProgress)(nil)
