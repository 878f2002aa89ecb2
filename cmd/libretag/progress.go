package main

import (
	"fmt"

	"github.com/oukeidos/libretag/internal/logger"
)

// cliProgress reports pipeline progress through the logger.
type cliProgress struct {
	total   int
	aborted func() bool
	label   string
}

func newCLIProgress(total int, aborted func() bool) *cliProgress {
	return &cliProgress{total: total, aborted: aborted}
}

func (p *cliProgress) Advance(index int, label string) bool {
	if p.aborted != nil && p.aborted() {
		return false
	}
	p.label = label
	logger.Info("Translating", "item", fmt.Sprintf("%d/%d", index+1, p.total), "label", label)
	return true
}

func (p *cliProgress) LogMessage(msg string) {
	logger.Info(msg, "label", p.label)
}

func (p *cliProgress) SetCompleted() {
	logger.Debug("Progress completed", "total", p.total)
}
