package service

import (
	"strings"
	"time"

	"github.com/mtlprog/constructos/internal/domain"
)

// ProjectInfo carries the static project facts shown on dashboards and
// reports.
type ProjectInfo struct {
	Name       string
	Start      time.Time
	End        time.Time
	PhaseNames map[domain.Phase]string
}

// PhaseName returns the display name of a phase, falling back to a title-cased
// form of its key.
func (p ProjectInfo) PhaseName(phase domain.Phase) string {
	if name, ok := p.PhaseNames[phase]; ok && name != "" {
		return name
	}
	return Humanize(string(phase))
}

// Humanize turns a snake_case key such as "in_progress" into "In Progress".
func Humanize(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
