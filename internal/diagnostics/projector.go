package diagnostics

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blackwell-systems/healthsync/internal/artifact"
	"github.com/blackwell-systems/healthsync/internal/logging"
)

// Source supplies parsed issue and finding artifacts.
type Source interface {
	ReadIssues() artifact.Result[artifact.Issues]
	ReadFindings() artifact.Result[artifact.Findings]
}

// Projector owns the general and security channels.
type Projector struct {
	src Source

	mu           sync.RWMutex
	general      Channel
	security     Channel
	suppressions []Suppression
}

// NewProjector returns a projector with both channels empty.
func NewProjector(src Source) *Projector {
	return &Projector{
		src:      src,
		general:  Channel{},
		security: Channel{},
	}
}

// SetSuppressions replaces the suppression list. It takes effect on the
// next UpdateDiagnostics.
func (p *Projector) SetSuppressions(list []Suppression) {
	cp := make([]Suppression, len(list))
	for i, s := range list {
		s.File = filepath.Clean(s.File)
		cp[i] = s
	}
	p.mu.Lock()
	p.suppressions = cp
	p.mu.Unlock()
}

// UpdateDiagnostics rebuilds the general channel from the issues artifact.
// A missing artifact clears the channel. A malformed one leaves the
// previous contents in place and its error is returned.
func (p *Projector) UpdateDiagnostics() (artifact.State, error) {
	res := p.src.ReadIssues()
	if res.State == artifact.StateInvalid {
		logging.Warn("keeping previous general diagnostics", "path", res.Path, "error", res.Err)
		return res.State, fmt.Errorf("projecting issues: %w", res.Err)
	}

	p.mu.RLock()
	suppressions := p.suppressions
	p.mu.RUnlock()

	next := Channel{}
	suppressed := 0
	for _, is := range res.Value.Issues {
		a := Annotation{
			File:    is.File,
			Range:   lineRange(is.Line),
			Level:   MapSeverity(is.Severity),
			Message: is.Message,
			Source:  SourceGeneral,
			Code:    is.Rule,
		}
		if isSuppressed(suppressions, a) {
			suppressed++
			continue
		}
		next[a.File] = append(next[a.File], a)
	}

	p.mu.Lock()
	p.general = next
	p.mu.Unlock()

	logging.Debug("general diagnostics updated",
		"state", res.State, "files", len(next), "annotations", next.Len(), "suppressed", suppressed)
	return res.State, nil
}

// UpdateSecurityDiagnostics rebuilds the security channel from the
// needs_review findings. Absent and malformed artifacts behave as in
// UpdateDiagnostics.
func (p *Projector) UpdateSecurityDiagnostics() (artifact.State, error) {
	res := p.src.ReadFindings()
	if res.State == artifact.StateInvalid {
		logging.Warn("keeping previous security diagnostics", "path", res.Path, "error", res.Err)
		return res.State, fmt.Errorf("projecting security findings: %w", res.Err)
	}

	next := Channel{}
	for _, f := range res.Value.NeedsReview {
		a := Annotation{
			File:    f.File,
			Range:   lineRange(f.Line),
			Level:   MapSeverity(f.Severity),
			Message: securityMessage(f),
			Source:  SourceSecurity,
			Code:    f.OWASPCategory,
		}
		if excerpt := strings.TrimSpace(f.MatchedExcerpt); excerpt != "" {
			a.Related = []RelatedInfo{{
				File:    f.File,
				Range:   a.Range,
				Message: "Matched: " + excerpt,
			}}
		}
		next[a.File] = append(next[a.File], a)
	}

	p.mu.Lock()
	p.security = next
	p.mu.Unlock()

	logging.Debug("security diagnostics updated",
		"state", res.State, "files", len(next), "annotations", next.Len())
	return res.State, nil
}

// ClearSecurity empties the security channel.
func (p *Projector) ClearSecurity() {
	p.mu.Lock()
	p.security = Channel{}
	p.mu.Unlock()
}

// General returns a copy of the general channel.
func (p *Projector) General() Channel {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.general.clone()
}

// Security returns a copy of the security channel.
func (p *Projector) Security() Channel {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.security.clone()
}

func securityMessage(f artifact.SecurityFinding) string {
	return fmt.Sprintf("[%s] %s: %s", f.OWASPCategory, f.FindingType, f.Analysis)
}

func isSuppressed(list []Suppression, a Annotation) bool {
	for _, s := range list {
		if s.matches(a) {
			return true
		}
	}
	return false
}
