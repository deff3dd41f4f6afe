package plugin

import (
	"context"
	"errors"
	"sort"

	"gorm.io/gorm"

	"github.com/noah-isme/assignflow-api/internal/repository"
)

// Registry orders the installed plugins and answers lookups by type. The set
// of plugins is fixed at construction; enumeration order never changes for the
// life of the registry.
type Registry struct {
	submission []SubmissionPlugin
	feedback   []FeedbackPlugin
	configs    repository.PluginConfigRepository
}

// NewRegistry builds a registry from the installed plugins. Plugins are placed
// at their declared sort order; on collision the next free slot is used, so
// registration order breaks ties deterministically.
func NewRegistry(submission []SubmissionPlugin, feedback []FeedbackPlugin, configs repository.PluginConfigRepository) *Registry {
	return &Registry{
		submission: orderPlugins(submission),
		feedback:   orderPlugins(feedback),
		configs:    configs,
	}
}

func orderPlugins[P Plugin](plugins []P) []P {
	slots := make(map[int]P, len(plugins))
	for _, p := range plugins {
		idx := p.SortOrder()
		for {
			if _, taken := slots[idx]; !taken {
				break
			}
			idx++
		}
		slots[idx] = p
	}

	keys := make([]int, 0, len(slots))
	for idx := range slots {
		keys = append(keys, idx)
	}
	sort.Ints(keys)

	ordered := make([]P, 0, len(keys))
	for _, idx := range keys {
		ordered = append(ordered, slots[idx])
	}
	return ordered
}

// SubmissionPlugins enumerates the submission plugins in sort order.
func (r *Registry) SubmissionPlugins() []SubmissionPlugin {
	return r.submission
}

// FeedbackPlugins enumerates the feedback plugins in sort order.
func (r *Registry) FeedbackPlugins() []FeedbackPlugin {
	return r.feedback
}

// SubmissionPluginByType looks up a submission plugin; unknown types miss.
func (r *Registry) SubmissionPluginByType(t Type) (SubmissionPlugin, bool) {
	for _, p := range r.submission {
		if p.Type() == t {
			return p, true
		}
	}
	return nil, false
}

// FeedbackPluginByType looks up a feedback plugin; unknown types miss.
func (r *Registry) FeedbackPluginByType(t Type) (FeedbackPlugin, bool) {
	for _, p := range r.feedback {
		if p.Type() == t {
			return p, true
		}
	}
	return nil, false
}

// IsEnabled reports whether the plugin is enabled for the assignment, falling
// back to the plugin default when no config row exists yet.
func (r *Registry) IsEnabled(ctx context.Context, assignmentID uint, p Plugin) (bool, error) {
	if r.configs == nil {
		return p.EnabledByDefault(), nil
	}

	config, err := r.configs.Get(ctx, assignmentID, string(p.Subtype()), p.Type().String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return p.EnabledByDefault(), nil
		}
		return false, err
	}

	return config.Enabled, nil
}

// AnySubmissionPluginEnabled reports whether at least one submission plugin is
// enabled for the assignment.
func (r *Registry) AnySubmissionPluginEnabled(ctx context.Context, assignmentID uint) (bool, error) {
	for _, p := range r.submission {
		enabled, err := r.IsEnabled(ctx, assignmentID, p)
		if err != nil {
			return false, err
		}
		if enabled {
			return true, nil
		}
	}
	return false, nil
}
