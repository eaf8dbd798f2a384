package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimits_Validate(t *testing.T) {
	assert.NoError(t, DefaultLimits().Validate())

	tests := []struct {
		name   string
		mutate func(*Limits)
	}{
		{"negative tree depth", func(l *Limits) { l.MaxTreeDepth = -1 }},
		{"zero dependency depth", func(l *Limits) { l.MaxDependencyDepth = 0 }},
		{"zero task count", func(l *Limits) { l.MaxTasksPerOwner = 0 }},
		{"zero ceiling", func(l *Limits) { l.TraversalCeiling = 0 }},
		{"negative retries", func(l *Limits) { l.ConflictRetries = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := DefaultLimits()
			tt.mutate(&l)
			assert.Error(t, l.Validate())
		})
	}
}
