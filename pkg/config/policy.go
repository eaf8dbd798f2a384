package config

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/taskgraph/internal/shared/infrastructure/security"
	"gopkg.in/yaml.v3"
)

// Policy is the YAML policy file. Absent keys keep the configured value.
//
//	limits:
//	  max_tree_depth: 4
//	  max_dependency_depth: 8
//	lock_ttl: 45s
type Policy struct {
	Limits struct {
		MaxTreeDepth       *int `yaml:"max_tree_depth"`
		MaxDependencyDepth *int `yaml:"max_dependency_depth"`
		MaxTasksPerOwner   *int `yaml:"max_tasks_per_owner"`
		TraversalCeiling   *int `yaml:"traversal_ceiling"`
		ConflictRetries    *int `yaml:"conflict_retries"`
	} `yaml:"limits"`
	LockTTL *time.Duration `yaml:"lock_ttl"`
}

// LoadPolicyFile overlays the policy at path onto c.
func (c *Config) LoadPolicyFile(path string) error {
	data, err := security.ReadFileLimited(path, security.MaxPolicyFileSize)
	if err != nil {
		return fmt.Errorf("read policy file: %w", err)
	}

	var policy Policy
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return fmt.Errorf("parse policy file %s: %w", path, err)
	}
	c.ApplyPolicy(policy)

	if _, err := c.Limits(); err != nil {
		return fmt.Errorf("policy file %s: %w", path, err)
	}
	return nil
}

// ApplyPolicy copies every value set in policy onto c.
func (c *Config) ApplyPolicy(policy Policy) {
	set := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	set(&c.MaxTreeDepth, policy.Limits.MaxTreeDepth)
	set(&c.MaxDependencyDepth, policy.Limits.MaxDependencyDepth)
	set(&c.MaxTasksPerOwner, policy.Limits.MaxTasksPerOwner)
	set(&c.TraversalCeiling, policy.Limits.TraversalCeiling)
	set(&c.ConflictRetries, policy.Limits.ConflictRetries)
	if policy.LockTTL != nil {
		c.LockTTL = *policy.LockTTL
	}
}
