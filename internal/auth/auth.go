// Package auth guards the /api routes with static API keys.
package auth

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

const (
	// RoleAnalyst may ask questions and read the schema.
	RoleAnalyst = "analyst"
	// RoleViewer may only list example questions.
	RoleViewer = "viewer"
)

type Identity struct {
	Subject string
	Roles   []string
}

func (i Identity) HasRole(role string) bool {
	return slices.Contains(i.Roles, role)
}

type APIKeyValidator interface {
	Validate(ctx context.Context, apiKey string) (Identity, bool)
}

type StaticAPIKeyValidator struct {
	keys map[string]Identity
}

// NewStaticAPIKeyValidator parses comma separated key:subject:role|role entries.
func NewStaticAPIKeyValidator(raw string) (*StaticAPIKeyValidator, error) {
	validator := &StaticAPIKeyValidator{keys: map[string]Identity{}}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return validator, nil
	}

	for _, entry := range strings.Split(raw, ",") {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid static key entry %q: expected key:subject:role|role", entry)
		}
		key := strings.TrimSpace(parts[0])
		subject := strings.TrimSpace(parts[1])
		if key == "" || subject == "" {
			return nil, fmt.Errorf("invalid static key entry %q: empty key/subject", entry)
		}
		if _, dup := validator.keys[key]; dup {
			return nil, fmt.Errorf("duplicate static key for subject %q", subject)
		}

		roles := make([]string, 0, 2)
		for _, role := range strings.Split(parts[2], "|") {
			role = strings.ToLower(strings.TrimSpace(role))
			switch role {
			case "":
				continue
			case RoleAnalyst, RoleViewer:
				roles = append(roles, role)
			default:
				return nil, fmt.Errorf("invalid static key entry %q: unknown role %q", entry, role)
			}
		}
		if len(roles) == 0 {
			return nil, fmt.Errorf("invalid static key entry %q: at least one role is required", entry)
		}
		slices.Sort(roles)
		validator.keys[key] = Identity{Subject: subject, Roles: slices.Compact(roles)}
	}

	return validator, nil
}

func (v *StaticAPIKeyValidator) Validate(_ context.Context, apiKey string) (Identity, bool) {
	identity, ok := v.keys[apiKey]
	return identity, ok
}

// Len is the number of configured keys.
func (v *StaticAPIKeyValidator) Len() int {
	return len(v.keys)
}
