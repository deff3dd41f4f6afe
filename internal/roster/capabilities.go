package roster

import (
	"context"

	"github.com/noah-isme/assignflow-api/internal/models"
	"github.com/noah-isme/assignflow-api/internal/service"
)

// roleCapabilities is the static role-to-capability grant table.
var roleCapabilities = map[string]map[string]bool{
	models.RoleStudent: {
		service.CapabilitySubmit: true,
	},
	models.RoleTeacher: {
		service.CapabilityGrade:          true,
		service.CapabilityGrantExtension: true,
	},
	models.RoleManager: {
		service.CapabilityGrade:            true,
		service.CapabilityGrantExtension:   true,
		service.CapabilityRevealIdentities: true,
	},
}

// Capabilities answers capability checks from the actor's role.
type Capabilities struct{}

// NewCapabilities constructs the checker.
func NewCapabilities() *Capabilities {
	return &Capabilities{}
}

// HasCapability reports whether the actor's role grants the capability.
func (c *Capabilities) HasCapability(_ context.Context, actor service.Actor, capability string) (bool, error) {
	return roleCapabilities[actor.Role][capability], nil
}
