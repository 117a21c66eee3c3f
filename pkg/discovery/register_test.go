package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildRegistration(t *testing.T) {
	reg := buildRegistration(Registration{Name: "catalog-service", Port: 8000, HealthPath: "/healthz"}, "10.0.0.5")

	assert.Equal(t, "catalog-service-10.0.0.5-8000", reg.ID)
	assert.Equal(t, "10.0.0.5", reg.Address)
	assert.Equal(t, []string{"catalog", "http"}, reg.Tags)
	assert.Equal(t, "http://10.0.0.5:8000/healthz", reg.Check.HTTP)
	assert.Equal(t, "30s", reg.Check.DeregisterCriticalServiceAfter)
}
