package timeseries

import (
	"fmt"
	"strings"
)

// Version selects the deployed API version the client talks to.
type Version string

const (
	Version16 Version = "1.6"
	Version17 Version = "1.7"

	DefaultVersion = Version17
)

// Environment identifies one deployment of the PlantSeries API: its base
// URL and the resource ID used when requesting access tokens for it.
type Environment struct {
	name     string
	baseURL  string
	resource string
}

// NewEnvironment builds a custom environment, for gateways not covered
// by the Dev/Test/Prod constructors.
func NewEnvironment(name, baseURL, resource string) Environment {
	return Environment{
		name:     name,
		baseURL:  strings.TrimRight(baseURL, "/"),
		resource: resource,
	}
}

// Dev returns the non-production development environment.
func Dev(version Version) Environment {
	return NewEnvironment(
		"dev",
		fmt.Sprintf("https://api-dev.gateway.plantmetrics.io/plant/timeseries/v%s", version),
		"32f2a909-8a98-4eb8-b22d-1208d9350cb0",
	)
}

// Test returns the non-production test environment.
func Test(version Version) Environment {
	return NewEnvironment(
		"test",
		fmt.Sprintf("https://api-test.gateway.plantmetrics.io/plant/timeseries/v%s", version),
		"32f2a909-8a98-4eb8-b22d-1208d9350cb0",
	)
}

// Prod returns the production environment.
func Prod(version Version) Environment {
	return NewEnvironment(
		"prod",
		fmt.Sprintf("https://api.gateway.plantmetrics.io/plant/timeseries/v%s", version),
		"141369bd-3dca-4b55-825b-56ad4a69b1fc",
	)
}

// Name returns the environment label used in logs.
func (e Environment) Name() string { return e.name }

// BaseURL returns the API root without a trailing slash.
func (e Environment) BaseURL() string { return e.baseURL }

// Resource returns the resource/application ID of the API registration.
// Token requests should use the scope Resource() + "/.default".
func (e Environment) Resource() string { return e.resource }
