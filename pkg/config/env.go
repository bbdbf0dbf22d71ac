package config

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// IsProductionLike returns true for the staging and production environments.
func IsProductionLike(environment string) bool {
	return environment == EnvStaging || environment == EnvProduction
}
