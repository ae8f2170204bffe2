// Package environment names the deployment stage of the service. It decides
// logging presets and whether debug-only behaviour is allowed.
package environment
