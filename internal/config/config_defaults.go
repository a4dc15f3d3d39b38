package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Backend Configuration
	v.SetDefault("backend.baseURL", "http://localhost:5000")
	v.SetDefault("backend.timeout", 30*time.Second)
	v.SetDefault("backend.cookieJarFile", "")

	// Circuit Breaker Configuration for auth endpoint calls
	v.SetDefault("backend.circuitBreaker.enabled", true)
	v.SetDefault("backend.circuitBreaker.maxRequests", 3)
	v.SetDefault("backend.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("backend.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("backend.circuitBreaker.minRequests", 3)
	v.SetDefault("backend.circuitBreaker.failureThreshold", 0.6)

	// Gateway Configuration
	v.SetDefault("gateway.host", "localhost")
	v.SetDefault("gateway.port", "8080")
	v.SetDefault("gateway.readTimeout", 30*time.Second)
	v.SetDefault("gateway.writeTimeout", 30*time.Second)
	v.SetDefault("gateway.idleTimeout", 120*time.Second)

	// Route guard defaults: home, login and register are reachable
	// without a session, everything else requires one.
	v.SetDefault("gateway.publicRoutes", []string{"/", "/auth/login", "/auth/register"})
	v.SetDefault("gateway.loginPath", "/auth/login")
	v.SetDefault("gateway.routesFile", "")

	// Rate limiting defaults
	v.SetDefault("gateway.rateLimit.enabled", false)
	v.SetDefault("gateway.rateLimit.requestsPerMin", 120)
	v.SetDefault("gateway.rateLimit.burstCapacity", 20)
	v.SetDefault("gateway.rateLimit.window", time.Minute)

	// App Configuration
	v.SetDefault("app.logLevel", "info")

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.credentials", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "resumekit")
	v.SetDefault("observability.serviceVersion", "")  // Will use app version if empty
	v.SetDefault("observability.serviceInstance", "") // Will be auto-generated if empty
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)

	// Tracing Configuration
	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)

	// Metrics Configuration
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)

	// Console Configuration
	v.SetDefault("observability.console.enabled", false)
	v.SetDefault("observability.console.prettyPrint", true)

	// Prometheus Configuration
	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")

	// OTLP Configuration
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
}
