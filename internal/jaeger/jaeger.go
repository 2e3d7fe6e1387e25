package jaeger

import (
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/exporters/jaeger"
)

// MustNewJaeger creates an exporter that sends spans to the collector at tracing.jaeger_endpoint.
func MustNewJaeger() *jaeger.Exporter {
	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(
		jaeger.WithEndpoint(viper.GetString("tracing.jaeger_endpoint")),
	))
	if err != nil {
		panic(err)
	}

	return exp
}
