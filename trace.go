package sdk

import (
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"github.com/pawpilot/pawpilot/sdk/go/headers"
)

// traceparentHook propagates the caller's span to the backend.
func traceparentHook(req *http.Request) error {
	sc := trace.SpanFromContext(req.Context()).SpanContext()
	if !sc.IsValid() {
		return nil
	}
	flags := "00"
	if sc.IsSampled() {
		flags = "01"
	}
	req.Header.Set(headers.Traceparent, fmt.Sprintf("00-%s-%s-%s", sc.TraceID().String(), sc.SpanID().String(), flags))
	return nil
}
