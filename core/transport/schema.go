package transport

import "github.com/invopop/jsonschema"

// OutboundSchema returns the reflected JSON schema of client-to-backend
// frames. Backend implementations use it for conformance checks.
func OutboundSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{DoNotReference: true}
	return reflector.Reflect(&OutboundMessage{})
}

// InboundSchema returns the reflected JSON schema of backend-to-client
// frames.
func InboundSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{DoNotReference: true}
	return reflector.Reflect(&InboundMessage{})
}
