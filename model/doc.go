// Package model defines the text generation abstraction consumed by
// model-driven tasks. The orchestration core treats generation as an opaque
// call: a Request goes in, a Response comes out, and any provider specifics
// (OpenAI, Anthropic, mocks) stay behind the Model interface in the
// respective subpackages.
package model
