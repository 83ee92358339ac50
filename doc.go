// Package gojsonapi maps Go structs to JSON:API documents and back.
//
// Declare your resources as Go structs with jsonapi struct tags, and get
// compound-document serialization, deserialization with relationship
// stitching, presence-aware update patches, and fetch-parameter parsing,
// all without writing document plumbing by hand.
//
// The module is organized into three packages:
//
//   - [github.com/CaliLuke/go-jsonapi/wire] — document tree: value nodes, parsing, deterministic rendering, binary codec
//   - [github.com/CaliLuke/go-jsonapi/resource] — contract registry, serializer, deserializer, patch model, manifests
//   - [github.com/CaliLuke/go-jsonapi/params] — include path and sparse-fieldset query grammar
//
// All packages are pure Go and carry no transport. They produce and consume
// documents; routing, content negotiation, and HTTP belong to the caller.
package gojsonapi
