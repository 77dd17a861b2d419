/*
Package req parses payloads out of an HTTP request into application structs.

It supports JSON-encoded bodies and payloads encoded in query parameters.
In both cases, package req expects a pointer to a struct.
That struct ought to leverage the appropriate struct tags for two tasks:
matching keys in the payload to fields on the struct ("json", "schema")
and validating the payload's data meets requirements ("validate").

The parade of errors that may propagate from decoding and validating
are translated to cairn sentinel errors and ValidationErrors,
providing a consistent interface for issues arising across encoding types.
*/
package req
