/*

The resp package provides a high-level API for responding to HTTP requests
with an easy way to configure the responses application-wide.

resp provides three main ways of responding to an HTTP request:
- rendering HTML templates
- rendering JSON data
- redirecting

When a response cannot be composed, the *Responder hands the failure to the
fail.Responder it is configured with, which writes the failure in the content
type the client negotiated.

*/
package resp
