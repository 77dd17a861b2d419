/*

The fail package renders failed HTTP requests as complete error responses
with an easy way to configure the rendered bodies application-wide.

fail negotiates the body's media type from three sources, in order:
- the Content-Type the response already declares
- the content type the route produces
- the client's Accept header, most preferred entry first

Requests matching none of those still receive a bare text body,
so a failed request never goes unanswered.

*/
package fail
