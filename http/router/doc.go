/*
Package router defines what a web server router does in cairn through [Router]
and a default implementation of it, [*DefaultRouter].
[*DefaultRouter] utilizes [mux.Router] for its implementation,
and so functions as a thin wrapper around that package.

A [Router] leverages a standardized data model - a [Route] -
when registering how requests should be routed.
A path and an HTTP method comprise a [Route].
An implementation of [http.Handler] is the function called when a request matches a Route.
Before a request gets to a handler, though,
any middlewares added to the Route are called in the order they appear.
A Route can also declare the content type it produces;
failures on such a Route render in that content type
unless the client's "Accept" header negotiates another.

It is often the case that many routes for a web server share identical middleware stacks,
which aid in directing, redirecting, or adding contextual information to a request.
It is also often the case that small errors can lead to registering a route incorrectly,
thereby unintentionally exposing a resource or not collecting data necessary for actually handling a request.
Thus, a [Router] provides conveniences for making a single call to register many logically associated Routes.

A Router expects two such groups of routes:
those pointing to resources, alternatively, outside of or behind authentication barriers.
The UnauthedRoutes and AuthedRoutes methods ensure routes are registered in the appropriate way, consequently.

Requests matching no registered Route do not fall through to a bare status code:
the [*fail.Responder] handed to [NewRouter] renders a 404 or 405
in the content type the client negotiates.
*/
package router
