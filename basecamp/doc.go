/*
Package basecamp initializes and manages a cairn app with sane defaults.

# Basecamp

The main entrypoint to package basecamp is the [Basecamp] type.
A [Basecamp] ought to be constructed with [New] using a [Config].
A [Config] must be set with the concrete type for the user of your application.
That user must implement [BasecampUser].

[*Basecamp.Embark] begins a cairn app's web server.
By default, [*Basecamp.Embark] listens on [DefaultHost]:[DefaultPort] (localhost:3000),
assuming either a reverse proxy proxies requests
or only a client application makes direct requests to the cairn web server.

Upon calling [*Basecamp.Embark], all routes configured up to that point are now active.
Stop that web server with [*Basecamp.Shutdown],
call [*Basecamp.Cancel],
or send a signal [*Basecamp.Embark] listens for.

# Configuration

A developer configures a cairn app through environment variables
and by setting fields on [Config].
For environment variables, required values can be discovered by inspecting the errors [New] returns.

Environment variables ought to be set in a file called ".env"
found at the same directory the application is executed from.

Here are the available environment variables.
  - APP_DESCRIPTION: a short description of the application
  - APP_TITLE: a short title for the application
  - BASE_URL: the base URL the application runs on; default: http://localhost:3000
  - CONTACT_US_EMAIL: the email address end users can reach the team at; default: hello@cairnhq.com
  - DATABASE_HOST: the host the database is running on; default: localhost
  - DATABASE_MAX_IDLE_CXNS: the number of idle connections the database connection pool keeps; default: 1
  - DATABASE_NAME: the name of the database
  - DATABASE_PASSWORD: the password for authenticating a connection to the database
  - DATABASE_PORT: the port the database is listening on; default: 5432
  - DATABASE_SSLMODE: the SSL mode to connect to the database with; default: prefer
  - DATABASE_URL: the fully-qualified connection string for connecting to the database; replaces all other DATABASE_* env vars
  - DATABASE_USER: the user for authenticating a connection to the database
  - ENVIRONMENT: the environment the application is running in; cf. [cairn.Environment]
  - LOG_LEVEL: the level at which to begin logging; default: INFO; cf. [logger.LogLevel]
  - PORT: the port the application should listen on; default: :3000
  - SENTRY_DSN: the DSN for reporting errors to Sentry; when unset, nothing reports to Sentry
  - SERVER_IDLE_TIMEOUT: the timeout - as understood by [time.ParseDuration] - for idling between requests when using keep-alives; default: 120s
  - SERVER_READ_TIMEOUT: the timeout - as understood by [time.ParseDuration] - for reading HTTP requests; default: 5s
  - SERVER_WRITE_TIMEOUT: the timeout - as understood by [time.ParseDuration] - for writing HTTP responses; default: 5s
  - SESSION_AUTH_KEY: a hex-encoded key for authenticating cookies; cf. [encoding/hex]
  - SESSION_ENCRYPTION_KEY: a hex-encoded key for encrypting cookies; cf. [encoding/hex]

When the application runs in [cairn.Testing], the DATABASE_TEST_* variants
of the DATABASE_* env vars apply instead; cf. [NewPostgresConfig].
*/
package basecamp
