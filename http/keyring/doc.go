/*
Package keyring defines how keys in a *http.Request.Context should behave
and a way of storing and retrieving those keys for wider use in an application.

The main method for managing keys is through a Keyring,
or a custom implementation of Keyringable.
A Keyring always distinguishes two keys, the session key and the current-user key,
since so much of the http stack pivots on those two;
every other key rides along and comes back out by name.

This package ships no keys of its own.
An application supplies them to NewKeyring,
as basecamp does with the root package's exported keys.
*/
package keyring
