/*
Package ports defines the driven ports (interfaces) of the page lifecycle.

These interfaces decouple the lifecycle from its collaborators so that the
database, the session backend and the template engine can be swapped or faked.

# Key Interfaces

  - TransactionalStore: begin/commit/rollback on the per-request database handle.
  - Store: a TransactionalStore that also hands out repositories bound to it.
  - Renderer: turns a template name and a variable bag into a response body.
  - AlertQueue: the session alerts shown once on the next rendered page.
  - SessionStore: persistence of sessions between requests.
  - DistributedLocker: cross-replica locking of a session.
*/
package ports
