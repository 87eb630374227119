/*
Package domain contains the core models of the account-request tool.

It defines the entities shared by the page lifecycle, the persistence adapters
and the HTTP layer. The package stays free of I/O and persistence concerns.

# Key Entities

  - User: a tool account, including its approval status and signatures.
  - Session: the per-browser state (current user, pending alerts).
  - Alert: a one-shot message shown on the next rendered page.
  - EmailTemplate: a close-reason email sent when a request is handled.
  - SecurityConfiguration: who may reach a page.
  - Error taxonomy: the classification the lifecycle uses to decide between
    recovery and abort.
*/
package domain
