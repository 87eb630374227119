/*
Package session keeps the per-browser state of the tool between requests.

The Manager serializes access to one session across concurrent requests of the
same browser, and across replicas when a distributed locker is configured.
Alerts adapts a loaded session to the alert queue consumed by the page
lifecycle.
*/
package session
