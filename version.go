package accreq

// Version is overridden at build time with -ldflags "-X github.com/aretw0/accreq.Version=...".
var Version = "dev"
