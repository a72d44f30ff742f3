// Package buildinfo exposes version information injected at build time.
//
//	go build -ldflags "-X github.com/yndnr/remotectl/internal/infra/buildinfo.Version=v1.0.0 \
//	    -X github.com/yndnr/remotectl/internal/infra/buildinfo.Commit=abc123"
package buildinfo
