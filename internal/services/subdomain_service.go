package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

var ErrSubdomainTaken = errors.New("subdomain is taken")

// Runner executes an external command and returns its stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return stdout.String(), fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return stdout.String(), fmt.Errorf("%s: %w", name, err)
	}
	return stdout.String(), nil
}

// SubdomainService manages shop subdomains through the hosting CLI. The
// label must already be validated; it is passed as a single argument and
// never through a shell.
type SubdomainService struct {
	Runner     Runner
	CLI        string
	MainDomain string
	Timeout    time.Duration
}

func (s *SubdomainService) FullDomain(sub string) string {
	return sub + "." + s.MainDomain
}

func (s *SubdomainService) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	t := s.Timeout
	if t <= 0 {
		t = 30 * time.Second
	}
	return context.WithTimeout(parent, t)
}

// Available lists the registered domains and reports whether sub is unused.
func (s *SubdomainService) Available(ctx context.Context, sub string) (bool, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	out, err := s.Runner.Run(ctx, s.CLI, "domains", "ls")
	if err != nil {
		return false, err
	}
	full := s.FullDomain(sub)
	for _, field := range strings.Fields(out) {
		if strings.EqualFold(field, full) {
			return false, nil
		}
	}
	return true, nil
}

// Create registers sub under the main domain and returns the CLI output.
func (s *SubdomainService) Create(ctx context.Context, sub string) (string, error) {
	ok, err := s.Available(ctx, sub)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrSubdomainTaken
	}
	ctx, cancel := s.ctx(ctx)
	defer cancel()
	return s.Runner.Run(ctx, s.CLI, "domains", "add", s.FullDomain(sub))
}
