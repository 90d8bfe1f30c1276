package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/example/classroom-scheduler/internal/config"
	"github.com/example/classroom-scheduler/internal/identity"
)

// issueToken prints a bearer token for local auth mode. The signing secret
// and TTL come from the same environment the server reads.
func issueToken(args []string, out io.Writer) error {
	return issueTokenFrom(args, nil, out)
}

func issueTokenFrom(args []string, environ map[string]string, out io.Writer) error {
	fs := flag.NewFlagSet("issue-token", flag.ContinueOnError)
	fs.SetOutput(out)
	user := fs.String("user", "", "User ID placed in the token subject")
	email := fs.String("email", "", "Email claim")
	admin := fs.Bool("admin", false, "Grant the admin claim")
	ttl := fs.Duration("ttl", 0, "Token lifetime (defaults to SCHEDULER_SESSION_TTL)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *user == "" {
		return errors.New("issue-token: -user is required")
	}

	cfg, err := config.LoadFrom(environ)
	if err != nil {
		return err
	}
	if cfg.AuthMode != config.AuthLocal {
		return fmt.Errorf("issue-token: auth mode is %q, tokens are issued by the identity provider", cfg.AuthMode)
	}

	lifetime := cfg.SessionTTL
	if *ttl > 0 {
		lifetime = *ttl
	}
	verifier, err := identity.NewLocalVerifier(cfg.SessionSecret, lifetime)
	if err != nil {
		return err
	}
	token, err := verifier.Issue(identity.Principal{UserID: *user, Email: *email, IsAdmin: *admin})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s\n# expires %s\n", token, time.Now().Add(lifetime).Format(time.RFC3339))
	return err
}
